package domain

import (
	"crypto/md5" //nolint:gosec // content addressing, not integrity protection
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// IndexedDocument is the persisted unit of the vector index: a processed
// press release with its embedding, scalar metadata, and clean text.
type IndexedDocument struct {
	ID        string
	Embedding []float32
	Metadata  map[string]any
	Text      string
}

// Candidate is a retrieval hit from the vector index. Distance is the raw
// cosine distance (lower = closer); hits arrive sorted ascending.
type Candidate struct {
	ID       string
	Text     string
	Metadata map[string]string
	Distance float64
}

// DocumentID derives a content-addressed id from the source path stem and
// the raw extracted text: stem + "_" + first 8 hex chars of MD5(text).
// Identical (path, content) pairs always map to the same id, so
// re-ingestion of unchanged content upserts in place. Changed content
// produces a new id; the stale record is not collected. MD5 here is a
// content-addressing scheme, not a collision guarantee.
func DocumentID(path, rawText string) string {
	sum := md5.Sum([]byte(rawText)) //nolint:gosec
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("%s_%s", stem, hex.EncodeToString(sum[:])[:8])
}

// IsScalar reports whether v satisfies the store's scalar-only metadata
// invariant: strings, booleans, and numeric types pass.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
