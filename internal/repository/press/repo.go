// Package press persists processed press releases as Redis hashes and
// serves KNN retrieval over their embeddings.
package press

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/candidex/candidex/internal/db"
	"github.com/candidex/candidex/internal/domain"
)

// store is the consumer interface for press release documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Reserved hash fields that are not document metadata.
const (
	fieldContent = "__content"
	fieldVector  = "vector"
)

// Repo implements storage and retrieval for indexed press releases.
type Repo struct {
	store      store
	keyPrefix  string
	collection string
	dims       int
}

// New creates a press release repository. keyPrefix and collection shape
// the hash keys ("<prefix><collection>:<id>") and the FT index name.
func New(s store, keyPrefix, collection string, dims int) *Repo {
	return &Repo{
		store:      s,
		keyPrefix:  keyPrefix,
		collection: collection,
		dims:       dims,
	}
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	name := r.indexName()

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     name,
		Prefixes: []string{r.docPrefix()},
		Fields: []db.IndexField{
			{
				Name:           fieldVector,
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorFlat,
				VectorDim:      r.dims,
				VectorDistance: db.DistanceCosine,
			},
			{Name: fieldContent, Type: db.IndexFieldText},
			{Name: "company_description", Type: db.IndexFieldText},
			{Name: "section_present", Type: db.IndexFieldTag, TagSeparator: ","},
		},
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// ResetIndex drops the FT index if present and recreates it from the
// current definition. Document hashes stay in place; the fresh index
// picks them up again by key prefix.
func (r *Repo) ResetIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.indexName(), err)
	}
	return r.EnsureIndex(ctx)
}

// Upsert stores a document hash: sanitized metadata fields plus the clean
// text under __content and the embedding as little-endian float32 bytes.
func (r *Repo) Upsert(ctx context.Context, doc *domain.IndexedDocument) error {
	if doc.ID == "" {
		return errors.New("document id is required")
	}
	if len(doc.Embedding) != r.dims {
		return fmt.Errorf("embedding has %d dimensions, index expects %d", len(doc.Embedding), r.dims)
	}

	fields := SanitizeMetadata(doc.Metadata)
	fields[fieldContent] = doc.Text
	fields[fieldVector] = string(vectorBytes(doc.Embedding))

	key := r.docKey(doc.ID)
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns the stored text and metadata for one document.
func (r *Repo) Get(ctx context.Context, id string) (domain.Candidate, error) {
	key := r.docKey(id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domain.Candidate{}, domain.ErrCompanyNotFound
	}
	return r.candidateFromFields(key, 0, fields), nil
}

// GetMulti fetches several documents in one round-trip. Ids whose hash
// disappeared between listing and fetching are skipped.
func (r *Repo) GetMulti(ctx context.Context, ids []string) ([]domain.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(id)
	}
	all, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(all))
	for i, fields := range all {
		if len(fields) == 0 {
			continue
		}
		candidates = append(candidates, r.candidateFromFields(keys[i], 0, fields))
	}
	return candidates, nil
}

// Delete removes a document.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.docKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrCompanyNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// ListIDs returns all stored document ids.
func (r *Repo) ListIDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.docPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, r.docPrefix()))
	}
	return ids, nil
}

// Count returns the number of indexed documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// SearchKNN returns up to k nearest documents by cosine distance,
// ascending. Results carry the full stored metadata and clean text.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.Candidate, error) {
	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName: r.indexName(),
		Vector:    vector,
		K:         k,
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(result.Entries))
	for _, entry := range result.Entries {
		candidates = append(candidates, r.candidateFromFields(entry.Key, entry.Distance, entry.Fields))
	}
	return candidates, nil
}

func (r *Repo) candidateFromFields(key string, distance float64, fields map[string]string) domain.Candidate {
	metadata := make(map[string]string, len(fields))
	var text string
	for name, value := range fields {
		switch name {
		case fieldContent:
			text = value
		case fieldVector:
			// binary, not metadata
		default:
			metadata[name] = value
		}
	}

	return domain.Candidate{
		ID:       strings.TrimPrefix(key, r.docPrefix()),
		Text:     text,
		Metadata: metadata,
		Distance: distance,
	}
}

func (r *Repo) docPrefix() string {
	return r.keyPrefix + r.collection + ":"
}

func (r *Repo) docKey(id string) string {
	return r.docPrefix() + id
}

func (r *Repo) indexName() string {
	return r.keyPrefix + r.collection + ":idx"
}

func vectorBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
