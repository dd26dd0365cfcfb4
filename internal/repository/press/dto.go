package press

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/candidex/candidex/internal/domain"
)

// SanitizeMetadata flattens arbitrary metadata into the scalar-only form
// the hash store accepts: scalars are stringified, string lists are joined
// with commas, nil becomes the empty string, and anything else falls back
// to its default string rendering.
func SanitizeMetadata(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))
	for key, value := range metadata {
		out[key] = sanitizeValue(value)
	}
	return out
}

func sanitizeValue(value any) string {
	if value == nil {
		return ""
	}
	if domain.IsScalar(value) {
		return scalarString(value)
	}

	switch v := value.(type) {
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = sanitizeValue(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	default:
		return fmt.Sprintf("%d", v)
	}
}
