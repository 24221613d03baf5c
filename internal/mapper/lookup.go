package mapper

import (
	"strings"

	"github.com/catalise/fundingest/internal/models"
)

// lookupPath resolves a possibly dotted source path against a raw record
// by stepwise descent over nested maps. It short-circuits to absent the
// moment an intermediate level is missing or is not a map; partial
// nesting is never an error.
func lookupPath(rec models.SourceRecord, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = map[string]any(rec)
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}
