package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SourceRecord is one raw record exactly as received from the extraction
// hand-off: a flat or nested mapping of field names to values. Nested
// levels are map[string]any, as produced by encoding/json.
type SourceRecord map[string]any

// TargetRecord is one normalized, type-coerced, default-filled row ready
// for storage. Column values are one of: string, time.Time (date),
// decimal.Decimal, int64, bool, or nil when an optional column is absent.
type TargetRecord struct {
	Extract ExtractType    `json:"extract_type"`
	Fund    string         `json:"fund"`
	Columns map[string]any `json:"columns"`
	// Key is the synthetic duplicate-detection key derived from the
	// schema's natural key columns.
	Key string `json:"key"`
}

// Empty reports whether col is absent or holds an empty string.
func (r *TargetRecord) Empty(col string) bool {
	v, ok := r.Columns[col]
	if !ok || v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// FormatValue renders a column value for keys and reports. Dates come out
// as YYYY-MM-DD, decimals at their stored scale.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format("2006-01-02")
	case decimal.Decimal:
		return t.String()
	case int64:
		return decimal.NewFromInt(t).String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// FormatColumn renders the named column of r for keys and reports.
func (r *TargetRecord) FormatColumn(col string) string {
	return FormatValue(r.Columns[col])
}
