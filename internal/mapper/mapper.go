// Package mapper turns raw source records into normalized target rows.
// MapRecord is a pure function of (schema, record); a single record's
// failure is returned as data for the caller to report, never a reason to
// abort the batch.
package mapper

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/catalise/fundingest/internal/models"
)

// MappingError reports a record that cannot be normalized: a required
// source field is absent, or a required value does not parse as its
// declared type.
type MappingError struct {
	Column string
	Path   string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping %s (source %s): %s", e.Column, e.Path, e.Reason)
}

// MapRecord normalizes one source record against the schema: resolves
// each mapping (dotted paths descend nested levels), fills defaults for
// absent optional columns, coerces values to their declared types and
// canonicalizes the fund name. On failure the partially mapped record is
// returned alongside the error so rejections still carry context.
//
// An unparseable value in an optional column is treated as absent rather
// than fatal; the per-column default, if any, takes its place.
func MapRecord(schema *models.SchemaDefinition, source models.SourceRecord) (models.TargetRecord, *MappingError) {
	rec := models.TargetRecord{
		Extract: schema.Extract,
		Columns: make(map[string]any, len(schema.ColumnMapping)+len(schema.DefaultValues)),
	}

	var failure *MappingError
	for _, m := range schema.ColumnMapping {
		raw, present := lookupPath(source, m.Source)
		if !present {
			raw, present = defaultFor(schema, m.Target)
		}
		if !present {
			if schema.IsRequired(m.Target) && failure == nil {
				failure = &MappingError{Column: m.Target, Path: m.Source, Reason: "required source value absent"}
			}
			// Optional and absent: left empty (null tolerance).
			continue
		}

		val, err := coerce(raw, schema.TypeOf(m.Target), schema.ScaleOf(m.Target))
		if err != nil {
			if schema.IsRequired(m.Target) {
				if failure == nil {
					failure = &MappingError{Column: m.Target, Path: m.Source, Reason: err.Error()}
				}
				continue
			}
			continue
		}
		rec.Columns[m.Target] = val
	}

	deriveEntryType(schema, &rec)

	// Columns that exist only through defaults.
	for col, def := range schema.DefaultValues {
		if _, ok := rec.Columns[col]; ok {
			continue
		}
		if mapped(schema, col) {
			continue // absence already handled above
		}
		val, err := coerce(def, schema.TypeOf(col), schema.ScaleOf(col))
		if err != nil {
			if failure == nil {
				failure = &MappingError{Column: col, Path: "(default)", Reason: err.Error()}
			}
			continue
		}
		rec.Columns[col] = val
	}

	canonicalizeFund(schema, &rec)
	rec.Key = naturalKey(schema, &rec)

	return rec, failure
}

// defaultFor returns the declared default for col, if any.
func defaultFor(schema *models.SchemaDefinition, col string) (any, bool) {
	def, ok := schema.DefaultValues[col]
	if !ok {
		return nil, false
	}
	return def, true
}

func mapped(schema *models.SchemaDefinition, col string) bool {
	for _, m := range schema.ColumnMapping {
		if m.Target == col {
			return true
		}
	}
	return false
}

// deriveEntryType classifies a record as credit- or debit-bearing from
// the mapped amount columns. When neither amount is positive the target
// is left absent so its default fills in.
func deriveEntryType(schema *models.SchemaDefinition, rec *models.TargetRecord) {
	rule := schema.EntryType
	if rule == nil {
		return
	}
	switch {
	case positiveAmount(rec.Columns[rule.Credit]):
		rec.Columns[rule.Target] = "CREDITO"
	case positiveAmount(rec.Columns[rule.Debit]):
		rec.Columns[rule.Target] = "DEBITO"
	}
}

func positiveAmount(v any) bool {
	d, ok := v.(decimal.Decimal)
	return ok && d.IsPositive()
}

// canonicalizeFund substitutes the standardized fund label when the
// source name matches a fund_name_mapping key. Unmatched names pass
// through unchanged; canonicalization is best-effort.
func canonicalizeFund(schema *models.SchemaDefinition, rec *models.TargetRecord) {
	raw, ok := rec.Columns[schema.FundColumn].(string)
	if !ok {
		return
	}
	name := strings.TrimSpace(raw)
	if canonical, ok := schema.FundNameMapping[name]; ok {
		name = canonical
	}
	rec.Columns[schema.FundColumn] = name
	rec.Fund = name
}

// naturalKey derives the duplicate-detection key from the schema's
// natural key columns, in declaration order.
func naturalKey(schema *models.SchemaDefinition, rec *models.TargetRecord) string {
	parts := make([]string, len(schema.NaturalKey))
	for i, col := range schema.NaturalKey {
		parts[i] = rec.FormatColumn(col)
	}
	return strings.Join(parts, "|")
}
