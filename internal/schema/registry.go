// Package schema loads and validates the declarative extract schemas.
// Schemas are read once at startup and shared read-only afterwards; any
// inconsistency here is fatal before a single record is processed.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/catalise/fundingest/internal/models"
)

// SchemaError reports a malformed or self-inconsistent schema definition.
type SchemaError struct {
	Extract models.ExtractType
	Reason  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: %s", e.Extract, e.Reason)
}

// Registry holds one immutable SchemaDefinition per extract type.
type Registry struct {
	schemas map[models.ExtractType]*models.SchemaDefinition
}

// New builds a registry from the given definitions, validating each one.
func New(defs ...*models.SchemaDefinition) (*Registry, error) {
	r := &Registry{schemas: make(map[models.ExtractType]*models.SchemaDefinition, len(defs))}
	for _, def := range defs {
		if err := Validate(def); err != nil {
			return nil, err
		}
		if _, dup := r.schemas[def.Extract]; dup {
			return nil, &SchemaError{Extract: def.Extract, Reason: "duplicate definition"}
		}
		r.schemas[def.Extract] = def
	}
	return r, nil
}

// Load reads one JSON schema document per extract type from dir
// (portfolio.json, profitability.json, statement.json).
func Load(dir string) (*Registry, error) {
	defs := make([]*models.SchemaDefinition, 0, len(models.AllExtractTypes))
	for _, extract := range models.AllExtractTypes {
		path := filepath.Join(dir, string(extract)+".json")
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema for %s: %w", extract, err)
		}
		var def models.SchemaDefinition
		if err := json.Unmarshal(raw, &def); err != nil {
			return nil, &SchemaError{Extract: extract, Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
		if def.Extract == "" {
			def.Extract = extract
		}
		if def.Extract != extract {
			return nil, &SchemaError{Extract: extract, Reason: fmt.Sprintf("file %s declares extract_type %q", filepath.Base(path), def.Extract)}
		}
		defs = append(defs, &def)
	}
	return New(defs...)
}

// Get returns the schema for the given extract type.
func (r *Registry) Get(extract models.ExtractType) (*models.SchemaDefinition, error) {
	def, ok := r.schemas[extract]
	if !ok {
		return nil, fmt.Errorf("no schema registered for extract type %q", extract)
	}
	return def, nil
}

// Validate checks a definition for self-consistency. Every required
// column must be reachable, either as a mapping target or through a
// default; every auxiliary map must refer to known target columns.
func Validate(def *models.SchemaDefinition) error {
	fail := func(format string, args ...any) error {
		return &SchemaError{Extract: def.Extract, Reason: fmt.Sprintf(format, args...)}
	}

	if len(def.ColumnMapping) == 0 {
		return fail("column_mapping is empty")
	}
	if len(def.RequiredColumns) == 0 {
		return fail("required_columns is empty")
	}

	targets := make(map[string]bool, len(def.ColumnMapping))
	for i, m := range def.ColumnMapping {
		if m.Source == "" || m.Target == "" {
			return fail("column_mapping entry %d has empty source or target", i)
		}
		targets[m.Target] = true
	}
	for c := range def.DefaultValues {
		targets[c] = true
	}

	for _, c := range def.RequiredColumns {
		if !targets[c] {
			return fail("required column %q is neither mapped nor defaulted", c)
		}
	}
	for c := range def.DataTypes {
		if !targets[c] {
			return fail("data_types refers to unknown column %q", c)
		}
	}
	for c := range def.DecimalPrecisions {
		if !targets[c] {
			return fail("decimal_precisions refers to unknown column %q", c)
		}
		switch def.TypeOf(c) {
		case models.ColumnDecimal, models.ColumnPercent:
		default:
			return fail("decimal_precisions set for non-decimal column %q", c)
		}
	}
	for c, allowed := range def.ValidationRules {
		if !targets[c] {
			return fail("validation_rules refers to unknown column %q", c)
		}
		if len(allowed) == 0 {
			return fail("validation_rules for %q is empty", c)
		}
	}
	for _, c := range def.NullTolerance {
		if !targets[c] {
			return fail("null_tolerance refers to unknown column %q", c)
		}
		if def.IsRequired(c) {
			return fail("column %q cannot be both required and null-tolerant", c)
		}
	}

	if def.FundColumn == "" {
		return fail("fund_column is not set")
	}
	if !targets[def.FundColumn] {
		return fail("fund_column %q is not a target column", def.FundColumn)
	}
	if len(def.NaturalKey) == 0 {
		return fail("natural_key is empty")
	}
	for _, c := range def.NaturalKey {
		if !targets[c] {
			return fail("natural_key refers to unknown column %q", c)
		}
	}
	if rule := def.EntryType; rule != nil {
		for _, c := range []string{rule.Target, rule.Credit, rule.Debit} {
			if !targets[c] {
				return fail("entry_type refers to unknown column %q", c)
			}
		}
		for _, c := range []string{rule.Credit, rule.Debit} {
			if def.TypeOf(c) != models.ColumnDecimal {
				return fail("entry_type amount column %q is not decimal", c)
			}
		}
	}
	return nil
}
