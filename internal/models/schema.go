package models

import "sort"

// ColumnType is the semantic target type of a mapped column.
type ColumnType string

const (
	ColumnString  ColumnType = "string"
	ColumnText    ColumnType = "text"
	ColumnDate    ColumnType = "date"
	ColumnDecimal ColumnType = "decimal"
	// ColumnPercent is a decimal delivered as a percentage; the mapper
	// divides it by 100 before rounding.
	ColumnPercent ColumnType = "percent"
	ColumnInteger ColumnType = "integer"
	ColumnBoolean ColumnType = "boolean"
)

// ColumnMapping binds one source field to one target column. Source may be
// a dotted path ("profitability.day") resolved by descending nested maps.
type ColumnMapping struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// EntryTypeRule derives a classification column from a pair of mapped
// amount columns: CREDITO when the credit amount is positive, DEBITO when
// the debit amount is, otherwise the target's default value applies.
type EntryTypeRule struct {
	Target string `json:"target"`
	Credit string `json:"credit"`
	Debit  string `json:"debit"`
}

// SchemaDefinition is the declarative schema for one extract type. It is
// loaded once from configuration, validated at startup and shared
// read-only by every component for the duration of the run.
type SchemaDefinition struct {
	Extract           ExtractType           `json:"extract_type"`
	ColumnMapping     []ColumnMapping       `json:"column_mapping"`
	DataTypes         map[string]ColumnType `json:"data_types"`
	DecimalPrecisions map[string]int32      `json:"decimal_precisions"`
	RequiredColumns   []string              `json:"required_columns"`
	ValidationRules   map[string][]string   `json:"validation_rules"`
	DefaultValues     map[string]string     `json:"default_values"`
	FundNameMapping   map[string]string     `json:"fund_name_mapping,omitempty"`
	NullTolerance     []string              `json:"null_tolerance,omitempty"`
	EntryType         *EntryTypeRule        `json:"entry_type,omitempty"`

	// FundColumn names the target column holding the fund identifier;
	// NaturalKey lists the target columns whose combination identifies a
	// logically unique record for duplicate detection.
	FundColumn string   `json:"fund_column"`
	NaturalKey []string `json:"natural_key"`
}

// TargetColumns returns every target column in declaration order: mapped
// columns first, then columns that exist only through default values.
func (s *SchemaDefinition) TargetColumns() []string {
	seen := make(map[string]bool, len(s.ColumnMapping))
	cols := make([]string, 0, len(s.ColumnMapping)+len(s.DefaultValues))
	for _, m := range s.ColumnMapping {
		if !seen[m.Target] {
			seen[m.Target] = true
			cols = append(cols, m.Target)
		}
	}
	// Default-only columns follow in RequiredColumns order, then sorted,
	// to keep the output deterministic.
	for _, c := range s.RequiredColumns {
		if _, ok := s.DefaultValues[c]; ok && !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	rest := make([]string, 0, len(s.DefaultValues))
	for c := range s.DefaultValues {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// IsRequired reports whether col is a required target column.
func (s *SchemaDefinition) IsRequired(col string) bool {
	for _, c := range s.RequiredColumns {
		if c == col {
			return true
		}
	}
	return false
}

// Tolerates reports whether col may legitimately be absent.
func (s *SchemaDefinition) Tolerates(col string) bool {
	for _, c := range s.NullTolerance {
		if c == col {
			return true
		}
	}
	return false
}

// TypeOf returns the declared type of col, defaulting to string.
func (s *SchemaDefinition) TypeOf(col string) ColumnType {
	if t, ok := s.DataTypes[col]; ok {
		return t
	}
	return ColumnString
}

// ScaleOf returns the declared decimal scale of col, defaulting to 2.
func (s *SchemaDefinition) ScaleOf(col string) int32 {
	if p, ok := s.DecimalPrecisions[col]; ok {
		return p
	}
	return 2
}
