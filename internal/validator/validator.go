// Package validator enforces the correctness constraints of a mapped
// batch: required-field presence, enumerated values and batch-local
// duplicate suppression. Every row yields exactly one outcome; nothing
// here ever aborts the batch.
package validator

import (
	"sort"

	"github.com/catalise/fundingest/internal/models"
)

// ValidateBatch checks target records in arrival order and splits them
// into accepted and rejected. Accepted records preserve input order; for
// duplicate natural keys the first occurrence wins and every subsequent
// one is rejected. Duplicates are batch-local: cross-run suppression is
// the storage layer's responsibility.
func ValidateBatch(schema *models.SchemaDefinition, records []models.TargetRecord) (accepted []models.TargetRecord, rejected []models.RejectedRecord) {
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		if outcome, ok := checkRequired(schema, &rec); !ok {
			rejected = append(rejected, models.RejectedRecord{Record: rec, Outcome: outcome})
			continue
		}
		if outcome, ok := checkEnums(schema, &rec); !ok {
			rejected = append(rejected, models.RejectedRecord{Record: rec, Outcome: outcome})
			continue
		}
		if seen[rec.Key] {
			rejected = append(rejected, models.RejectedRecord{
				Record:  rec,
				Outcome: models.ValidationOutcome{Reason: models.RejectDuplicate, Value: rec.Key},
			})
			continue
		}
		seen[rec.Key] = true
		accepted = append(accepted, rec)
	}
	return accepted, rejected
}

func checkRequired(schema *models.SchemaDefinition, rec *models.TargetRecord) (models.ValidationOutcome, bool) {
	for _, col := range schema.RequiredColumns {
		if rec.Empty(col) {
			return models.ValidationOutcome{Reason: models.RejectMissingRequired, Column: col}, false
		}
	}
	return models.ValidationOutcome{}, true
}

func checkEnums(schema *models.SchemaDefinition, rec *models.TargetRecord) (models.ValidationOutcome, bool) {
	// Sorted so the reported column is stable when several enums fail.
	cols := make([]string, 0, len(schema.ValidationRules))
	for col := range schema.ValidationRules {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		if rec.Empty(col) {
			continue // absence is the required-field check's concern
		}
		val := rec.FormatColumn(col)
		if !contains(schema.ValidationRules[col], val) {
			return models.ValidationOutcome{Reason: models.RejectInvalidEnum, Column: col, Value: val}, false
		}
	}
	return models.ValidationOutcome{}, true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
