package validator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/catalise/fundingest/internal/models"
)

func testSchema() *models.SchemaDefinition {
	return &models.SchemaDefinition{
		Extract: models.ExtractPortfolio,
		ColumnMapping: []models.ColumnMapping{
			{Source: "Nome Fundo", Target: "NmFundo"},
			{Source: "Data", Target: "DtPosicao"},
			{Source: "Cotacao", Target: "VlrCotacao"},
			{Source: "Classificacao", Target: "Classificacao"},
		},
		RequiredColumns: []string{"NmFundo", "DtPosicao", "VlrCotacao"},
		ValidationRules: map[string][]string{
			"Classificacao": {"RENDA FIXA", "ACOES"},
		},
		FundColumn: "NmFundo",
		NaturalKey: []string{"NmFundo", "DtPosicao"},
	}
}

func record(fund, date string, quote float64, class string) models.TargetRecord {
	cols := map[string]any{
		"NmFundo":    fund,
		"VlrCotacao": decimal.NewFromFloat(quote),
	}
	if date != "" {
		d, _ := time.Parse("2006-01-02", date)
		cols["DtPosicao"] = d
	}
	if class != "" {
		cols["Classificacao"] = class
	}
	return models.TargetRecord{
		Extract: models.ExtractPortfolio,
		Fund:    fund,
		Columns: cols,
		Key:     fund + "|" + date,
	}
}

func TestValidateBatch_Scenario(t *testing.T) {
	schema := testSchema()

	missing := record("A", "2025-05-29", 10, "RENDA FIXA")
	delete(missing.Columns, "VlrCotacao")
	good := record("A", "2025-05-30", 10, "RENDA FIXA")

	accepted, rejected := ValidateBatch(schema, []models.TargetRecord{missing, good})

	if len(accepted) != 1 || accepted[0].Key != good.Key {
		t.Fatalf("expected only the complete record accepted, got %d", len(accepted))
	}
	if len(rejected) != 1 {
		t.Fatalf("expected 1 rejection, got %d", len(rejected))
	}
	if rejected[0].Outcome.Reason != models.RejectMissingRequired {
		t.Errorf("expected missing_required, got %s", rejected[0].Outcome.Reason)
	}
	if rejected[0].Outcome.Column != "VlrCotacao" {
		t.Errorf("expected offending column VlrCotacao, got %q", rejected[0].Outcome.Column)
	}
}

func TestValidateBatch_InvalidEnum(t *testing.T) {
	schema := testSchema()
	bad := record("A", "2025-05-29", 10, "DERIVATIVOS")

	accepted, rejected := ValidateBatch(schema, []models.TargetRecord{bad})
	if len(accepted) != 0 || len(rejected) != 1 {
		t.Fatalf("expected 0 accepted / 1 rejected, got %d / %d", len(accepted), len(rejected))
	}
	out := rejected[0].Outcome
	if out.Reason != models.RejectInvalidEnum || out.Column != "Classificacao" || out.Value != "DERIVATIVOS" {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestValidateBatch_EmptyEnumColumnPasses(t *testing.T) {
	schema := testSchema()
	rec := record("A", "2025-05-29", 10, "")

	accepted, rejected := ValidateBatch(schema, []models.TargetRecord{rec})
	if len(accepted) != 1 || len(rejected) != 0 {
		t.Fatalf("optional empty enum column must not reject: %d / %d", len(accepted), len(rejected))
	}
}

func TestValidateBatch_DuplicateSuppression(t *testing.T) {
	schema := testSchema()
	first := record("A", "2025-05-29", 10, "ACOES")
	dup := record("A", "2025-05-29", 11, "ACOES")
	other := record("B", "2025-05-29", 12, "ACOES")

	accepted, rejected := ValidateBatch(schema, []models.TargetRecord{first, dup, other})

	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted, got %d", len(accepted))
	}
	// First arrival wins; order preserved.
	if accepted[0].Fund != "A" || accepted[1].Fund != "B" {
		t.Errorf("acceptance order broken: %s, %s", accepted[0].Fund, accepted[1].Fund)
	}
	if v, _ := accepted[0].Columns["VlrCotacao"].(decimal.Decimal); v.String() != "10" {
		t.Errorf("expected the first occurrence kept, got quote %s", v.String())
	}
	if len(rejected) != 1 || rejected[0].Outcome.Reason != models.RejectDuplicate {
		t.Fatalf("expected 1 duplicate rejection, got %+v", rejected)
	}
}

func TestValidateBatch_EveryRowHasOneOutcome(t *testing.T) {
	schema := testSchema()
	records := []models.TargetRecord{
		record("A", "2025-05-29", 10, "ACOES"),
		record("A", "2025-05-29", 10, "ACOES"),
		record("B", "2025-05-29", 10, "X"),
		record("C", "2025-05-29", 10, ""),
	}

	accepted, rejected := ValidateBatch(schema, records)
	if len(accepted)+len(rejected) != len(records) {
		t.Fatalf("expected %d outcomes, got %d", len(records), len(accepted)+len(rejected))
	}
}
