package aggregator

import (
	"errors"
	"testing"

	"github.com/catalise/fundingest/internal/models"
)

func okFile(name string, total, inserted int) models.FileResult {
	return models.FileResult{
		File:          name + ".json",
		ReferenceDate: "2025-05-29",
		Status:        models.FileStatusSuccess,
		Total:         total,
		Inserted:      inserted,
	}
}

func TestFinalize_PartitionsStayIsolated(t *testing.T) {
	agg := New([]models.ExtractType{models.ExtractPortfolio, models.ExtractStatement}, []string{"2025-05-29"})

	agg.RecordFileResult(models.ExtractPortfolio, okFile("A", 10, 10))
	agg.RecordFileResult(models.ExtractStatement, okFile("A", 4, 4))
	agg.RecordFundStatuses(models.ExtractPortfolio, []models.FundStatus{
		{Fund: "A", State: models.FundSuccess, Records: 10},
		{Fund: "B", State: models.FundMissing},
	}, nil)
	agg.RecordFundStatuses(models.ExtractStatement, []models.FundStatus{
		{Fund: "A", State: models.FundSuccess, Records: 4},
	}, nil)

	summary, err := agg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(summary.Extracts) != 2 {
		t.Fatalf("expected 2 extract summaries, got %d", len(summary.Extracts))
	}
	port, stmt := summary.Extracts[0], summary.Extracts[1]
	if port.Extract != models.ExtractPortfolio || stmt.Extract != models.ExtractStatement {
		t.Fatalf("extract order broken: %s, %s", port.Extract, stmt.Extract)
	}
	if port.TotalRecords != 10 || stmt.TotalRecords != 4 {
		t.Errorf("per-extract totals leaked: %d / %d", port.TotalRecords, stmt.TotalRecords)
	}
	if len(port.MissingFunds) != 1 || len(stmt.MissingFunds) != 0 {
		t.Errorf("missing funds must stay in their own partition")
	}
	if summary.TotalRecords != 14 || summary.FilesProcessed != 2 {
		t.Errorf("run totals: records=%d files=%d", summary.TotalRecords, summary.FilesProcessed)
	}
}

func TestFinalize_StatusRules(t *testing.T) {
	t.Run("no files processed fails", func(t *testing.T) {
		agg := New([]models.ExtractType{models.ExtractPortfolio}, []string{"2025-05-29"})
		summary, _ := agg.Finalize()
		if summary.Status != models.StatusFailure {
			t.Fatalf("got %s", summary.Status)
		}
	})

	t.Run("critical fund fails", func(t *testing.T) {
		agg := New([]models.ExtractType{models.ExtractPortfolio}, []string{"2025-05-29"})
		agg.RecordFileResult(models.ExtractPortfolio, okFile("A", 1, 1))
		agg.RecordFundStatuses(models.ExtractPortfolio, []models.FundStatus{
			{Fund: "A", State: models.FundSuccess, Records: 1},
			{Fund: "B", State: models.FundCritical},
		}, nil)
		summary, _ := agg.Finalize()
		if summary.Status != models.StatusFailure {
			t.Fatalf("got %s", summary.Status)
		}
		if len(summary.CriticalFunds) != 1 || summary.CriticalFunds[0] != "B" {
			t.Errorf("critical funds: %v", summary.CriticalFunds)
		}
	})

	t.Run("duplicate rejections alone still succeed", func(t *testing.T) {
		agg := New([]models.ExtractType{models.ExtractPortfolio}, []string{"2025-05-29"})
		agg.RecordFileResult(models.ExtractPortfolio, okFile("A", 2, 1))
		agg.RecordRejections(models.ExtractPortfolio, []models.RejectedRecord{
			{Outcome: models.ValidationOutcome{Reason: models.RejectDuplicate}},
		})
		summary, _ := agg.Finalize()
		if summary.Status != models.StatusSuccess {
			t.Fatalf("got %s", summary.Status)
		}
	})

	t.Run("missing required rejection fails", func(t *testing.T) {
		agg := New([]models.ExtractType{models.ExtractPortfolio}, []string{"2025-05-29"})
		agg.RecordFileResult(models.ExtractPortfolio, okFile("A", 2, 1))
		agg.RecordRejections(models.ExtractPortfolio, []models.RejectedRecord{
			{Outcome: models.ValidationOutcome{Reason: models.RejectMissingRequired, Column: "VlrCotacao"}},
		})
		summary, _ := agg.Finalize()
		if summary.Status != models.StatusFailure {
			t.Fatalf("got %s", summary.Status)
		}
	})

	t.Run("one failing extract fails the run", func(t *testing.T) {
		agg := New([]models.ExtractType{models.ExtractPortfolio, models.ExtractStatement}, []string{"2025-05-29"})
		agg.RecordFileResult(models.ExtractPortfolio, okFile("A", 1, 1))
		agg.RecordError(models.ExtractStatement, "read failed")
		agg.RecordFileResult(models.ExtractStatement, okFile("A", 1, 1))
		summary, _ := agg.Finalize()
		if summary.Extracts[0].Status != models.StatusSuccess {
			t.Errorf("portfolio should stand on its own")
		}
		if summary.Status != models.StatusFailure {
			t.Fatalf("got %s", summary.Status)
		}
	})
}

func TestFinalize_SecondCallReturnsSameSummary(t *testing.T) {
	agg := New([]models.ExtractType{models.ExtractPortfolio}, []string{"2025-05-29"})
	agg.RecordFileResult(models.ExtractPortfolio, okFile("A", 1, 1))

	first, err := agg.Finalize()
	if err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	second, err := agg.Finalize()
	if !errors.Is(err, ErrFinalized) {
		t.Fatalf("expected ErrFinalized, got %v", err)
	}
	if first != second {
		t.Errorf("second Finalize must return the frozen summary")
	}
}

func TestRecordAfterFinalizeIsIgnored(t *testing.T) {
	agg := New([]models.ExtractType{models.ExtractPortfolio}, []string{"2025-05-29"})
	agg.RecordFileResult(models.ExtractPortfolio, okFile("A", 1, 1))
	summary, _ := agg.Finalize()

	agg.RecordFileResult(models.ExtractPortfolio, okFile("B", 5, 5))
	agg.RecordError(models.ExtractPortfolio, "late error")

	if summary.FilesProcessed != 1 || summary.Status != models.StatusSuccess {
		t.Fatalf("frozen summary mutated: files=%d status=%s", summary.FilesProcessed, summary.Status)
	}
}

func TestUniqueFundsCountsUnexpected(t *testing.T) {
	agg := New([]models.ExtractType{models.ExtractPortfolio}, []string{"2025-05-29"})
	agg.RecordFileResult(models.ExtractPortfolio, okFile("A", 3, 3))
	agg.RecordFundStatuses(models.ExtractPortfolio, []models.FundStatus{
		{Fund: "A", State: models.FundSuccess, Records: 2},
	}, []string{"Z", "Z"})

	summary, _ := agg.Finalize()
	if summary.UniqueFunds != 2 {
		t.Fatalf("expected A and Z counted once each, got %d", summary.UniqueFunds)
	}
	if es := summary.Extracts[0]; len(es.UnexpectedFunds) != 1 {
		t.Errorf("unexpected funds must be deduplicated: %v", es.UnexpectedFunds)
	}
}
