package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/catalise/fundingest/internal/models"
)

// RunRepository records one row per finalized run so operators can query
// run history independently of the emailed report.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new RunRepository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// InsertRunSummary stores the frozen summary, with the full document as
// jsonb for drill-down.
func (r *RunRepository) InsertRunSummary(ctx context.Context, summary *models.RunSummary) error {
	doc, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	query := `
		INSERT INTO etl_runs (status, started_at, finished_at, duration_s, files_processed, total_records, records_inserted, unique_funds, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.pool.Exec(ctx, query,
		summary.Status, summary.StartedAt, summary.FinishedAt, summary.DurationS,
		summary.FilesProcessed, summary.TotalRecords, summary.RecordsInserted, summary.UniqueFunds, doc)
	if err != nil {
		return fmt.Errorf("failed to insert run summary: %w", err)
	}
	return nil
}

// LatestRunSummary returns the most recent stored summary, or nil when no
// run has been recorded yet.
func (r *RunRepository) LatestRunSummary(ctx context.Context) (*models.RunSummary, error) {
	query := `SELECT summary FROM etl_runs ORDER BY finished_at DESC LIMIT 1`

	var doc []byte
	err := r.pool.QueryRow(ctx, query).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	var summary models.RunSummary
	if err := json.Unmarshal(doc, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &summary, nil
}
