package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/catalise/fundingest/internal/models"
)

// Target tables, one per extract type.
var tableByExtract = map[models.ExtractType]string{
	models.ExtractPortfolio:     "ft_carteira_diaria",
	models.ExtractProfitability: "ft_rentabilidade",
	models.ExtractStatement:     "ft_extrato_conta",
}

// ExtractRepository persists accepted target rows. It neither batches nor
// retries beyond a single CopyFrom per call; cross-run duplicate
// suppression is handled here by the tables' unique keys, not by the
// engine.
type ExtractRepository struct {
	pool *pgxpool.Pool
}

// NewExtractRepository creates a new ExtractRepository
func NewExtractRepository(pool *pgxpool.Pool) *ExtractRepository {
	return &ExtractRepository{pool: pool}
}

// InsertBatch bulk-inserts the accepted records of one file into the
// extract's table using the schema's target column order. Returns the
// number of rows written.
func (r *ExtractRepository) InsertBatch(ctx context.Context, schema *models.SchemaDefinition, records []models.TargetRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	table, ok := tableByExtract[schema.Extract]
	if !ok {
		return 0, fmt.Errorf("no table configured for extract type %q", schema.Extract)
	}

	cols := schema.TargetColumns()
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(cols))
		for j, col := range cols {
			row[j] = driverValue(rec.Columns[col])
		}
		rows[i] = row
	}

	copied, err := r.pool.CopyFrom(ctx, pgx.Identifier{table}, cols, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy into %s: %w", table, err)
	}
	return int(copied), nil
}

// driverValue converts an engine value to something pgx encodes natively;
// decimals travel as their text form into numeric columns.
func driverValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t
	default:
		return v
	}
}
