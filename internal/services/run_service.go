package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/catalise/fundingest/internal/aggregator"
	"github.com/catalise/fundingest/internal/mapper"
	"github.com/catalise/fundingest/internal/models"
	"github.com/catalise/fundingest/internal/reconciler"
	"github.com/catalise/fundingest/internal/schema"
	"github.com/catalise/fundingest/internal/source"
	"github.com/catalise/fundingest/internal/validator"
)

// BatchSource supplies the raw extract documents for one type and date.
// The engine never initiates retrieval itself.
type BatchSource interface {
	ReadBatches(extract models.ExtractType, date string) ([]source.FileBatch, error)
}

// RecordStore persists accepted rows. Batching, retries and commit
// mechanics are its business, not the engine's.
type RecordStore interface {
	InsertBatch(ctx context.Context, schema *models.SchemaDefinition, records []models.TargetRecord) (int, error)
}

// RunStore keeps run history.
type RunStore interface {
	InsertRunSummary(ctx context.Context, summary *models.RunSummary) error
	LatestRunSummary(ctx context.Context) (*models.RunSummary, error)
}

// RunRequest selects what one run covers.
type RunRequest struct {
	Dates    []string
	Extracts []models.ExtractType
}

// RunService drives one run end to end: read, map, validate, persist,
// reconcile, aggregate, notify. Extract types are independent and run on
// parallel workers; each worker only ever touches its own aggregator
// partition.
type RunService struct {
	registry *schema.Registry
	rosters  map[models.ExtractType]models.Roster
	src      BatchSource
	records  RecordStore
	runs     RunStore
	notifier Notifier

	mu     sync.Mutex
	latest *models.RunSummary
}

// NewRunService creates a new RunService
func NewRunService(registry *schema.Registry, rosters map[models.ExtractType]models.Roster, src BatchSource, records RecordStore, runs RunStore, notifier Notifier) *RunService {
	return &RunService{
		registry: registry,
		rosters:  rosters,
		src:      src,
		records:  records,
		runs:     runs,
		notifier: notifier,
	}
}

// Execute processes one run and returns its frozen summary. Only a
// schema problem is fatal before processing; everything else is captured
// as data in the summary. Cancellation is cooperative: an interrupted run
// still finalizes with whatever was processed.
func (s *RunService) Execute(ctx context.Context, req RunRequest) (*models.RunSummary, error) {
	if len(req.Dates) == 0 {
		return nil, fmt.Errorf("run request has no reference dates")
	}
	extracts := req.Extracts
	if len(extracts) == 0 {
		extracts = models.AllExtractTypes
	}

	// Resolve every schema up front: a bad schema aborts before any
	// record is touched.
	schemas := make(map[models.ExtractType]*models.SchemaDefinition, len(extracts))
	for _, e := range extracts {
		def, err := s.registry.Get(e)
		if err != nil {
			return nil, err
		}
		schemas[e] = def
	}

	log.Infof("starting run: extracts=%v dates=%v", extracts, req.Dates)
	agg := aggregator.New(extracts, req.Dates)

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range extracts {
		e := e
		g.Go(func() error {
			return s.processExtract(gctx, agg, schemas[e], req.Dates)
		})
	}
	if err := g.Wait(); err != nil {
		// Already recorded per extract; the partial summary still counts.
		log.Warnf("run interrupted: %v", err)
	}

	summary, err := agg.Finalize()
	if err != nil {
		return nil, err
	}

	if s.runs != nil {
		if err := s.runs.InsertRunSummary(ctx, summary); err != nil {
			log.Errorf("failed to persist run summary: %v", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, summary.Status, summary); err != nil {
			log.Errorf("failed to notify: %v", err)
		}
	}

	s.mu.Lock()
	s.latest = summary
	s.mu.Unlock()

	return summary, nil
}

// processExtract runs the pipeline for one extract type across every
// reference date, sequentially and in arrival order within each file.
func (s *RunService) processExtract(ctx context.Context, agg *aggregator.RunAggregator, def *models.SchemaDefinition, dates []string) error {
	roster := s.rosters[def.Extract]
	critical := roster.CriticalSet()

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			agg.RecordError(def.Extract, fmt.Sprintf("cancelled before %s", date))
			return err
		}

		batches, err := s.src.ReadBatches(def.Extract, date)
		if err != nil {
			agg.RecordError(def.Extract, fmt.Sprintf("%s: %v", date, err))
			continue
		}

		observed := make(map[string]int)
		skipped := make(map[string]bool)

		for _, batch := range batches {
			s.processBatch(ctx, agg, def, batch, observed, skipped)
		}

		statuses, unexpected := reconciler.Reconcile(roster.Funds, observed, skipped, critical, date)
		agg.RecordFundStatuses(def.Extract, statuses, unexpected)
	}
	return nil
}

// processBatch maps, validates and persists one file's records, and
// reports its per-file row.
func (s *RunService) processBatch(ctx context.Context, agg *aggregator.RunAggregator, def *models.SchemaDefinition, batch source.FileBatch, observed map[string]int, skipped map[string]bool) {
	start := time.Now()
	result := models.FileResult{
		File:          batch.File,
		ProcessedAt:   start,
		ReferenceDate: batch.ReferenceDate,
		Total:         len(batch.Records),
	}

	if batch.Err != nil {
		result.Status = fmt.Sprintf("ERRO: %v", batch.Err)
		result.DurationS = time.Since(start).Seconds()
		agg.RecordError(def.Extract, fmt.Sprintf("%s: %v", batch.File, batch.Err))
		agg.RecordFileResult(def.Extract, result)
		return
	}

	if len(batch.Records) == 0 {
		for _, f := range batch.SkippedFunds {
			skipped[f] = true
		}
		result.Status = models.FileStatusNoData
		if len(batch.SkippedFunds) > 0 {
			result.Status = models.FileStatusSkipped
		}
		result.DurationS = time.Since(start).Seconds()
		agg.RecordFileResult(def.Extract, result)
		return
	}

	mapped := make([]models.TargetRecord, 0, len(batch.Records))
	var rejected []models.RejectedRecord
	for _, raw := range batch.Records {
		rec, merr := mapper.MapRecord(def, raw)
		if merr != nil {
			rejected = append(rejected, models.RejectedRecord{
				Record:  rec,
				Outcome: models.ValidationOutcome{Reason: models.RejectMissingRequired, Column: merr.Column, Value: merr.Reason},
			})
			continue
		}
		mapped = append(mapped, rec)
	}

	accepted, invalid := validator.ValidateBatch(def, mapped)
	rejected = append(rejected, invalid...)

	result.Status = models.FileStatusSuccess
	if len(accepted) > 0 {
		inserted, err := s.records.InsertBatch(ctx, def, accepted)
		if err != nil {
			log.Errorf("[%s] insert failed for %s: %v", def.Extract, batch.File, err)
			agg.RecordError(def.Extract, fmt.Sprintf("%s: %v", batch.File, err))
			result.Status = fmt.Sprintf("ERRO: %v", err)
		} else {
			result.Inserted = inserted
			for _, rec := range accepted {
				observed[rec.Fund]++
			}
		}
	}

	if len(rejected) > 0 {
		agg.RecordRejections(def.Extract, rejected)
		log.Warnf("[%s] %s: %d of %d records rejected", def.Extract, batch.File, len(rejected), len(batch.Records))
	}

	result.DurationS = time.Since(start).Seconds()
	agg.RecordFileResult(def.Extract, result)
}

// Latest returns the most recent frozen summary, falling back to run
// history when the service restarted since the last run.
func (s *RunService) Latest(ctx context.Context) (*models.RunSummary, error) {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()
	if latest != nil {
		return latest, nil
	}
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.LatestRunSummary(ctx)
}
