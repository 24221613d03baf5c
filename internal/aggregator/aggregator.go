// Package aggregator owns the mutable state of one run. Components report
// results into it by value; nothing else holds a reference into the
// summary until Finalize freezes it.
package aggregator

import (
	"errors"
	"sync"
	"time"

	"github.com/catalise/fundingest/internal/models"
)

// ErrFinalized is returned when Finalize is called a second time.
var ErrFinalized = errors.New("run summary already finalized")

// RunAggregator accumulates per-file and per-fund statistics across every
// extract type of one run. Partitions are kept per extract type and
// merged only at Finalize, so parallel workers that each own their own
// extract type never contend on aggregate state.
type RunAggregator struct {
	mu        sync.Mutex
	startedAt time.Time
	dates     []string
	order     []models.ExtractType
	parts     map[models.ExtractType]*partition
	frozen    *models.RunSummary
}

type partition struct {
	files      []models.FileResult
	funds      []models.FundStatus
	unexpected []string
	rejections []models.RejectionDetail
	errors     []string
}

// New creates an aggregator for one run covering the given extract types
// and reference dates.
func New(extracts []models.ExtractType, dates []string) *RunAggregator {
	agg := &RunAggregator{
		startedAt: time.Now(),
		dates:     dates,
		order:     extracts,
		parts:     make(map[models.ExtractType]*partition, len(extracts)),
	}
	for _, e := range extracts {
		agg.parts[e] = &partition{}
	}
	return agg
}

func (a *RunAggregator) part(extract models.ExtractType) *partition {
	p, ok := a.parts[extract]
	if !ok {
		p = &partition{}
		a.parts[extract] = p
		a.order = append(a.order, extract)
	}
	return p
}

// RecordFileResult adds one per-file row to the extract's partition.
func (a *RunAggregator) RecordFileResult(extract models.ExtractType, result models.FileResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.frozen != nil {
		return
	}
	a.part(extract).files = append(a.part(extract).files, result)
}

// RecordFundStatuses adds the reconciler's output for one reference date,
// plus any funds observed outside the expected roster.
func (a *RunAggregator) RecordFundStatuses(extract models.ExtractType, statuses []models.FundStatus, unexpected []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.frozen != nil {
		return
	}
	p := a.part(extract)
	p.funds = append(p.funds, statuses...)
	p.unexpected = append(p.unexpected, unexpected...)
}

// RecordRejections adds rejected records with their outcomes.
func (a *RunAggregator) RecordRejections(extract models.ExtractType, rejected []models.RejectedRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.frozen != nil {
		return
	}
	p := a.part(extract)
	for _, r := range rejected {
		p.rejections = append(p.rejections, models.RejectionDetail{
			Fund:   r.Record.Fund,
			Key:    r.Record.Key,
			Reason: r.Outcome.Reason,
			Column: r.Outcome.Column,
			Value:  r.Outcome.Value,
		})
	}
}

// RecordError adds a pipeline-level error message for the extract type.
func (a *RunAggregator) RecordError(extract models.ExtractType, msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.frozen != nil {
		return
	}
	p := a.part(extract)
	p.errors = append(p.errors, msg)
}

// Finalize merges every partition into one frozen RunSummary. The first
// call freezes; a second call returns the same summary and ErrFinalized.
// A partial run (cooperative cancellation) still finalizes consistently:
// the summary reflects exactly what was recorded.
func (a *RunAggregator) Finalize() (*models.RunSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen != nil {
		return a.frozen, ErrFinalized
	}

	finished := time.Now()
	summary := &models.RunSummary{
		ReferenceDates: a.dates,
		StartedAt:      a.startedAt,
		FinishedAt:     finished,
		DurationS:      round3(finished.Sub(a.startedAt).Seconds()),
		Status:         models.StatusSuccess,
	}

	overallFunds := make(map[string]bool)
	for _, extract := range a.order {
		es := a.summarize(extract)
		summary.Extracts = append(summary.Extracts, es)

		summary.FilesProcessed += es.FilesProcessed
		summary.TotalRecords += es.TotalRecords
		summary.RecordsInserted += es.RecordsInserted
		summary.MissingFunds = appendUnique(summary.MissingFunds, es.MissingFunds)
		summary.CriticalFunds = appendUnique(summary.CriticalFunds, es.CriticalFunds)
		for _, f := range es.Funds {
			if f.State == models.FundSuccess {
				overallFunds[f.Fund] = true
			}
		}
		for _, f := range es.UnexpectedFunds {
			overallFunds[f] = true
		}
		if es.Status != models.StatusSuccess {
			summary.Status = models.StatusFailure
		}
	}
	summary.UniqueFunds = len(overallFunds)

	a.frozen = summary
	return summary, nil
}

// summarize builds the ExtractSummary for one partition. Caller holds the
// lock.
func (a *RunAggregator) summarize(extract models.ExtractType) models.ExtractSummary {
	p := a.parts[extract]
	es := models.ExtractSummary{
		Extract:    extract,
		Status:     models.StatusSuccess,
		Files:      p.files,
		Funds:      p.funds,
		Rejections: p.rejections,
		Errors:     p.errors,
	}

	for _, f := range p.files {
		es.FilesProcessed++
		es.TotalRecords += f.Total
		es.RecordsInserted += f.Inserted
		es.DurationS += f.DurationS
	}
	es.DurationS = round3(es.DurationS)

	funds := make(map[string]bool)
	for _, f := range p.funds {
		switch f.State {
		case models.FundSuccess:
			funds[f.Fund] = true
		case models.FundMissing:
			es.MissingFunds = appendUnique(es.MissingFunds, []string{f.Fund})
		case models.FundCritical:
			es.CriticalFunds = appendUnique(es.CriticalFunds, []string{f.Fund})
		}
	}
	es.UnexpectedFunds = appendUnique(nil, p.unexpected)
	for _, f := range es.UnexpectedFunds {
		funds[f] = true
	}
	es.UniqueFunds = len(funds)

	// An extract type fails when it processed no files at all, hit a
	// pipeline error, kept an unrecovered rejection, or lost a critical
	// fund. Skipped and missing (non-critical) funds and duplicate
	// suppression do not flip the status.
	switch {
	case es.FilesProcessed == 0:
		es.Status = models.StatusFailure
	case len(es.Errors) > 0:
		es.Status = models.StatusFailure
	case len(es.CriticalFunds) > 0:
		es.Status = models.StatusFailure
	default:
		for _, r := range es.Rejections {
			if r.Reason == models.RejectMissingRequired || r.Reason == models.RejectInvalidEnum {
				es.Status = models.StatusFailure
				break
			}
		}
	}
	return es
}

func appendUnique(dst []string, src []string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}
