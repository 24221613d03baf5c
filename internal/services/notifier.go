package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/catalise/fundingest/internal/models"
)

// Notifier receives the overall status and the frozen summary after every
// run. Outbound delivery (email, chat) lives behind this seam; the engine
// itself sends nothing.
type Notifier interface {
	Notify(ctx context.Context, status string, summary *models.RunSummary) error
}

// LogNotifier is the default Notifier: it writes the run outcome to the
// service log.
type LogNotifier struct{}

// Notify logs the summary headline.
func (LogNotifier) Notify(_ context.Context, status string, summary *models.RunSummary) error {
	entry := log.WithFields(log.Fields{
		"status":           status,
		"files_processed":  summary.FilesProcessed,
		"records_inserted": summary.RecordsInserted,
		"unique_funds":     summary.UniqueFunds,
		"duration_s":       summary.DurationS,
	})
	if status == models.StatusSuccess {
		entry.Info("run completed")
	} else {
		entry.Error("run completed with failures")
	}
	for _, f := range summary.CriticalFunds {
		log.Errorf("critical fund absent: %s", f)
	}
	return nil
}
