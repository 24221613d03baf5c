// Package reconciler classifies each expected fund against what a run
// actually produced. It is schema-agnostic: the same logic serves all
// three extract types, each with its own roster and critical set.
package reconciler

import (
	"sort"

	"github.com/catalise/fundingest/internal/models"
)

// Reconcile resolves every fund in the expected roster to exactly one
// status. observed maps fund → accepted record count; skipped holds funds
// the source explicitly reported "no data" for (the upstream skip signal,
// never inferred from absence); critical flags funds whose unexplained
// absence is high-priority.
//
// Output order follows roster order so reports are stable across runs.
// Funds observed but not in the roster come back separately as unexpected
// (informational, sorted).
func Reconcile(roster []string, observed map[string]int, skipped map[string]bool, critical map[string]bool, referenceDate string) ([]models.FundStatus, []string) {
	statuses := make([]models.FundStatus, 0, len(roster))
	expected := make(map[string]bool, len(roster))

	for _, fund := range roster {
		expected[fund] = true
		status := models.FundStatus{Fund: fund, ReferenceDate: referenceDate}

		switch {
		case observed[fund] > 0:
			status.State = models.FundSuccess
			status.Records = observed[fund]
		case skipped[fund]:
			status.State = models.FundSkipped
			status.Note = "source reported no data available"
		case critical[fund]:
			status.State = models.FundCritical
			status.Note = "high-priority fund absent with no explanation"
		default:
			status.State = models.FundMissing
		}
		statuses = append(statuses, status)
	}

	var unexpected []string
	for fund := range observed {
		if !expected[fund] {
			unexpected = append(unexpected, fund)
		}
	}
	sort.Strings(unexpected)

	return statuses, unexpected
}
