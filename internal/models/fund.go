package models

// FundState is the resolved status of one expected fund in one run.
type FundState string

const (
	// FundSuccess: the fund reported at least one accepted record.
	FundSuccess FundState = "success"
	// FundSkipped: the source explicitly reported no data available for
	// this fund and date. Never inferred from absence alone.
	FundSkipped FundState = "skipped"
	// FundMissing: expected but absent with no explanation.
	FundMissing FundState = "missing"
	// FundCritical: missing and flagged high-priority.
	FundCritical FundState = "critical"
)

// FundStatus is one row per fund per run, produced by the reconciler.
type FundStatus struct {
	Fund          string    `json:"fund"`
	ReferenceDate string    `json:"reference_date"`
	Records       int       `json:"records"`
	State         FundState `json:"state"`
	Note          string    `json:"note,omitempty"`
}

// Roster is the set of funds expected to report data for a reference
// date, with the subset whose absence is treated as high-priority.
type Roster struct {
	Funds    []string `json:"funds"`
	Critical []string `json:"critical"`
}

// CriticalSet returns the critical funds as a set.
func (r Roster) CriticalSet() map[string]bool {
	set := make(map[string]bool, len(r.Critical))
	for _, f := range r.Critical {
		set[f] = true
	}
	return set
}
