package models

// RejectReason classifies why a record was rejected during validation.
type RejectReason string

const (
	RejectMissingRequired RejectReason = "missing_required"
	RejectInvalidEnum     RejectReason = "invalid_enum"
	RejectDuplicate       RejectReason = "duplicate"
)

// ValidationOutcome tags a rejected record with its reason and, when
// applicable, the offending column and value.
type ValidationOutcome struct {
	Reason RejectReason `json:"reason"`
	Column string       `json:"column,omitempty"`
	Value  string       `json:"value,omitempty"`
}

// RejectedRecord pairs a record with the outcome that rejected it. The
// record may be partially mapped when rejection happened during mapping.
type RejectedRecord struct {
	Record  TargetRecord      `json:"record"`
	Outcome ValidationOutcome `json:"outcome"`
}
