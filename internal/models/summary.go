package models

import "time"

// Status literals follow the upstream report contract.
const (
	StatusSuccess = "SUCESSO"
	StatusFailure = "FALHA"
)

// Per-file processing statuses, as rendered in the operator report.
const (
	FileStatusSuccess = "SUCESSO"
	FileStatusNoData  = "SEM DADOS"
	FileStatusSkipped = "IGNORADO - SEM DADOS"
)

// FileResult is one per-file row in the run report.
type FileResult struct {
	File          string    `json:"file"`
	ProcessedAt   time.Time `json:"processed_at"`
	ReferenceDate string    `json:"reference_date"`
	Total         int       `json:"total"`
	Inserted      int       `json:"inserted"`
	DurationS     float64   `json:"duration_s"`
	Status        string    `json:"status"`
}

// RejectionDetail is one rejected record in the run report.
type RejectionDetail struct {
	Fund   string       `json:"fund"`
	Key    string       `json:"key"`
	Reason RejectReason `json:"reason"`
	Column string       `json:"column,omitempty"`
	Value  string       `json:"value,omitempty"`
}

// ExtractSummary aggregates one extract type across every file and fund
// processed in the run.
type ExtractSummary struct {
	Extract         ExtractType       `json:"extract_type"`
	Status          string            `json:"status"`
	Files           []FileResult      `json:"files"`
	FilesProcessed  int               `json:"files_processed"`
	TotalRecords    int               `json:"total_records"`
	RecordsInserted int               `json:"records_inserted"`
	UniqueFunds     int               `json:"unique_funds"`
	DurationS       float64           `json:"duration_s"`
	Funds           []FundStatus      `json:"funds"`
	MissingFunds    []string          `json:"missing_funds"`
	CriticalFunds   []string          `json:"critical_funds"`
	UnexpectedFunds []string          `json:"unexpected_funds"`
	Rejections      []RejectionDetail `json:"rejections"`
	Errors          []string          `json:"errors"`
}

// RunSummary is the terminal aggregate of one run: everything the
// reporting collaborator renders, with no further business logic needed.
type RunSummary struct {
	Status          string           `json:"status"`
	ReferenceDates  []string         `json:"reference_dates"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	DurationS       float64          `json:"duration_s"`
	Extracts        []ExtractSummary `json:"extracts"`
	FilesProcessed  int              `json:"files_processed"`
	TotalRecords    int              `json:"total_records"`
	RecordsInserted int              `json:"records_inserted"`
	UniqueFunds     int              `json:"unique_funds"`
	MissingFunds    []string         `json:"missing_funds"`
	CriticalFunds   []string         `json:"critical_funds"`
}
