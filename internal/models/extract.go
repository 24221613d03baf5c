package models

import "fmt"

// ExtractType identifies one of the fund extract feeds delivered by the
// custodian: the daily holdings snapshot, the daily profitability report,
// or the cash-account statement.
type ExtractType string

const (
	ExtractPortfolio     ExtractType = "portfolio"
	ExtractProfitability ExtractType = "profitability"
	ExtractStatement     ExtractType = "statement"
)

// AllExtractTypes lists every extract type in report order.
var AllExtractTypes = []ExtractType{ExtractPortfolio, ExtractProfitability, ExtractStatement}

// ParseExtractType converts a string to an ExtractType
func ParseExtractType(s string) (ExtractType, error) {
	switch ExtractType(s) {
	case ExtractPortfolio, ExtractProfitability, ExtractStatement:
		return ExtractType(s), nil
	}
	return "", fmt.Errorf("unknown extract type %q", s)
}
