package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Uncategorized is the category every candidate starts with. Enrichment
// happens after extraction, never inside it.
const Uncategorized = "Uncategorized"

// Placeholder descriptions for rows whose source carried none.
const (
	PlaceholderDescription    = "Imported Transaction"
	PDFPlaceholderDescription = "Imported PDF Transaction"
)

// Candidate is a transaction extracted from a statement but not yet
// merged into the ledger. It is discarded after the merge; only the
// identity hash survives as the cross-import dedup key.
type Candidate struct {
	Date         time.Time
	Amount       decimal.Decimal
	Description  string
	MerchantName string
	Category     string
	Currency     string
	Identity     string
}

// NewCandidate builds a candidate from the extracted triple and stamps
// its identity hash. Date must be non-zero and amount non-zero; the
// extractors drop rows that violate either before calling this.
func NewCandidate(date time.Time, amount decimal.Decimal, description string) Candidate {
	return Candidate{
		Date:        date,
		Amount:      amount,
		Description: description,
		Category:    Uncategorized,
		Identity:    Identity(date, amount, description),
	}
}

// ExtractResult carries the candidates from one file plus row accounting.
// Skipped rows are normal for bank exports and are not errors.
type ExtractResult struct {
	Candidates  []Candidate
	TotalRows   int
	SkippedRows int
}

// cleanDescription collapses runs of whitespace to single spaces and
// trims the ends.
func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
