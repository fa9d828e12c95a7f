// Package matching implements the payment-to-invoice matching pipeline:
// candidate filtering plus the exact, fuzzy and bundled strategies, tried in
// priority order by the Engine.
package matching

import (
	"deposit-reconciliation-engine/internal/models"

	"github.com/google/uuid"
)

// Candidate is an open invoice inside the plausible date/amount window for a
// transaction.
type Candidate struct {
	Invoice         models.Invoice
	DaysFromPayment int
}

// Match is a strategy verdict for one transaction. InvoiceIDs is empty for
// unmatched results and for ambiguous exact matches awaiting disambiguation.
type Match struct {
	Type                string
	InvoiceIDs          []uuid.UUID
	Confidence          float64
	VarianceCents       int64
	VariancePct         float64
	RequiresHumanReview bool
	SuggestedAction     string
	Rationale           map[string]any
}

// Strategy attempts to explain a transaction with the candidate invoices.
// A nil Match means the strategy has nothing to offer and the next one runs.
type Strategy interface {
	Name() string
	Attempt(tx *models.BankTransaction, candidates []Candidate) (*Match, error)
}
