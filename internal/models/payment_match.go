package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Match types.
const (
	MatchTypeExact     = "exact"
	MatchTypeFuzzy     = "fuzzy"
	MatchTypeBundled   = "bundled"
	MatchTypeUnmatched = "unmatched"
)

// Match lifecycle states. Confirmed and rejected are terminal for automated
// runs; only an explicit reversal reopens a confirmed match.
const (
	MatchStatusUnprocessed         = "unprocessed"
	MatchStatusAutoMatched         = "auto_matched"
	MatchStatusPendingReview       = "pending_review"
	MatchStatusManualInvestigation = "manual_investigation"
	MatchStatusConfirmed           = "confirmed"
	MatchStatusRejected            = "rejected"
)

// Suggested actions attached to review-queue items.
const (
	ActionAutoMatch            = "auto_match"
	ActionReviewVariance       = "review_variance"
	ActionReviewBundledPayment = "review_bundled_payment"
	ActionDisambiguateExact    = "disambiguate_exact_match"
	ActionManualInvestigation  = "manual_investigation_required"
)

// PaymentMatch is the engine's verdict for one bank transaction. Keyed by the
// transaction's external id so re-runs upsert instead of duplicating.
type PaymentMatch struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionExternalID string    `gorm:"uniqueIndex"`
	MatchedInvoiceIDs     datatypes.JSON
	MatchType             string `gorm:"index"`
	Confidence            float64
	VarianceCents         int64
	VariancePct           float64
	RequiresHumanReview   bool   `gorm:"index"`
	SuggestedAction       string `gorm:"index"`
	Status                string `gorm:"index"`
	Rationale             datatypes.JSON
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Terminal reports whether automated runs must leave this match untouched.
func (m *PaymentMatch) Terminal() bool {
	return m.Status == MatchStatusConfirmed || m.Status == MatchStatusRejected
}
