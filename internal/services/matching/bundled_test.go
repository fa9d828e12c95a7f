package matching

import (
	"testing"

	"deposit-reconciliation-engine/internal/config"
	"deposit-reconciliation-engine/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(number string, amountCents int64, days int) Candidate {
	return Candidate{
		Invoice:         makeInvoice(number, amountCents, baseDate.AddDate(0, 0, days)),
		DaysFromPayment: days,
	}
}

func matchedIDs(m *Match) []uuid.UUID { return m.InvoiceIDs }

func TestBundledStrategy_DisclosedFeeScenario(t *testing.T) {
	// Deposit $19,700.00 with a disclosed $300 fee settles the $12,000 and
	// $8,000 invoices; the $7,000 decoy stays out.
	cfg := config.DefaultMatchingConfig()
	strategy := NewBundledStrategy(cfg)

	fee := int64(30000)
	tx := makeTx(1970000, baseDate)
	tx.FeeCents = &fee

	a := candidate("INV-12K", 1200000, 5)
	b := candidate("INV-8K", 800000, 10)
	decoy := candidate("INV-7K", 700000, 3)

	m, err := strategy.Attempt(tx, []Candidate{a, b, decoy})

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.MatchTypeBundled, m.Type)
	assert.ElementsMatch(t, []uuid.UUID{a.Invoice.ID, b.Invoice.ID}, matchedIDs(m))
	assert.NotContains(t, matchedIDs(m), decoy.Invoice.ID)
	// The $300 fee is exactly the gap between the invoice total and the
	// deposit, so confidence is HIGH.
	assert.Equal(t, cfg.ConfidenceHigh, m.Confidence)
	assert.Equal(t, int64(-30000), m.VarianceCents)
	assert.False(t, m.RequiresHumanReview)
	assert.Equal(t, models.ActionAutoMatch, m.SuggestedAction)
	assert.Equal(t, "disclosed", m.Rationale["fee_source"])
	assert.Equal(t, 2, m.Rationale["combo_size"])
}

func TestBundledStrategy_ExactSubsetNoFee(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	strategy := NewBundledStrategy(cfg)

	tx := makeTx(150000, baseDate)

	a := candidate("INV-1000", 100000, 2)
	b := candidate("INV-500", 50000, 4)
	decoy1 := candidate("INV-D1", 40000, 1)
	decoy2 := candidate("INV-D2", 70000, 6)

	m, err := strategy.Attempt(tx, []Candidate{a, b, decoy1, decoy2})

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.ElementsMatch(t, []uuid.UUID{a.Invoice.ID, b.Invoice.ID}, matchedIDs(m))
	assert.Equal(t, int64(0), m.VarianceCents)
	assert.Equal(t, cfg.ConfidenceHigh, m.Confidence)
}

func TestBundledStrategy_EstimatedFee(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	strategy := NewBundledStrategy(cfg)

	// Invoices total $5,000.00; a 2.9% + $0.30 processor fee is $145.30,
	// leaving a $4,854.70 deposit. No fee disclosed.
	tx := makeTx(485470, baseDate)

	a := candidate("INV-A", 300000, 1)
	b := candidate("INV-B", 200000, 2)

	m, err := strategy.Attempt(tx, []Candidate{a, b})

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, cfg.ConfidenceHigh, m.Confidence)
	assert.Equal(t, "estimated", m.Rationale["fee_source"])
	assert.Equal(t, int64(14530), m.Rationale["fee_cents"])
}

func TestBundledStrategy_MediumConfidenceGoesToReview(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	strategy := NewBundledStrategy(cfg)

	// Deposit sits $10.00 under the invoice total: far from the estimated
	// fee band but within 5% of gross, so MEDIUM confidence and review.
	tx := makeTx(99000, baseDate)

	a := candidate("INV-A", 60000, 1)
	b := candidate("INV-B", 40000, 2)

	m, err := strategy.Attempt(tx, []Candidate{a, b})

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, cfg.ConfidenceMedium, m.Confidence)
	assert.True(t, m.RequiresHumanReview)
	assert.Equal(t, models.ActionReviewBundledPayment, m.SuggestedAction)
}

func TestBundledStrategy_NoCombinationInBand(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	strategy := NewBundledStrategy(cfg)

	tx := makeTx(1000000, baseDate)

	m, err := strategy.Attempt(tx, []Candidate{
		candidate("INV-A", 100000, 1),
		candidate("INV-B", 200000, 2),
		candidate("INV-C", 300000, 3),
	})

	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestBundledStrategy_SingleCandidateIsNotABundle(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	strategy := NewBundledStrategy(cfg)

	tx := makeTx(100000, baseDate)
	m, err := strategy.Attempt(tx, []Candidate{candidate("INV-A", 100000, 1)})

	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestBundledStrategy_TieBreakPrefersFewerInvoices(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	strategy := NewBundledStrategy(cfg)

	tx := makeTx(100000, baseDate)

	a := candidate("INV-A", 50000, 1)
	b := candidate("INV-B", 50000, 1)
	c := candidate("INV-C", 30000, 1)
	d := candidate("INV-D", 30000, 1)
	e := candidate("INV-E", 40000, 1)

	m, err := strategy.Attempt(tx, []Candidate{a, b, c, d, e})

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.ElementsMatch(t, []uuid.UUID{a.Invoice.ID, b.Invoice.ID}, matchedIDs(m))
}

func TestBundledStrategy_TieBreakPrefersCloserDates(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	strategy := NewBundledStrategy(cfg)

	tx := makeTx(100000, baseDate)

	nearA := candidate("INV-NEAR-A", 60000, 0)
	nearB := candidate("INV-NEAR-B", 40000, 0)
	farA := candidate("INV-FAR-A", 70000, 10)
	farB := candidate("INV-FAR-B", 30000, 10)

	m, err := strategy.Attempt(tx, []Candidate{farA, farB, nearA, nearB})

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.ElementsMatch(t, []uuid.UUID{nearA.Invoice.ID, nearB.Invoice.ID}, matchedIDs(m))
}

func TestBundledStrategy_RationaleIsAuditable(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	strategy := NewBundledStrategy(cfg)

	fee := int64(30000)
	tx := makeTx(1970000, baseDate)
	tx.FeeCents = &fee

	m, err := strategy.Attempt(tx, []Candidate{
		candidate("INV-12K", 1200000, 5),
		candidate("INV-8K", 800000, 10),
	})

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(2000000), m.Rationale["combo_total_cents"])
	assert.Equal(t, int64(-30000), m.Rationale["variance_cents"])
	assert.Equal(t, int64(30000), m.Rationale["fee_cents"])
	assert.InDelta(t, 7.5, m.Rationale["avg_days_from_payment"].(float64), 0.0001)
	assert.Len(t, m.Rationale["tie_break"], 3)
}
