package matching

import (
	"math"
	"sort"

	"deposit-reconciliation-engine/internal/config"
	"deposit-reconciliation-engine/internal/models"

	"github.com/google/uuid"
)

// FuzzyStrategy accepts a single candidate whose amount is within the fuzzy
// tolerance of the deposit, scored on amount closeness and timing.
type FuzzyStrategy struct {
	cfg config.MatchingConfig
}

func NewFuzzyStrategy(cfg config.MatchingConfig) *FuzzyStrategy {
	return &FuzzyStrategy{cfg: cfg}
}

func (s *FuzzyStrategy) Name() string { return models.MatchTypeFuzzy }

type fuzzyScore struct {
	candidate   Candidate
	variancePct float64
	amountScore float64
	timingScore float64
	confidence  float64
}

func (s *FuzzyStrategy) Attempt(tx *models.BankTransaction, candidates []Candidate) (*Match, error) {
	var scored []fuzzyScore
	for _, c := range candidates {
		invoiceAmount := float64(c.Invoice.AmountCents)
		if invoiceAmount == 0 {
			continue
		}
		variancePct := math.Abs(invoiceAmount-float64(tx.GrossAmountCents)) / invoiceAmount
		if variancePct > s.cfg.FuzzyTolerance {
			continue
		}

		amountScore := 1 - variancePct
		timingScore := timingScoreForDays(c.DaysFromPayment)
		confidence := 0.7*amountScore + 0.3*timingScore
		if confidence < s.cfg.ConfidenceLow {
			continue
		}

		scored = append(scored, fuzzyScore{
			candidate:   c,
			variancePct: variancePct,
			amountScore: amountScore,
			timingScore: timingScore,
			confidence:  confidence,
		})
	}

	if len(scored) == 0 {
		return nil, nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].confidence > scored[j].confidence
	})

	best := scored[0]
	if best.confidence < s.cfg.ConfidenceMedium {
		return nil, nil
	}

	match := &Match{
		Type:            models.MatchTypeFuzzy,
		InvoiceIDs:      []uuid.UUID{best.candidate.Invoice.ID},
		Confidence:      best.confidence,
		VarianceCents:   tx.GrossAmountCents - best.candidate.Invoice.AmountCents,
		VariancePct:     best.variancePct,
		SuggestedAction: models.ActionAutoMatch,
		Rationale: map[string]any{
			"strategy":          models.MatchTypeFuzzy,
			"invoice_number":    best.candidate.Invoice.InvoiceNumber,
			"amount_score":      best.amountScore,
			"timing_score":      best.timingScore,
			"variance_pct":      best.variancePct,
			"days_from_payment": best.candidate.DaysFromPayment,
			"candidate_count":   len(scored),
		},
	}

	// A large percentage gap deserves eyes even at acceptable confidence.
	if best.variancePct > s.cfg.ReviewVariancePct {
		match.RequiresHumanReview = true
		match.SuggestedAction = models.ActionReviewVariance
	}

	return match, nil
}

func timingScoreForDays(days int) float64 {
	switch {
	case days == 0:
		return 1.0
	case days <= 7:
		return 0.9
	case days <= 30:
		return 0.7
	default:
		return 0.3
	}
}
