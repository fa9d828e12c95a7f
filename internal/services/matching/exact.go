package matching

import (
	"deposit-reconciliation-engine/internal/config"
	"deposit-reconciliation-engine/internal/models"

	"github.com/google/uuid"
)

// ExactStrategy accepts a candidate whose amount equals the deposit to the
// cent. Two simultaneous qualifiers is an ambiguous condition: cash must not
// be allocated by arbitrary selection, so the result is routed to a human
// with the tied invoice ids.
type ExactStrategy struct {
	cfg config.MatchingConfig
}

func NewExactStrategy(cfg config.MatchingConfig) *ExactStrategy {
	return &ExactStrategy{cfg: cfg}
}

func (s *ExactStrategy) Name() string { return models.MatchTypeExact }

func (s *ExactStrategy) Attempt(tx *models.BankTransaction, candidates []Candidate) (*Match, error) {
	var hits []Candidate
	for _, c := range candidates {
		if c.Invoice.AmountCents != tx.GrossAmountCents {
			continue
		}
		if c.DaysFromPayment > s.cfg.MaxDateVarianceDays {
			continue
		}
		hits = append(hits, c)
	}

	switch len(hits) {
	case 0:
		return nil, nil
	case 1:
		return &Match{
			Type:            models.MatchTypeExact,
			InvoiceIDs:      []uuid.UUID{hits[0].Invoice.ID},
			Confidence:      s.cfg.ConfidenceHigh,
			SuggestedAction: models.ActionAutoMatch,
			Rationale: map[string]any{
				"strategy":          models.MatchTypeExact,
				"invoice_number":    hits[0].Invoice.InvoiceNumber,
				"days_from_payment": hits[0].DaysFromPayment,
			},
		}, nil
	default:
		tied := make([]string, len(hits))
		for i, c := range hits {
			tied[i] = c.Invoice.ID.String()
		}
		return &Match{
			Type:                models.MatchTypeExact,
			Confidence:          s.cfg.ConfidenceManualReview,
			RequiresHumanReview: true,
			SuggestedAction:     models.ActionDisambiguateExact,
			Rationale: map[string]any{
				"strategy":           models.MatchTypeExact,
				"ambiguous":          true,
				"tied_invoice_ids":   tied,
				"tied_invoice_count": len(tied),
				"gross_amount_cents": tx.GrossAmountCents,
			},
		}, nil
	}
}
