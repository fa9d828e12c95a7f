package matching

import (
	"fmt"

	"deposit-reconciliation-engine/internal/config"
	"deposit-reconciliation-engine/internal/models"
)

// Engine runs the strategy chain over a transaction's candidate pool. The
// chain stops at the first strategy that yields a result; when none does, the
// transaction is routed to manual investigation as a normal outcome.
type Engine struct {
	cfg        config.MatchingConfig
	strategies []Strategy
}

func NewEngine(cfg config.MatchingConfig) *Engine {
	return &Engine{
		cfg: cfg,
		strategies: []Strategy{
			NewExactStrategy(cfg),
			NewFuzzyStrategy(cfg),
			NewBundledStrategy(cfg),
		},
	}
}

// Match filters the open invoices into a candidate pool and tries each
// strategy in priority order.
func (e *Engine) Match(tx *models.BankTransaction, openInvoices []models.Invoice) (*Match, error) {
	candidates := BuildCandidates(tx, openInvoices, e.cfg)

	for _, s := range e.strategies {
		m, err := s.Attempt(tx, candidates)
		if err != nil {
			return nil, fmt.Errorf("%s strategy: %w", s.Name(), err)
		}
		if m != nil {
			return m, nil
		}
	}

	return e.unmatched(tx, len(candidates)), nil
}

func (e *Engine) unmatched(tx *models.BankTransaction, candidateCount int) *Match {
	return &Match{
		Type:                models.MatchTypeUnmatched,
		Confidence:          e.cfg.ConfidenceManualReview,
		VarianceCents:       tx.GrossAmountCents,
		VariancePct:         1.0,
		RequiresHumanReview: true,
		SuggestedAction:     models.ActionManualInvestigation,
		Rationale: map[string]any{
			"strategy":        models.MatchTypeUnmatched,
			"candidate_count": candidateCount,
		},
	}
}

// StatusFor maps a strategy verdict onto the match lifecycle state the
// persister records for a fresh run.
func (e *Engine) StatusFor(m *Match) string {
	switch {
	case m.Type == models.MatchTypeUnmatched:
		return models.MatchStatusManualInvestigation
	case m.RequiresHumanReview:
		return models.MatchStatusPendingReview
	default:
		return models.MatchStatusAutoMatched
	}
}
