package matching

import (
	"math"
	"sort"

	"deposit-reconciliation-engine/internal/config"
	"deposit-reconciliation-engine/internal/models"

	"github.com/google/uuid"
)

// BundledStrategy explains a lump deposit as the sum of several invoices
// minus a processor fee. It runs a bounded subset-sum dynamic program over the
// capped candidate pool, then scores the winning subset with a fee-aware
// confidence model.
type BundledStrategy struct {
	cfg config.MatchingConfig
}

func NewBundledStrategy(cfg config.MatchingConfig) *BundledStrategy {
	return &BundledStrategy{cfg: cfg}
}

func (s *BundledStrategy) Name() string { return models.MatchTypeBundled }

// maxReachableSums caps the DP state count. The candidate cap keeps this out
// of reach in practice; if a pathological pool still explodes, the search
// degrades to a greedy pass instead of an unbounded DP.
const maxReachableSums = 200000

// combo is the preferred way to reach one achievable sum: fewest invoices,
// then lowest total days-from-payment.
type combo struct {
	indices []int
	sumDays int
}

func (s *BundledStrategy) Attempt(tx *models.BankTransaction, candidates []Candidate) (*Match, error) {
	// A bundle needs at least two invoices; single-invoice explanations
	// belong to the exact and fuzzy strategies.
	if len(candidates) < 2 {
		return nil, nil
	}

	target := tx.GrossAmountCents
	lowBound := int64(math.Ceil(float64(target) * (1 - s.cfg.FuzzyTolerance)))
	highBound := int64(math.Floor(float64(target) * (1 + s.cfg.FuzzyTolerance)))

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Invoice.AmountCents > sorted[j].Invoice.AmountCents
	})

	sums := s.search(sorted, highBound)
	best, bestSum, found := selectBundle(sums, target, lowBound, highBound)
	if !found {
		return nil, nil
	}

	variance := target - bestSum
	// The deposit is net of the fee, so the withheld amount shows up as the
	// shortfall between the invoice total and the deposit.
	shortfall := bestSum - target

	conf, feeSource, feeCents := s.score(tx, bestSum, variance, shortfall)
	if conf < s.cfg.ConfidenceMedium {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(best.indices))
	numbers := make([]string, len(best.indices))
	for i, idx := range best.indices {
		ids[i] = sorted[idx].Invoice.ID
		numbers[i] = sorted[idx].Invoice.InvoiceNumber
	}
	avgDays := float64(best.sumDays) / float64(len(best.indices))

	match := &Match{
		Type:            models.MatchTypeBundled,
		InvoiceIDs:      ids,
		Confidence:      conf,
		VarianceCents:   variance,
		VariancePct:     math.Abs(float64(variance)) / float64(target),
		SuggestedAction: models.ActionAutoMatch,
		Rationale: map[string]any{
			"strategy":              models.MatchTypeBundled,
			"invoice_numbers":       numbers,
			"combo_total_cents":     bestSum,
			"variance_cents":        variance,
			"fee_source":            feeSource,
			"fee_cents":             feeCents,
			"combo_size":            len(best.indices),
			"avg_days_from_payment": avgDays,
			"tie_break":             []any{len(best.indices), avgDays, abs64(variance)},
		},
	}

	if conf < s.cfg.AutoMatchThreshold {
		match.RequiresHumanReview = true
		match.SuggestedAction = models.ActionReviewBundledPayment
	}

	return match, nil
}

// search runs the subset-sum DP in descending-amount order, pruning sums above
// the tolerance band's ceiling. For each achievable sum it keeps the simplest
// explanation: fewer invoices, then lower total days-from-payment.
func (s *BundledStrategy) search(sorted []Candidate, highBound int64) map[int64]combo {
	sums := map[int64]combo{0: {}}

	for i, c := range sorted {
		amount := c.Invoice.AmountCents
		if amount <= 0 {
			continue
		}

		existing := make([]int64, 0, len(sums))
		for sum := range sums {
			existing = append(existing, sum)
		}
		for _, sum := range existing {
			next := sum + amount
			if next > highBound {
				continue
			}
			base := sums[sum]
			candidate := combo{
				indices: append(append([]int(nil), base.indices...), i),
				sumDays: base.sumDays + c.DaysFromPayment,
			}
			if current, ok := sums[next]; !ok || simpler(candidate, current) {
				sums[next] = candidate
			}
		}

		if len(sums) > maxReachableSums {
			return s.greedy(sorted, highBound)
		}
	}
	return sums
}

// greedy is the fallback when the DP state count explodes: take invoices in
// descending-amount order while they still fit under the ceiling.
func (s *BundledStrategy) greedy(sorted []Candidate, highBound int64) map[int64]combo {
	var total int64
	var picked combo
	for i, c := range sorted {
		if total+c.Invoice.AmountCents > highBound {
			continue
		}
		total += c.Invoice.AmountCents
		picked.indices = append(picked.indices, i)
		picked.sumDays += c.DaysFromPayment
	}
	return map[int64]combo{total: picked}
}

func simpler(a, b combo) bool {
	if len(a.indices) != len(b.indices) {
		return len(a.indices) < len(b.indices)
	}
	return a.sumDays < b.sumDays
}

// selectBundle scans the achievable sums inside the tolerance band and picks
// the one with the smallest absolute variance from the target; ties fall to
// fewer invoices, then lower average days-from-payment, then the sum at or
// below the target.
func selectBundle(sums map[int64]combo, target, lowBound, highBound int64) (combo, int64, bool) {
	var best combo
	var bestSum int64
	found := false

	for sum, cb := range sums {
		if sum < lowBound || sum > highBound || len(cb.indices) < 2 {
			continue
		}
		if !found || bundleLess(sum, cb, bestSum, best, target) {
			best = cb
			bestSum = sum
			found = true
		}
	}
	return best, bestSum, found
}

func bundleLess(aSum int64, a combo, bSum int64, b combo, target int64) bool {
	av, bv := abs64(target-aSum), abs64(target-bSum)
	if av != bv {
		return av < bv
	}
	if len(a.indices) != len(b.indices) {
		return len(a.indices) < len(b.indices)
	}
	// Compare average days without dividing: sumDays/count cross-multiplied.
	ad := a.sumDays * len(b.indices)
	bd := b.sumDays * len(a.indices)
	if ad != bd {
		return ad < bd
	}
	return aSum <= target && bSum > target
}

// score computes the fee-aware confidence for a bundle. variance is
// gross − combo total (signed); shortfall is its negation, the amount a
// processor would have withheld.
func (s *BundledStrategy) score(tx *models.BankTransaction, comboTotal, variance, shortfall int64) (conf float64, feeSource string, feeCents int64) {
	if abs64(variance) <= 1 {
		return s.cfg.ConfidenceHigh, "none", 0
	}

	if tx.FeeDisclosed() {
		fee := *tx.FeeCents
		dev := abs64(shortfall - fee)
		if dev <= s.cfg.FeeSlackCents {
			return s.cfg.ConfidenceHigh, "disclosed", fee
		}
		// Degrade proportionally to how far the gap sits from the disclosed
		// fee, with a $1.00 floor on the denominator and LOW as the floor.
		ratio := math.Min(float64(dev)/math.Max(float64(fee), 100), 1)
		conf = s.cfg.ConfidenceHigh - (s.cfg.ConfidenceHigh-s.cfg.ConfidenceLow)*ratio
		return conf, "disclosed", fee
	}

	expected := int64(math.Round(float64(comboTotal)*s.cfg.EstimatedFeeRate)) + s.cfg.EstimatedFeeBaseCents
	dev := abs64(shortfall - expected)
	switch {
	case dev <= s.cfg.FeeSlackCents:
		conf = s.cfg.ConfidenceHigh
	case dev <= s.cfg.FeeWideSlackCents:
		span := float64(s.cfg.FeeWideSlackCents - s.cfg.FeeSlackCents)
		frac := float64(dev-s.cfg.FeeSlackCents) / span
		conf = s.cfg.ConfidenceHigh - (s.cfg.ConfidenceHigh-s.cfg.ConfidenceMedium)*frac
	case abs64(variance) <= int64(0.05*float64(tx.GrossAmountCents)):
		conf = s.cfg.ConfidenceMedium
	default:
		conf = s.cfg.ConfidenceLow
	}
	return conf, "estimated", expected
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
