package matching

import (
	"math"
	"sort"

	"deposit-reconciliation-engine/internal/config"
	"deposit-reconciliation-engine/internal/models"
)

// BuildCandidates narrows the tenant's open invoices to the bounded pool the
// strategies search. Paid invoices, invoices outside the date window and
// invoices larger than the deposit (plus tolerance) are dropped; when the
// transaction carries a customer hint and at least one candidate shares it,
// the pool narrows to that customer. The result is sorted by date proximity
// and capped to keep the bundle search bounded.
func BuildCandidates(tx *models.BankTransaction, invoices []models.Invoice, cfg config.MatchingConfig) []Candidate {
	ceiling := int64(math.Floor(float64(tx.GrossAmountCents) * (1 + cfg.FuzzyTolerance)))

	var pool []Candidate
	for _, inv := range invoices {
		if inv.Status == models.InvoiceStatusPaid {
			continue
		}
		dayDiff := math.Abs(inv.BestKnownDate().Sub(tx.TransactionDate).Hours()) / 24
		if dayDiff > float64(cfg.MaxDateVarianceDays) {
			continue
		}
		if inv.AmountCents > ceiling {
			continue
		}
		pool = append(pool, Candidate{Invoice: inv, DaysFromPayment: int(dayDiff)})
	}

	if tx.CustomerHint != "" {
		var sameCustomer []Candidate
		for _, c := range pool {
			if c.Invoice.CustomerID == tx.CustomerHint {
				sameCustomer = append(sameCustomer, c)
			}
		}
		// Never narrow to an empty pool.
		if len(sameCustomer) > 0 {
			pool = sameCustomer
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].DaysFromPayment < pool[j].DaysFromPayment
	})

	if len(pool) > cfg.MaxBundleCandidates {
		pool = pool[:cfg.MaxBundleCandidates]
	}
	return pool
}
