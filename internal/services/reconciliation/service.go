// Package reconciliation owns the batch runner that feeds transactions
// through the matching engine and the persister that records the verdicts.
// Matching runs in parallel per transaction; persistence and invoice status
// mutation happen in a single collector goroutine so two bundles can never
// claim the same invoice concurrently.
package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"deposit-reconciliation-engine/internal/config"
	"deposit-reconciliation-engine/internal/models"
	"deposit-reconciliation-engine/internal/services/matching"

	"github.com/google/uuid"
)

const defaultWorkers = 8

type Service struct {
	cfg          config.MatchingConfig
	engine       *matching.Engine
	invoices     InvoiceStore
	transactions TransactionStore
	matches      MatchStore
	runs         RunStore
	audits       AuditStore
	workers      int
}

func NewService(
	cfg config.MatchingConfig,
	invoices InvoiceStore,
	transactions TransactionStore,
	matches MatchStore,
	runs RunStore,
	audits AuditStore,
) *Service {
	return &Service{
		cfg:          cfg,
		engine:       matching.NewEngine(cfg),
		invoices:     invoices,
		transactions: transactions,
		matches:      matches,
		runs:         runs,
		audits:       audits,
		workers:      defaultWorkers,
	}
}

type outcome struct {
	tx             *models.BankTransaction
	match          *matching.Match
	terminal       bool
	terminalStatus string
	err            error
}

// RunReconciliation processes every known transaction against the current
// open-invoice set. Failures are isolated per transaction; the run completes
// with summary counters either way.
func (s *Service) RunReconciliation(ctx context.Context) (*models.ReconciliationRun, error) {
	txs, err := s.transactions.List()
	if err != nil {
		return nil, err
	}
	openInvoices, err := s.invoices.ListOpen()
	if err != nil {
		return nil, err
	}

	run := &models.ReconciliationRun{
		ID:                uuid.New(),
		TotalTransactions: len(txs),
		Status:            "processing",
		StartedAt:         time.Now(),
		CreatedAt:         time.Now(),
	}
	if err := s.runs.Create(run); err != nil {
		return nil, err
	}

	jobs := make(chan *models.BankTransaction)
	results := make(chan outcome)

	workers := s.workers
	if workers > len(txs) {
		workers = len(txs)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tx := range jobs {
				results <- s.matchOne(tx, openInvoices)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range txs {
			select {
			case <-ctx.Done():
				return
			case jobs <- &txs[i]:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single writer: verdicts and invoice mutations are applied serially.
	// claimed tracks which transaction took each invoice during this run so
	// a later result cannot claim an invoice a bundle already settled.
	claimed := make(map[uuid.UUID]string)

	for res := range results {
		run.ProcessedCount++
		if res.err != nil {
			run.FailedCount++
			log.Printf("reconciliation: transaction %s failed: %v", res.tx.ExternalID, res.err)
			continue
		}
		if res.terminal {
			run.SkippedTerminalCount++
			log.Printf("reconciliation: match for %s is %s, skipping automated write", res.tx.ExternalID, res.terminalStatus)
			s.appendAudit(res.tx.ExternalID, models.AuditActionTerminalSkip, res.terminalStatus, res.terminalStatus, "engine", "automated re-run skipped terminal match")
			continue
		}

		m := res.match
		if s.conflicts(m, claimed, res.tx.ExternalID) {
			// Another transaction claimed part of this bundle while the
			// worker was searching a stale snapshot; re-match serially
			// against what is actually left.
			rematch, err := s.rematch(res.tx, openInvoices, claimed)
			if err != nil {
				run.FailedCount++
				log.Printf("reconciliation: re-matching %s failed: %v", res.tx.ExternalID, err)
				continue
			}
			m = rematch
		}

		status, err := s.persistMatch(res.tx, m)
		switch {
		case errors.Is(err, ErrMatchTerminal):
			run.SkippedTerminalCount++
		case err != nil:
			run.FailedCount++
			log.Printf("reconciliation: persisting match for %s failed: %v", res.tx.ExternalID, err)
		default:
			for _, id := range m.InvoiceIDs {
				claimed[id] = res.tx.ExternalID
			}
			switch status {
			case models.MatchStatusAutoMatched:
				run.AutoMatchedCount++
			case models.MatchStatusPendingReview:
				run.PendingReviewCount++
			case models.MatchStatusManualInvestigation:
				run.ManualInvestigationCount++
			}
		}
	}

	now := time.Now()
	run.Status = "completed"
	run.CompletedAt = &now
	if err := s.runs.Save(run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Service) matchOne(tx *models.BankTransaction, openInvoices []models.Invoice) outcome {
	existing, err := s.matches.GetByTransactionExternalID(tx.ExternalID)
	if err != nil {
		return outcome{tx: tx, err: err}
	}
	if existing != nil && existing.Terminal() {
		return outcome{tx: tx, terminal: true, terminalStatus: existing.Status}
	}

	universe, err := s.universeFor(tx, existing, openInvoices, nil)
	if err != nil {
		return outcome{tx: tx, err: err}
	}
	m, err := s.engine.Match(tx, universe)
	return outcome{tx: tx, match: m, err: err}
}

func (s *Service) rematch(tx *models.BankTransaction, openInvoices []models.Invoice, claimed map[uuid.UUID]string) (*matching.Match, error) {
	existing, err := s.matches.GetByTransactionExternalID(tx.ExternalID)
	if err != nil {
		return nil, err
	}
	universe, err := s.universeFor(tx, existing, openInvoices, claimed)
	if err != nil {
		return nil, err
	}
	return s.engine.Match(tx, universe)
}

// universeFor assembles the invoices a transaction may match against: the
// open set, minus invoices claimed by other transactions, plus the invoices
// this transaction's own active match already settled. The last part keeps
// re-runs over an unchanged data set idempotent — an invoice this deposit
// paid on the previous run is still a valid explanation for it.
func (s *Service) universeFor(tx *models.BankTransaction, existing *models.PaymentMatch, openInvoices []models.Invoice, claimed map[uuid.UUID]string) ([]models.Invoice, error) {
	universe := make([]models.Invoice, 0, len(openInvoices))
	seen := make(map[uuid.UUID]bool, len(openInvoices))
	for _, inv := range openInvoices {
		if owner, ok := claimed[inv.ID]; ok && owner != tx.ExternalID {
			continue
		}
		universe = append(universe, inv)
		seen[inv.ID] = true
	}

	if existing == nil || existing.Terminal() {
		return universe, nil
	}
	ids, err := matchedInvoiceIDs(existing)
	if err != nil || len(ids) == 0 {
		return universe, err
	}
	settled, err := s.invoices.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	for _, inv := range settled {
		if seen[inv.ID] {
			continue
		}
		if owner, ok := claimed[inv.ID]; ok && owner != tx.ExternalID {
			continue
		}
		inv.Status = models.InvoiceStatusOpen
		universe = append(universe, inv)
	}
	return universe, nil
}

func (s *Service) conflicts(m *matching.Match, claimed map[uuid.UUID]string, externalID string) bool {
	for _, id := range m.InvoiceIDs {
		if owner, ok := claimed[id]; ok && owner != externalID {
			return true
		}
	}
	return false
}

// persistMatch upserts the verdict and applies invoice side effects. A match
// a human already confirmed or rejected is never overwritten.
func (s *Service) persistMatch(tx *models.BankTransaction, m *matching.Match) (string, error) {
	existing, err := s.matches.GetByTransactionExternalID(tx.ExternalID)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.Terminal() {
		log.Printf("reconciliation: match for %s is %s, skipping automated write", tx.ExternalID, existing.Status)
		s.appendAudit(tx.ExternalID, models.AuditActionTerminalSkip, existing.Status, existing.Status, "engine", "automated re-run skipped terminal match")
		return existing.Status, ErrMatchTerminal
	}

	record, err := s.buildRecord(tx, m)
	if err != nil {
		return "", err
	}
	if existing != nil {
		// Keep identity stable across re-runs.
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	}

	if err := s.upsertWithRetry(record); err != nil {
		return "", err
	}

	if len(m.InvoiceIDs) > 0 {
		if err := s.applyInvoiceStatus(tx, m); err != nil {
			return "", err
		}
	}
	return record.Status, nil
}

func (s *Service) buildRecord(tx *models.BankTransaction, m *matching.Match) (*models.PaymentMatch, error) {
	ids := make([]string, len(m.InvoiceIDs))
	for i, id := range m.InvoiceIDs {
		ids[i] = id.String()
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	rationaleJSON, err := json.Marshal(m.Rationale)
	if err != nil {
		return nil, err
	}

	return &models.PaymentMatch{
		ID:                    uuid.New(),
		TransactionExternalID: tx.ExternalID,
		MatchedInvoiceIDs:     idsJSON,
		MatchType:             m.Type,
		Confidence:            m.Confidence,
		VarianceCents:         m.VarianceCents,
		VariancePct:           m.VariancePct,
		RequiresHumanReview:   m.RequiresHumanReview,
		SuggestedAction:       m.SuggestedAction,
		Status:                s.engine.StatusFor(m),
		Rationale:             rationaleJSON,
		CreatedAt:             time.Now(),
	}, nil
}

const (
	upsertAttempts = 3
	upsertBackoff  = 50 * time.Millisecond
)

func (s *Service) upsertWithRetry(record *models.PaymentMatch) error {
	var err error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		if err = s.matches.Upsert(record); err == nil {
			return nil
		}
		time.Sleep(upsertBackoff << attempt)
	}
	return err
}

// applyInvoiceStatus marks matched invoices paid, or partial when a fuzzy
// match under-covers its single invoice. PaidAt stays unset until a human
// confirms the match.
func (s *Service) applyInvoiceStatus(tx *models.BankTransaction, m *matching.Match) error {
	invoices, err := s.invoices.GetByIDs(m.InvoiceIDs)
	if err != nil {
		return err
	}
	for _, inv := range invoices {
		status := models.InvoiceStatusPaid
		if m.Type == models.MatchTypeFuzzy && tx.GrossAmountCents < inv.AmountCents {
			status = models.InvoiceStatusPartial
		}
		if err := s.invoices.SetStatus(inv.ID, status, inv.PaidAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) appendAudit(externalID, action, prevStatus, newStatus, performedBy, reason string) {
	err := s.audits.Append(&models.MatchAuditLog{
		ID:                    uuid.New(),
		TransactionExternalID: externalID,
		Action:                action,
		PreviousStatus:        prevStatus,
		NewStatus:             newStatus,
		PerformedBy:           performedBy,
		Reason:                reason,
		CreatedAt:             time.Now(),
	})
	if err != nil {
		log.Printf("reconciliation: audit append failed for %s: %v", externalID, err)
	}
}

// GetRun returns run progress counters.
func (s *Service) GetRun(id uuid.UUID) (*models.ReconciliationRun, error) {
	return s.runs.Get(id)
}

// ListMatches exposes the review queue with cursor pagination.
func (s *Service) ListMatches(status, cursor string, limit int) ([]models.PaymentMatch, string, bool, error) {
	return s.matches.List(status, cursor, limit)
}
