package reconciliation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"deposit-reconciliation-engine/internal/models"

	"github.com/google/uuid"
)

// In-memory stores backing the service tests. Mutexes matter: workers read
// while the collector writes.

type fakeInvoiceStore struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]models.Invoice
	order    []uuid.UUID
}

func newFakeInvoiceStore() *fakeInvoiceStore {
	return &fakeInvoiceStore{invoices: make(map[uuid.UUID]models.Invoice)}
}

func (s *fakeInvoiceStore) Create(inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[inv.ID]; !ok {
		s.order = append(s.order, inv.ID)
	}
	s.invoices[inv.ID] = *inv
	return nil
}

func (s *fakeInvoiceStore) ListOpen() ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Invoice
	for _, id := range s.order {
		inv := s.invoices[id]
		if inv.Status == models.InvoiceStatusOpen || inv.Status == models.InvoiceStatusPartial {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *fakeInvoiceStore) GetByIDs(ids []uuid.UUID) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Invoice
	for _, id := range ids {
		if inv, ok := s.invoices[id]; ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *fakeInvoiceStore) SetStatus(id uuid.UUID, status string, paidAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return fmt.Errorf("invoice %s not found", id)
	}
	inv.Status = status
	inv.PaidAt = paidAt
	s.invoices[id] = inv
	return nil
}

func (s *fakeInvoiceStore) get(id uuid.UUID) models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoices[id]
}

type fakeTransactionStore struct {
	mu  sync.Mutex
	txs []models.BankTransaction
}

func (s *fakeTransactionStore) Save(tx *models.BankTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.txs {
		if existing.ExternalID == tx.ExternalID {
			return nil
		}
	}
	s.txs = append(s.txs, *tx)
	return nil
}

func (s *fakeTransactionStore) List() ([]models.BankTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.BankTransaction, len(s.txs))
	copy(out, s.txs)
	return out, nil
}

func (s *fakeTransactionStore) GetByExternalID(externalID string) (*models.BankTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.ExternalID == externalID {
			cp := tx
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeMatchStore struct {
	mu      sync.Mutex
	matches map[string]models.PaymentMatch
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{matches: make(map[string]models.PaymentMatch)}
}

func (s *fakeMatchStore) GetByTransactionExternalID(externalID string) (*models.PaymentMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.matches[externalID]; ok {
		cp := m
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeMatchStore) Upsert(m *models.PaymentMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.TransactionExternalID] = *m
	return nil
}

func (s *fakeMatchStore) Save(m *models.PaymentMatch) error {
	return s.Upsert(m)
}

func (s *fakeMatchStore) List(status, cursor string, limit int) ([]models.PaymentMatch, string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.PaymentMatch
	for _, m := range s.matches {
		if status != "" && status != "all" && m.Status != status {
			continue
		}
		if cursor != "" && m.TransactionExternalID <= cursor {
			continue
		}
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].TransactionExternalID < all[j].TransactionExternalID
	})
	if len(all) > limit {
		return all[:limit], all[limit-1].TransactionExternalID, true, nil
	}
	return all, "", false, nil
}

func (s *fakeMatchStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

type fakeRunStore struct {
	mu   sync.Mutex
	runs map[uuid.UUID]models.ReconciliationRun
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{runs: make(map[uuid.UUID]models.ReconciliationRun)}
}

func (s *fakeRunStore) Create(run *models.ReconciliationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

func (s *fakeRunStore) Save(run *models.ReconciliationRun) error {
	return s.Create(run)
}

func (s *fakeRunStore) Get(id uuid.UUID) (*models.ReconciliationRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		cp := run
		return &cp, nil
	}
	return nil, fmt.Errorf("run %s not found", id)
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []models.MatchAuditLog
}

func (s *fakeAuditStore) Append(entry *models.MatchAuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeAuditStore) byAction(action string) []models.MatchAuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MatchAuditLog
	for _, e := range s.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
