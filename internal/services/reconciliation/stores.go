package reconciliation

import (
	"errors"
	"time"

	"deposit-reconciliation-engine/internal/models"

	"github.com/google/uuid"
)

// ErrMatchNotFound is returned by human actions against an unknown match.
var ErrMatchNotFound = errors.New("payment match not found")

// ErrMatchTerminal is returned when an automated write targets a match a
// human has already confirmed or rejected.
var ErrMatchTerminal = errors.New("payment match is terminal")

// InvoiceStore supplies the open-invoice feed and applies status side effects.
type InvoiceStore interface {
	Create(inv *models.Invoice) error
	ListOpen() ([]models.Invoice, error)
	GetByIDs(ids []uuid.UUID) ([]models.Invoice, error)
	SetStatus(id uuid.UUID, status string, paidAt *time.Time) error
}

// TransactionStore holds canonical transactions produced by the normalizer.
type TransactionStore interface {
	Save(tx *models.BankTransaction) error
	List() ([]models.BankTransaction, error)
	GetByExternalID(externalID string) (*models.BankTransaction, error)
}

// MatchStore persists engine verdicts, keyed by transaction external id.
type MatchStore interface {
	GetByTransactionExternalID(externalID string) (*models.PaymentMatch, error)
	Upsert(m *models.PaymentMatch) error
	Save(m *models.PaymentMatch) error
	List(status, cursor string, limit int) ([]models.PaymentMatch, string, bool, error)
}

// RunStore tracks reconciliation batch runs.
type RunStore interface {
	Create(run *models.ReconciliationRun) error
	Save(run *models.ReconciliationRun) error
	Get(id uuid.UUID) (*models.ReconciliationRun, error)
}

// AuditStore appends the audit trail for match state changes.
type AuditStore interface {
	Append(entry *models.MatchAuditLog) error
}
