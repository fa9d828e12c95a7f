package reconciliation

import (
	"log"
	"time"

	"deposit-reconciliation-engine/internal/models"
	"deposit-reconciliation-engine/internal/services/normalize"

	"github.com/google/uuid"
)

// IngestResult summarizes a feed upload. Rows that fail normalization are
// skipped and reported, never fatal to the upload.
type IngestResult struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// IngestTransactions normalizes and stores raw feed rows. Stand-in for the
// out-of-scope bank/processor sync collaborator.
func (s *Service) IngestTransactions(rows []normalize.RawTransaction) IngestResult {
	var result IngestResult
	for _, row := range rows {
		tx, err := normalize.Normalize(row)
		if err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, err.Error())
			log.Printf("ingest: %v", err)
			continue
		}
		if err := s.transactions.Save(tx); err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Accepted++
	}
	return result
}

// InvoiceRow is one row of the invoice feed.
type InvoiceRow struct {
	InvoiceNumber string `json:"invoice_number"`
	CustomerID    string `json:"customer_id"`
	JobReference  string `json:"job_reference,omitempty"`
	Amount        string `json:"amount"`
	Status        string `json:"status,omitempty"`
	DueDate       string `json:"due_date"`
	PaidDate      string `json:"paid_date,omitempty"`
}

// CreateInvoice stores one invoice from the ledger feed.
func (s *Service) CreateInvoice(row InvoiceRow) (*models.Invoice, error) {
	amount, err := normalize.ParseCents(row.Amount)
	if err != nil {
		return nil, err
	}
	dueDate, err := normalize.ParseDate(row.DueDate)
	if err != nil {
		return nil, err
	}
	var paidAt *time.Time
	if row.PaidDate != "" {
		t, err := normalize.ParseDate(row.PaidDate)
		if err != nil {
			return nil, err
		}
		paidAt = &t
	}
	status := row.Status
	if status == "" {
		status = models.InvoiceStatusOpen
	}

	inv := &models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: row.InvoiceNumber,
		CustomerID:    row.CustomerID,
		JobReference:  row.JobReference,
		AmountCents:   amount,
		Status:        status,
		DueDate:       dueDate,
		PaidAt:        paidAt,
		CreatedAt:     time.Now(),
	}
	if err := s.invoices.Create(inv); err != nil {
		return nil, err
	}
	return inv, nil
}
