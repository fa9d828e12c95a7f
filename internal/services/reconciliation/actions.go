package reconciliation

import (
	"encoding/json"
	"fmt"
	"time"

	"deposit-reconciliation-engine/internal/models"

	"github.com/google/uuid"
)

// ConfirmMatch records a human confirmation. Confirmed is terminal for
// automated runs; linked invoice statuses are re-asserted as paid.
func (s *Service) ConfirmMatch(externalID, performedBy string) (*models.PaymentMatch, error) {
	m, err := s.getMatch(externalID)
	if err != nil {
		return nil, err
	}
	if m.Status == models.MatchStatusConfirmed {
		return m, nil
	}

	prev := m.Status
	m.Status = models.MatchStatusConfirmed
	m.RequiresHumanReview = false
	if err := s.matches.Save(m); err != nil {
		return nil, err
	}
	if err := s.settleConfirmedInvoices(m); err != nil {
		return nil, err
	}
	s.appendAudit(externalID, models.AuditActionConfirm, prev, m.Status, performedBy, "")
	return m, nil
}

// settleConfirmedInvoices stamps the paid date once a human confirms the
// match. A fuzzy underpayment keeps its invoice partial.
func (s *Service) settleConfirmedInvoices(m *models.PaymentMatch) error {
	ids, err := matchedInvoiceIDs(m)
	if err != nil || len(ids) == 0 {
		return err
	}
	tx, err := s.transactions.GetByExternalID(m.TransactionExternalID)
	if err != nil {
		return err
	}
	paidAt := time.Now()
	if tx != nil {
		paidAt = tx.TransactionDate
	}
	invoices, err := s.invoices.GetByIDs(ids)
	if err != nil {
		return err
	}
	for _, inv := range invoices {
		status := models.InvoiceStatusPaid
		if m.MatchType == models.MatchTypeFuzzy && tx != nil && tx.GrossAmountCents < inv.AmountCents {
			status = models.InvoiceStatusPartial
		}
		if err := s.invoices.SetStatus(inv.ID, status, timePtr(paidAt)); err != nil {
			return err
		}
	}
	return nil
}

// RejectMatch records a human rejection. Rejected is terminal for automated
// runs; invoices the accepted match had claimed are reopened.
func (s *Service) RejectMatch(externalID, performedBy, reason string) (*models.PaymentMatch, error) {
	m, err := s.getMatch(externalID)
	if err != nil {
		return nil, err
	}

	prev := m.Status
	m.Status = models.MatchStatusRejected
	m.RequiresHumanReview = false
	if err := s.matches.Save(m); err != nil {
		return nil, err
	}
	if err := s.setInvoiceStatuses(m, models.InvoiceStatusOpen, nil); err != nil {
		return nil, err
	}
	s.appendAudit(externalID, models.AuditActionReject, prev, m.Status, performedBy, reason)
	return m, nil
}

// ReverseMatch handles an explicit reversal event (e.g. a voided bank
// transaction): the confirmed match reopens and its invoices go back to open.
func (s *Service) ReverseMatch(externalID, performedBy, reason string) (*models.PaymentMatch, error) {
	m, err := s.getMatch(externalID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MatchStatusConfirmed {
		return nil, fmt.Errorf("match %s is %s, only confirmed matches can be reversed", externalID, m.Status)
	}

	prev := m.Status
	m.Status = models.MatchStatusUnprocessed
	if err := s.matches.Save(m); err != nil {
		return nil, err
	}
	if err := s.setInvoiceStatuses(m, models.InvoiceStatusOpen, nil); err != nil {
		return nil, err
	}
	s.appendAudit(externalID, models.AuditActionReverse, prev, m.Status, performedBy, reason)
	return m, nil
}

// ManualMatch lets a reviewer pick the settling invoices directly. The result
// goes straight to confirmed.
func (s *Service) ManualMatch(externalID string, invoiceIDs []uuid.UUID, performedBy string) (*models.PaymentMatch, error) {
	m, err := s.getMatch(externalID)
	if err != nil {
		return nil, err
	}
	if len(invoiceIDs) == 0 {
		return nil, fmt.Errorf("manual match requires at least one invoice")
	}

	ids := make([]string, len(invoiceIDs))
	for i, id := range invoiceIDs {
		ids[i] = id.String()
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}

	prev := m.Status
	m.MatchedInvoiceIDs = idsJSON
	m.Status = models.MatchStatusConfirmed
	m.Confidence = 1.0
	m.RequiresHumanReview = false
	m.SuggestedAction = models.ActionAutoMatch
	if err := s.matches.Save(m); err != nil {
		return nil, err
	}
	if err := s.setInvoiceStatusesByID(invoiceIDs, models.InvoiceStatusPaid, timePtr(time.Now())); err != nil {
		return nil, err
	}
	s.appendAudit(externalID, models.AuditActionManualMatch, prev, m.Status, performedBy, "")
	return m, nil
}

func (s *Service) getMatch(externalID string) (*models.PaymentMatch, error) {
	m, err := s.matches.GetByTransactionExternalID(externalID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

func (s *Service) setInvoiceStatuses(m *models.PaymentMatch, status string, paidAt *time.Time) error {
	ids, err := matchedInvoiceIDs(m)
	if err != nil {
		return err
	}
	return s.setInvoiceStatusesByID(ids, status, paidAt)
}

func (s *Service) setInvoiceStatusesByID(ids []uuid.UUID, status string, paidAt *time.Time) error {
	for _, id := range ids {
		if err := s.invoices.SetStatus(id, status, paidAt); err != nil {
			return err
		}
	}
	return nil
}

func matchedInvoiceIDs(m *models.PaymentMatch) ([]uuid.UUID, error) {
	if len(m.MatchedInvoiceIDs) == 0 {
		return nil, nil
	}
	var raw []string
	if err := json.Unmarshal(m.MatchedInvoiceIDs, &raw); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func timePtr(t time.Time) *time.Time { return &t }
