package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	InvoiceStatusOpen    = "open"
	InvoiceStatusPartial = "partial"
	InvoiceStatusPaid    = "paid"
)

type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	InvoiceNumber string    `gorm:"uniqueIndex"`
	CustomerID    string    `gorm:"index"`
	JobReference  string
	AmountCents   int64  `gorm:"index"`
	Status        string `gorm:"index"`
	DueDate       time.Time
	PaidAt        *time.Time
	CreatedAt     time.Time
}

// BestKnownDate is the date used for proximity scoring: the paid date when the
// ledger knows it, otherwise the due date.
func (i *Invoice) BestKnownDate() time.Time {
	if i.PaidAt != nil {
		return *i.PaidAt
	}
	return i.DueDate
}
