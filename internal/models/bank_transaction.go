package models

import (
	"time"

	"github.com/google/uuid"
)

// BankTransaction is a canonical deposit record produced by the normalizer.
// Rows are immutable once ingested; reconciliation only reads them.
type BankTransaction struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	ExternalID       string    `gorm:"uniqueIndex"`
	TransactionDate  time.Time `gorm:"column:transaction_date;index"`
	Description      string
	GrossAmountCents int64  `gorm:"index"`
	FeeCents         *int64 // disclosed processor fee, when the feed carries one
	CustomerHint     string `gorm:"index"`
	CreatedAt        time.Time
}

// FeeDisclosed reports whether the processor disclosed a fee for this deposit.
func (t *BankTransaction) FeeDisclosed() bool {
	return t.FeeCents != nil
}
