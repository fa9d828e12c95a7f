package models

import (
	"time"

	"github.com/google/uuid"
)

// ReconciliationRun tracks one batch pass over the unreconciled transactions.
type ReconciliationRun struct {
	ID                       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TotalTransactions        int
	ProcessedCount           int
	AutoMatchedCount         int
	PendingReviewCount       int
	ManualInvestigationCount int
	SkippedTerminalCount     int
	FailedCount              int
	Status                   string
	StartedAt                time.Time
	CompletedAt              *time.Time
	CreatedAt                time.Time
}
