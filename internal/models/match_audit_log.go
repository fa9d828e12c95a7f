package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded against a PaymentMatch.
const (
	AuditActionConfirm      = "confirm"
	AuditActionReject       = "reject"
	AuditActionReverse      = "reverse"
	AuditActionManualMatch  = "manual_match"
	AuditActionTerminalSkip = "terminal_skip"
)

type MatchAuditLog struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionExternalID string    `gorm:"index"`
	Action                string
	PreviousStatus        string
	NewStatus             string
	PerformedBy           string
	Reason                string
	CreatedAt             time.Time
}
