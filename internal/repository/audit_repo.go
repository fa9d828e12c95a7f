package repository

import (
	"deposit-reconciliation-engine/internal/models"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(entry *models.MatchAuditLog) error {
	return r.db.Create(entry).Error
}
