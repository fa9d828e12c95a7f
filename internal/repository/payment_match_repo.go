package repository

import (
	"errors"

	"deposit-reconciliation-engine/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentMatchRepository struct {
	db *gorm.DB
}

func NewPaymentMatchRepository(db *gorm.DB) *PaymentMatchRepository {
	return &PaymentMatchRepository{db: db}
}

func (r *PaymentMatchRepository) GetByTransactionExternalID(externalID string) (*models.PaymentMatch, error) {
	var m models.PaymentMatch
	err := r.db.First(&m, "transaction_external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Upsert writes the engine verdict keyed by transaction external id, so
// re-runs update in place instead of duplicating.
func (r *PaymentMatchRepository) Upsert(m *models.PaymentMatch) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "transaction_external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"matched_invoice_ids",
			"match_type",
			"confidence",
			"variance_cents",
			"variance_pct",
			"requires_human_review",
			"suggested_action",
			"status",
			"rationale",
			"updated_at",
		}),
	}).Create(m).Error
}

func (r *PaymentMatchRepository) Save(m *models.PaymentMatch) error {
	return r.db.Save(m).Error
}

// List pages the review queue by status. Cursor is the last seen external id.
func (r *PaymentMatchRepository) List(status, cursor string, limit int) ([]models.PaymentMatch, string, bool, error) {
	var matches []models.PaymentMatch
	query := r.db.Order("transaction_external_id ASC").Limit(limit + 1)

	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if cursor != "" {
		query = query.Where("transaction_external_id > ?", cursor)
	}

	if err := query.Find(&matches).Error; err != nil {
		return nil, "", false, err
	}

	hasMore := false
	var nextCursor string
	if len(matches) > limit {
		hasMore = true
		matches = matches[:limit]
		nextCursor = matches[limit-1].TransactionExternalID
	}
	return matches, nextCursor, hasMore, nil
}
