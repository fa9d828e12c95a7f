package repository

import (
	"time"

	"deposit-reconciliation-engine/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Expose DB if needed
func (r *InvoiceRepository) DB() *gorm.DB {
	return r.db
}

func (r *InvoiceRepository) Create(inv *models.Invoice) error {
	// Duplicate invoice numbers from feed re-uploads are ignored.
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(inv).Error
}

// ListOpen returns every invoice still awaiting settlement, partials included.
func (r *InvoiceRepository) ListOpen() ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.
		Where("status IN ?", []string{models.InvoiceStatusOpen, models.InvoiceStatusPartial}).
		Find(&invoices).Error
	return invoices, err
}

func (r *InvoiceRepository) GetByIDs(ids []uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Where("id IN ?", ids).Find(&invoices).Error
	return invoices, err
}

// SetStatus updates one invoice's settlement state. Row-level update keyed by
// primary key; the caller serializes writes per invoice.
func (r *InvoiceRepository) SetStatus(id uuid.UUID, status string, paidAt *time.Time) error {
	return r.db.Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  status,
			"paid_at": paidAt,
		}).Error
}
