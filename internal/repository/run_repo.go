package repository

import (
	"deposit-reconciliation-engine/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Create(run *models.ReconciliationRun) error {
	return r.db.Create(run).Error
}

func (r *RunRepository) Save(run *models.ReconciliationRun) error {
	return r.db.Save(run).Error
}

func (r *RunRepository) Get(id uuid.UUID) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	if err := r.db.First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}
