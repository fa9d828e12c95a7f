package repository

import (
	"errors"

	"deposit-reconciliation-engine/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BankTransactionRepository struct {
	db *gorm.DB
}

func NewBankTransactionRepository(db *gorm.DB) *BankTransactionRepository {
	return &BankTransactionRepository{db: db}
}

// Save inserts a canonical transaction. Feed replays of the same external id
// are ignored; ingested rows are immutable.
func (r *BankTransactionRepository) Save(tx *models.BankTransaction) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(tx).Error
}

func (r *BankTransactionRepository) List() ([]models.BankTransaction, error) {
	var txs []models.BankTransaction
	err := r.db.Order("transaction_date ASC").Find(&txs).Error
	return txs, err
}

func (r *BankTransactionRepository) GetByExternalID(externalID string) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	err := r.db.First(&tx, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
