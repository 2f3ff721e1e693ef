package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shipstack/backend/internal/domain/shared"
	"github.com/shipstack/backend/internal/domain/wallet"
	"github.com/shipstack/backend/internal/infrastructure/persistence/models"
)

// GormWalletRepository implements wallet.Repository using GORM
type GormWalletRepository struct {
	db *gorm.DB
}

// NewGormWalletRepository creates a new GormWalletRepository
func NewGormWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// Create persists a new wallet
func (r *GormWalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	var model models.WalletModel
	model.FromDomain(w)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByMerchant returns the wallet for a merchant
func (r *GormWalletRepository) FindByMerchant(ctx context.Context, merchantID uuid.UUID) (*wallet.Wallet, error) {
	var model models.WalletModel
	if err := r.db.WithContext(ctx).
		First(&model, "merchant_id = ?", merchantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrMerchantNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMerchantForUpdate returns the wallet with an exclusive row lock.
// The lock is only meaningful inside a transaction; use the unit of work.
func (r *GormWalletRepository) FindByMerchantForUpdate(ctx context.Context, merchantID uuid.UUID) (*wallet.Wallet, error) {
	var model models.WalletModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "merchant_id = ?", merchantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrMerchantNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists changes to an existing wallet
func (r *GormWalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	var model models.WalletModel
	model.FromDomain(w)
	result := r.db.WithContext(ctx).
		Model(&models.WalletModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"balance":      model.Balance,
			"credit_limit": model.CreditLimit,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrMerchantNotFound
	}
	return nil
}

// CreateTransaction appends an immutable ledger entry
func (r *GormWalletRepository) CreateTransaction(ctx context.Context, tx *wallet.Transaction) error {
	var model models.WalletTransactionModel
	model.FromDomain(tx)
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListTransactions returns ledger entries for a merchant, most recent first
func (r *GormWalletRepository) ListTransactions(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*wallet.Transaction, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.WalletTransactionModel{}).
		Where("merchant_id = ?", merchantID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.WalletTransactionModel
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("transaction_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*wallet.Transaction, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// GormWalletUnitOfWork implements wallet.UnitOfWork by running the function
// inside one GORM transaction. Repository calls made through the bound
// repository share the transaction, so FindByMerchantForUpdate holds its row
// lock until commit or rollback.
type GormWalletUnitOfWork struct {
	db *gorm.DB
}

// NewGormWalletUnitOfWork creates a new GormWalletUnitOfWork
func NewGormWalletUnitOfWork(db *gorm.DB) *GormWalletUnitOfWork {
	return &GormWalletUnitOfWork{db: db}
}

// Do runs fn inside a transaction against a transaction-bound repository
func (u *GormWalletUnitOfWork) Do(ctx context.Context, fn func(repo wallet.Repository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormWalletRepository(tx))
	})
}
