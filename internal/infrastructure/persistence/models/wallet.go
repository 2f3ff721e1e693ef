package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shipstack/backend/internal/domain/wallet"
)

// WalletModel is the persistence model for the Wallet domain entity.
type WalletModel struct {
	BaseModel
	MerchantID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Balance     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (WalletModel) TableName() string {
	return "wallets"
}

// ToDomain converts the persistence model to a domain Wallet entity.
func (m *WalletModel) ToDomain() *wallet.Wallet {
	return &wallet.Wallet{
		BaseEntity:  m.BaseModel.ToDomain(),
		MerchantID:  m.MerchantID,
		Balance:     m.Balance,
		CreditLimit: m.CreditLimit,
	}
}

// FromDomain populates the persistence model from a domain Wallet entity.
func (m *WalletModel) FromDomain(w *wallet.Wallet) {
	m.FromDomainBaseEntity(w.BaseEntity)
	m.MerchantID = w.MerchantID
	m.Balance = w.Balance
	m.CreditLimit = w.CreditLimit
}

// WalletTransactionModel is the persistence model for the append-only wallet
// ledger. Rows are never updated after insert.
type WalletTransactionModel struct {
	BaseModel
	MerchantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	TransactionType string          `gorm:"type:varchar(20);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceBefore   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OrderRef        *string         `gorm:"type:varchar(100);index"`
	Reference       string          `gorm:"type:varchar(200)"`
	TransactionDate time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (WalletTransactionModel) TableName() string {
	return "wallet_transactions"
}

// ToDomain converts the persistence model to a domain Transaction entity.
func (m *WalletTransactionModel) ToDomain() *wallet.Transaction {
	return &wallet.Transaction{
		BaseEntity:      m.BaseModel.ToDomain(),
		MerchantID:      m.MerchantID,
		TransactionType: wallet.TransactionType(m.TransactionType),
		Amount:          m.Amount,
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		OrderRef:        m.OrderRef,
		Reference:       m.Reference,
		TransactionDate: m.TransactionDate,
	}
}

// FromDomain populates the persistence model from a domain Transaction entity.
func (m *WalletTransactionModel) FromDomain(t *wallet.Transaction) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.MerchantID = t.MerchantID
	m.TransactionType = t.TransactionType.String()
	m.Amount = t.Amount
	m.BalanceBefore = t.BalanceBefore
	m.BalanceAfter = t.BalanceAfter
	m.OrderRef = t.OrderRef
	m.Reference = t.Reference
	m.TransactionDate = t.TransactionDate
}
