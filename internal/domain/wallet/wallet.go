package wallet

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shipstack/backend/internal/domain/shared"
)

// Wallet is a merchant's money account. Balance may go negative down to the
// negative of the credit limit (overdraft); the available balance is
// balance + credit limit. All mutations happen through Debit/Credit so the
// overdraft floor is enforced in exactly one place.
type Wallet struct {
	shared.BaseEntity
	MerchantID  uuid.UUID
	Balance     decimal.Decimal
	CreditLimit decimal.Decimal
}

// NewWallet creates a wallet for a merchant with a zero balance.
func NewWallet(merchantID uuid.UUID, creditLimit decimal.Decimal) (*Wallet, error) {
	if merchantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant ID cannot be empty")
	}
	if creditLimit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}
	return &Wallet{
		BaseEntity:  shared.NewBaseEntity(),
		MerchantID:  merchantID,
		Balance:     decimal.Zero,
		CreditLimit: creditLimit,
	}, nil
}

// AvailableBalance returns balance plus credit limit.
func (w *Wallet) AvailableBalance() decimal.Decimal {
	return w.Balance.Add(w.CreditLimit)
}

// CanDebit returns true when the amount fits within the available balance.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.AvailableBalance().GreaterThanOrEqual(amount)
}

// Debit reduces the balance. The balance may go negative but never below the
// negative of the credit limit.
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}
	if !w.CanDebit(amount) {
		return shared.ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(amount)
	return nil
}

// Credit increases the balance unconditionally.
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	w.Balance = w.Balance.Add(amount)
	return nil
}
