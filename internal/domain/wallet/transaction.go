package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shipstack/backend/internal/domain/shared"
)

// TransactionType represents the kind of wallet mutation
type TransactionType string

const (
	// TransactionTypeDebit represents a charge against the merchant (balance decrease)
	TransactionTypeDebit TransactionType = "DEBIT"
	// TransactionTypeRecharge represents a merchant top-up (balance increase)
	TransactionTypeRecharge TransactionType = "RECHARGE"
	// TransactionTypeRefund represents money returned for an order (balance increase)
	TransactionTypeRefund TransactionType = "REFUND"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDebit, TransactionTypeRecharge, TransactionTypeRefund:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry recording one wallet mutation.
// Exactly one entry is created per mutation, inside the same atomic unit as
// the balance update. Entries are never modified or deleted afterward.
type Transaction struct {
	shared.BaseEntity
	MerchantID      uuid.UUID
	TransactionType TransactionType
	// Amount is always positive; direction is determined by the type
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	// OrderRef links the entry to the shipment/order that caused it
	OrderRef *string
	// Reference is a free-form reference code (payment gateway id, note)
	Reference       string
	TransactionDate time.Time
}

// NewTransaction creates a ledger entry, validating its invariants.
func NewTransaction(
	merchantID uuid.UUID,
	txType TransactionType,
	amount decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
) (*Transaction, error) {
	if merchantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid wallet transaction type")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}

	return &Transaction{
		BaseEntity:      shared.NewBaseEntity(),
		MerchantID:      merchantID,
		TransactionType: txType,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		TransactionDate: time.Now(),
	}, nil
}

// WithOrderRef links the entry to an order reference.
func (t *Transaction) WithOrderRef(orderRef string) *Transaction {
	t.OrderRef = &orderRef
	return t
}

// WithReference sets a free-form reference code.
func (t *Transaction) WithReference(reference string) *Transaction {
	t.Reference = reference
	return t
}

// SignedAmount returns the amount with sign: negative for debits, positive
// for recharges and refunds.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.TransactionType == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// NewDebitTransaction creates a DEBIT ledger entry from a balance snapshot.
func NewDebitTransaction(merchantID uuid.UUID, amount, balanceBefore decimal.Decimal) (*Transaction, error) {
	return NewTransaction(merchantID, TransactionTypeDebit, amount, balanceBefore, balanceBefore.Sub(amount))
}

// NewRechargeTransaction creates a RECHARGE ledger entry from a balance snapshot.
func NewRechargeTransaction(merchantID uuid.UUID, amount, balanceBefore decimal.Decimal) (*Transaction, error) {
	return NewTransaction(merchantID, TransactionTypeRecharge, amount, balanceBefore, balanceBefore.Add(amount))
}

// NewRefundTransaction creates a REFUND ledger entry from a balance snapshot.
func NewRefundTransaction(merchantID uuid.UUID, amount, balanceBefore decimal.Decimal) (*Transaction, error) {
	return NewTransaction(merchantID, TransactionTypeRefund, amount, balanceBefore, balanceBefore.Add(amount))
}
