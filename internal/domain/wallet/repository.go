package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the port for wallet persistence. Implementations back it
// with a store supporting row-level locking so that concurrent debits against
// the same wallet serialize (see Service).
type Repository interface {
	// Create persists a new wallet
	Create(ctx context.Context, w *Wallet) error

	// FindByMerchant returns the wallet for a merchant, or shared.ErrMerchantNotFound
	FindByMerchant(ctx context.Context, merchantID uuid.UUID) (*Wallet, error)

	// FindByMerchantForUpdate returns the wallet with an exclusive row lock
	// held for the remainder of the enclosing unit of work. Callers must be
	// inside a UnitOfWork.
	FindByMerchantForUpdate(ctx context.Context, merchantID uuid.UUID) (*Wallet, error)

	// Save persists changes to an existing wallet
	Save(ctx context.Context, w *Wallet) error

	// CreateTransaction appends an immutable ledger entry
	CreateTransaction(ctx context.Context, tx *Transaction) error

	// ListTransactions returns ledger entries for a merchant, most recent
	// first, with the total count for pagination
	ListTransactions(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*Transaction, int64, error)
}

// UnitOfWork runs a function against a Repository bound to one atomic
// transaction: every repository call inside fn commits or rolls back as a
// whole.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repo Repository) error) error
}
