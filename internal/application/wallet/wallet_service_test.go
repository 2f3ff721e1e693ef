package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shipstack/backend/internal/domain/shared"
	"github.com/shipstack/backend/internal/domain/wallet"
)

// memRepo is an in-memory wallet store. It records every ledger append so
// tests can assert exactly one entry per mutation.
type memRepo struct {
	wallets      map[uuid.UUID]*wallet.Wallet
	transactions []*wallet.Transaction
	saveCalls    int
}

func newMemRepo() *memRepo {
	return &memRepo{wallets: make(map[uuid.UUID]*wallet.Wallet)}
}

func (m *memRepo) Create(ctx context.Context, w *wallet.Wallet) error {
	m.wallets[w.MerchantID] = w
	return nil
}

func (m *memRepo) FindByMerchant(ctx context.Context, merchantID uuid.UUID) (*wallet.Wallet, error) {
	w, ok := m.wallets[merchantID]
	if !ok {
		return nil, shared.ErrMerchantNotFound
	}
	return w, nil
}

func (m *memRepo) FindByMerchantForUpdate(ctx context.Context, merchantID uuid.UUID) (*wallet.Wallet, error) {
	return m.FindByMerchant(ctx, merchantID)
}

func (m *memRepo) Save(ctx context.Context, w *wallet.Wallet) error {
	m.saveCalls++
	m.wallets[w.MerchantID] = w
	return nil
}

func (m *memRepo) CreateTransaction(ctx context.Context, tx *wallet.Transaction) error {
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *memRepo) ListTransactions(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*wallet.Transaction, int64, error) {
	var out []*wallet.Transaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].MerchantID == merchantID {
			out = append(out, m.transactions[i])
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

// memUoW applies fn against the shared repo. Rollback semantics are not
// simulated; tests assert that failed mutations write nothing at all.
type memUoW struct {
	repo *memRepo
}

func (u *memUoW) Do(ctx context.Context, fn func(repo wallet.Repository) error) error {
	return fn(u.repo)
}

func newTestService(t *testing.T, creditLimit int64) (*Service, *memRepo, uuid.UUID) {
	t.Helper()
	repo := newMemRepo()
	svc := NewService(&memUoW{repo: repo}, zap.NewNop())
	merchantID := uuid.New()
	_, err := svc.CreateWallet(context.Background(), merchantID, decimal.NewFromInt(creditLimit))
	require.NoError(t, err)
	return svc, repo, merchantID
}

func TestServiceCreateWallet(t *testing.T) {
	svc, _, merchantID := newTestService(t, 100)

	t.Run("duplicate wallet rejected", func(t *testing.T) {
		_, err := svc.CreateWallet(context.Background(), merchantID, decimal.Zero)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("balance starts at zero with credit headroom", func(t *testing.T) {
		resp, err := svc.GetBalance(context.Background(), merchantID)
		require.NoError(t, err)
		assert.True(t, resp.Balance.IsZero())
		assert.True(t, resp.AvailableBalance.Equal(decimal.NewFromInt(100)))
	})
}

func TestServiceDebit(t *testing.T) {
	t.Run("debit after credit leaves one ledger entry each", func(t *testing.T) {
		svc, repo, merchantID := newTestService(t, 0)
		_, err := svc.Credit(context.Background(), merchantID, decimal.NewFromInt(500), "UTR-1")
		require.NoError(t, err)

		result, err := svc.Debit(context.Background(), merchantID, decimal.NewFromInt(120), "ORD-9")
		require.NoError(t, err)

		assert.True(t, result.BalanceBefore.Equal(decimal.NewFromInt(500)))
		assert.True(t, result.BalanceAfter.Equal(decimal.NewFromInt(380)))
		require.Len(t, repo.transactions, 2)
		debitTx := repo.transactions[1]
		assert.Equal(t, wallet.TransactionTypeDebit, debitTx.TransactionType)
		require.NotNil(t, debitTx.OrderRef)
		assert.Equal(t, "ORD-9", *debitTx.OrderRef)
	})

	t.Run("overdraft allowed within credit limit", func(t *testing.T) {
		svc, _, merchantID := newTestService(t, 200)
		result, err := svc.Debit(context.Background(), merchantID, decimal.NewFromInt(150), "ORD-1")
		require.NoError(t, err)
		assert.True(t, result.BalanceAfter.Equal(decimal.NewFromInt(-150)))
	})

	t.Run("insufficient balance writes nothing", func(t *testing.T) {
		svc, repo, merchantID := newTestService(t, 0)
		_, err := svc.Debit(context.Background(), merchantID, decimal.NewFromInt(10), "ORD-1")
		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
		assert.Empty(t, repo.transactions)
		assert.Zero(t, repo.saveCalls)

		resp, getErr := svc.GetBalance(context.Background(), merchantID)
		require.NoError(t, getErr)
		assert.True(t, resp.Balance.IsZero())
	})

	t.Run("unknown merchant", func(t *testing.T) {
		svc, _, _ := newTestService(t, 0)
		_, err := svc.Debit(context.Background(), uuid.New(), decimal.NewFromInt(10), "ORD-1")
		assert.ErrorIs(t, err, shared.ErrMerchantNotFound)
	})
}

func TestServiceRefund(t *testing.T) {
	svc, repo, merchantID := newTestService(t, 200)
	_, err := svc.Debit(context.Background(), merchantID, decimal.NewFromInt(150), "ORD-7")
	require.NoError(t, err)

	result, err := svc.Refund(context.Background(), merchantID, decimal.NewFromInt(150), "ORD-7")
	require.NoError(t, err)

	assert.True(t, result.BalanceAfter.IsZero())
	require.Len(t, repo.transactions, 2)
	refundTx := repo.transactions[1]
	assert.Equal(t, wallet.TransactionTypeRefund, refundTx.TransactionType)
	require.NotNil(t, refundTx.OrderRef)
	assert.Equal(t, "ORD-7", *refundTx.OrderRef)
}

func TestServiceListTransactions(t *testing.T) {
	svc, _, merchantID := newTestService(t, 0)
	_, err := svc.Credit(context.Background(), merchantID, decimal.NewFromInt(500), "UTR-1")
	require.NoError(t, err)
	_, err = svc.Debit(context.Background(), merchantID, decimal.NewFromInt(100), "ORD-1")
	require.NoError(t, err)
	_, err = svc.Debit(context.Background(), merchantID, decimal.NewFromInt(50), "ORD-2")
	require.NoError(t, err)

	entries, total, err := svc.ListTransactions(context.Background(), merchantID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, entries, 2)
	// most recent first
	require.NotNil(t, entries[0].OrderRef)
	assert.Equal(t, "ORD-2", *entries[0].OrderRef)
	assert.Equal(t, "DEBIT", entries[0].TransactionType)
}

// lockedUoW serializes mutations the way the wallet row lock does in
// Postgres: one unit of work at a time per shared repository.
type lockedUoW struct {
	mu   sync.Mutex
	repo *memRepo
}

func (u *lockedUoW) Do(ctx context.Context, fn func(repo wallet.Repository) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(u.repo)
}

func TestServiceDebit_ConcurrentDebitsSerializeOnRowLock(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(&lockedUoW{repo: repo}, zap.NewNop())
	merchantID := uuid.New()

	_, err := svc.CreateWallet(context.Background(), merchantID, decimal.NewFromInt(50))
	require.NoError(t, err)
	_, err = svc.Credit(context.Background(), merchantID, decimal.NewFromInt(100), "opening")
	require.NoError(t, err)

	// Available balance is 150. Two debits of 100 race for it; the row lock
	// must let exactly one through.
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, ref := range []string{"ORD-A", "ORD-B"} {
		wg.Add(1)
		go func(orderRef string) {
			defer wg.Done()
			_, debitErr := svc.Debit(context.Background(), merchantID, decimal.NewFromInt(100), orderRef)
			results <- debitErr
		}(ref)
	}
	wg.Wait()
	close(results)

	var won, rejected int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, shared.ErrInsufficientBalance):
			rejected++
		default:
			t.Fatalf("unexpected debit error: %v", err)
		}
	}
	assert.Equal(t, 1, won, "exactly one debit may succeed")
	assert.Equal(t, 1, rejected)

	// The losing debit must leave no ledger trace.
	var debits int
	for _, tx := range repo.transactions {
		if tx.TransactionType == wallet.TransactionTypeDebit {
			debits++
		}
	}
	assert.Equal(t, 1, debits)

	balance, err := svc.GetBalance(context.Background(), merchantID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.Zero), "got %s", balance.Balance)
}
