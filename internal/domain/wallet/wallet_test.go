package wallet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipstack/backend/internal/domain/shared"
)

func TestNewWallet(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		w, err := NewWallet(uuid.New(), decimal.NewFromInt(500))
		require.NoError(t, err)
		assert.True(t, w.Balance.IsZero())
		assert.True(t, w.AvailableBalance().Equal(decimal.NewFromInt(500)))
	})

	t.Run("nil merchant", func(t *testing.T) {
		_, err := NewWallet(uuid.Nil, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("negative credit limit", func(t *testing.T) {
		_, err := NewWallet(uuid.New(), decimal.NewFromInt(-1))
		assert.Error(t, err)
	})
}

func TestWallet_Debit(t *testing.T) {
	newWallet := func(balance, creditLimit int64) *Wallet {
		w, err := NewWallet(uuid.New(), decimal.NewFromInt(creditLimit))
		require.NoError(t, err)
		w.Balance = decimal.NewFromInt(balance)
		return w
	}

	t.Run("within balance", func(t *testing.T) {
		w := newWallet(100, 50)
		require.NoError(t, w.Debit(decimal.NewFromInt(80)))
		assert.True(t, w.Balance.Equal(decimal.NewFromInt(20)))
	})

	t.Run("overdraft within credit limit", func(t *testing.T) {
		w := newWallet(100, 50)
		require.NoError(t, w.Debit(decimal.NewFromInt(130)))
		assert.True(t, w.Balance.Equal(decimal.NewFromInt(-30)))
	})

	t.Run("beyond credit limit rejected", func(t *testing.T) {
		w := newWallet(100, 50)
		err := w.Debit(decimal.NewFromInt(151))
		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
		assert.True(t, w.Balance.Equal(decimal.NewFromInt(100)), "failed debit must not change balance")
	})

	t.Run("exactly available balance allowed", func(t *testing.T) {
		w := newWallet(100, 50)
		require.NoError(t, w.Debit(decimal.NewFromInt(150)))
		assert.True(t, w.Balance.Equal(decimal.NewFromInt(-50)))
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		w := newWallet(100, 0)
		assert.Error(t, w.Debit(decimal.Zero))
		assert.Error(t, w.Debit(decimal.NewFromInt(-5)))
	})
}

func TestWallet_Credit(t *testing.T) {
	w, err := NewWallet(uuid.New(), decimal.NewFromInt(50))
	require.NoError(t, err)
	w.Balance = decimal.NewFromInt(-30)

	require.NoError(t, w.Credit(decimal.NewFromInt(500)))
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(470)))

	assert.Error(t, w.Credit(decimal.Zero))
}

func TestTransaction_Factories(t *testing.T) {
	merchantID := uuid.New()

	t.Run("debit", func(t *testing.T) {
		tx, err := NewDebitTransaction(merchantID, decimal.NewFromInt(120), decimal.NewFromInt(200))
		require.NoError(t, err)
		assert.Equal(t, TransactionTypeDebit, tx.TransactionType)
		assert.True(t, tx.BalanceBefore.Equal(decimal.NewFromInt(200)))
		assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(80)))
		assert.True(t, tx.SignedAmount().Equal(decimal.NewFromInt(-120)))
	})

	t.Run("recharge onto negative balance", func(t *testing.T) {
		tx, err := NewRechargeTransaction(merchantID, decimal.NewFromInt(500), decimal.NewFromInt(-30))
		require.NoError(t, err)
		assert.True(t, tx.BalanceBefore.Equal(decimal.NewFromInt(-30)))
		assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(470)))
	})

	t.Run("refund carries order ref", func(t *testing.T) {
		tx, err := NewRefundTransaction(merchantID, decimal.NewFromInt(99), decimal.NewFromInt(10))
		require.NoError(t, err)
		tx.WithOrderRef("ORD-77")
		assert.Equal(t, TransactionTypeRefund, tx.TransactionType)
		require.NotNil(t, tx.OrderRef)
		assert.Equal(t, "ORD-77", *tx.OrderRef)
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		_, err := NewDebitTransaction(merchantID, decimal.Zero, decimal.NewFromInt(10))
		assert.Error(t, err)
	})

	t.Run("nil merchant rejected", func(t *testing.T) {
		_, err := NewRechargeTransaction(uuid.Nil, decimal.NewFromInt(10), decimal.Zero)
		assert.Error(t, err)
	})
}
