package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shipstack/backend/internal/domain/shared"
	"github.com/shipstack/backend/internal/domain/wallet"
	"github.com/shipstack/backend/internal/infrastructure/logger"
	"github.com/shipstack/backend/internal/infrastructure/telemetry"
)

// BalanceResponse reports a merchant's wallet position.
type BalanceResponse struct {
	MerchantID       uuid.UUID       `json:"merchant_id"`
	Balance          decimal.Decimal `json:"balance"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
}

// TransactionResponse represents one ledger entry in API responses.
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	MerchantID      uuid.UUID       `json:"merchant_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	OrderRef        *string         `json:"order_ref,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// MutationResult is the outcome of a balance-changing operation.
type MutationResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// Service coordinates wallet mutations. Every mutation runs inside one unit
// of work holding a row lock on the wallet, so two concurrent debits against
// the same merchant serialize and each produces exactly one ledger entry.
type Service struct {
	uow    wallet.UnitOfWork
	logger *zap.Logger
}

// NewService creates a wallet service.
func NewService(uow wallet.UnitOfWork, logger *zap.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// CreateWallet provisions a wallet for a merchant.
func (s *Service) CreateWallet(ctx context.Context, merchantID uuid.UUID, creditLimit decimal.Decimal) (*BalanceResponse, error) {
	w, err := wallet.NewWallet(merchantID, creditLimit)
	if err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(repo wallet.Repository) error {
		if existing, findErr := repo.FindByMerchant(ctx, merchantID); findErr == nil && existing != nil {
			return shared.ErrAlreadyExists
		}
		return repo.Create(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return toBalanceResponse(w), nil
}

// GetBalance returns the wallet position for a merchant.
func (s *Service) GetBalance(ctx context.Context, merchantID uuid.UUID) (*BalanceResponse, error) {
	var resp *BalanceResponse
	err := s.uow.Do(ctx, func(repo wallet.Repository) error {
		w, err := repo.FindByMerchant(ctx, merchantID)
		if err != nil {
			return err
		}
		resp = toBalanceResponse(w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Debit charges a merchant's wallet for a shipment. The wallet row is locked
// for the duration, the balance check and mutation happen under that lock,
// and the ledger entry records the before and after balances.
func (s *Service) Debit(ctx context.Context, merchantID uuid.UUID, amount decimal.Decimal, orderRef string) (*MutationResult, error) {
	return s.mutate(ctx, merchantID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		before := w.Balance
		if err := w.Debit(amount); err != nil {
			return nil, err
		}
		tx, err := wallet.NewDebitTransaction(merchantID, amount, before)
		if err != nil {
			return nil, err
		}
		if orderRef != "" {
			tx = tx.WithOrderRef(orderRef)
		}
		return tx, nil
	})
}

// Credit adds funds to a merchant's wallet, typically a recharge.
func (s *Service) Credit(ctx context.Context, merchantID uuid.UUID, amount decimal.Decimal, reference string) (*MutationResult, error) {
	return s.mutate(ctx, merchantID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		before := w.Balance
		if err := w.Credit(amount); err != nil {
			return nil, err
		}
		tx, err := wallet.NewRechargeTransaction(merchantID, amount, before)
		if err != nil {
			return nil, err
		}
		if reference != "" {
			tx = tx.WithReference(reference)
		}
		return tx, nil
	})
}

// Refund returns a previously debited amount to the wallet, tagged with the
// order it reverses.
func (s *Service) Refund(ctx context.Context, merchantID uuid.UUID, amount decimal.Decimal, orderRef string) (*MutationResult, error) {
	return s.mutate(ctx, merchantID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		before := w.Balance
		if err := w.Credit(amount); err != nil {
			return nil, err
		}
		tx, err := wallet.NewRefundTransaction(merchantID, amount, before)
		if err != nil {
			return nil, err
		}
		if orderRef != "" {
			tx = tx.WithOrderRef(orderRef)
		}
		return tx, nil
	})
}

// ListTransactions returns a merchant's ledger, most recent first.
func (s *Service) ListTransactions(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*TransactionResponse, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var (
		entries []*wallet.Transaction
		total   int64
	)
	err := s.uow.Do(ctx, func(repo wallet.Repository) error {
		var listErr error
		entries, total, listErr = repo.ListTransactions(ctx, merchantID, limit, offset)
		return listErr
	})
	if err != nil {
		return nil, 0, err
	}
	resp := make([]*TransactionResponse, 0, len(entries))
	for _, tx := range entries {
		resp = append(resp, toTransactionResponse(tx))
	}
	return resp, total, nil
}

// mutate runs one balance mutation atomically: lock the wallet row, apply
// the change, persist the wallet and exactly one ledger entry.
func (s *Service) mutate(ctx context.Context, merchantID uuid.UUID, fn func(w *wallet.Wallet) (*wallet.Transaction, error)) (*MutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "wallet", "mutate")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrMerchantID, merchantID.String())

	var result *MutationResult
	err := s.uow.Do(ctx, func(repo wallet.Repository) error {
		w, err := repo.FindByMerchantForUpdate(ctx, merchantID)
		if err != nil {
			return err
		}
		tx, err := fn(w)
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, w); err != nil {
			return err
		}
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		result = &MutationResult{
			TransactionID: tx.GetID(),
			BalanceBefore: tx.BalanceBefore,
			BalanceAfter:  tx.BalanceAfter,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAmount, result.BalanceAfter.Sub(result.BalanceBefore).Abs().String())
	telemetry.SetOK(span)
	logger.For(ctx, s.logger).Info("wallet mutation applied",
		zap.String("merchant_id", merchantID.String()),
		zap.String("transaction_id", result.TransactionID.String()),
		zap.String("balance_after", result.BalanceAfter.String()),
	)
	return result, nil
}

func toBalanceResponse(w *wallet.Wallet) *BalanceResponse {
	return &BalanceResponse{
		MerchantID:       w.MerchantID,
		Balance:          w.Balance,
		CreditLimit:      w.CreditLimit,
		AvailableBalance: w.AvailableBalance(),
	}
}

func toTransactionResponse(tx *wallet.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:              tx.GetID(),
		MerchantID:      tx.MerchantID,
		TransactionType: tx.TransactionType.String(),
		Amount:          tx.Amount,
		BalanceBefore:   tx.BalanceBefore,
		BalanceAfter:    tx.BalanceAfter,
		OrderRef:        tx.OrderRef,
		Reference:       tx.Reference,
		TransactionDate: tx.TransactionDate,
	}
}
