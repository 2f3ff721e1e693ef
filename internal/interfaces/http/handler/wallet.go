package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	walletapp "github.com/shipstack/backend/internal/application/wallet"
	"github.com/shipstack/backend/internal/interfaces/http/dto"
)

// WalletService is the application-layer surface the handler forwards to.
type WalletService interface {
	CreateWallet(ctx context.Context, merchantID uuid.UUID, creditLimit decimal.Decimal) (*walletapp.BalanceResponse, error)
	GetBalance(ctx context.Context, merchantID uuid.UUID) (*walletapp.BalanceResponse, error)
	Credit(ctx context.Context, merchantID uuid.UUID, amount decimal.Decimal, reference string) (*walletapp.MutationResult, error)
	ListTransactions(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*walletapp.TransactionResponse, int64, error)
}

// CreateWalletRequest opens a ledger for a merchant.
type CreateWalletRequest struct {
	CreditLimit float64 `json:"credit_limit" binding:"omitempty,gte=0"`
}

// RechargeRequest adds funds to the merchant wallet.
type RechargeRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Reference string  `json:"reference" binding:"required,max=128"`
}

// WalletHandler handles wallet balance and ledger endpoints.
type WalletHandler struct {
	BaseHandler
	service WalletService
	// defaultCreditLimit applies when provisioning omits a credit limit
	defaultCreditLimit decimal.Decimal
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(service WalletService, defaultCreditLimit decimal.Decimal) *WalletHandler {
	return &WalletHandler{service: service, defaultCreditLimit: defaultCreditLimit}
}

// RegisterRoutes registers wallet routes
func (h *WalletHandler) RegisterRoutes(rg *gin.RouterGroup) {
	wallet := rg.Group("/wallet")
	{
		wallet.POST("", h.Create)
		wallet.GET("/balance", h.Balance)
		wallet.POST("/recharge", h.Recharge)
		wallet.GET("/transactions", h.Transactions)
	}
}

// Create opens a wallet for the calling merchant
func (h *WalletHandler) Create(c *gin.Context) {
	merchantID, err := getMerchantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	creditLimit := toDecimal(req.CreditLimit)
	if creditLimit.IsZero() {
		creditLimit = h.defaultCreditLimit
	}

	resp, err := h.service.CreateWallet(c.Request.Context(), merchantID, creditLimit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Balance returns the current balance and credit limit
func (h *WalletHandler) Balance(c *gin.Context) {
	merchantID, err := getMerchantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.GetBalance(c.Request.Context(), merchantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Recharge credits funds against a payment reference
func (h *WalletHandler) Recharge(c *gin.Context) {
	merchantID, err := getMerchantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Credit(c.Request.Context(), merchantID, toDecimal(req.Amount), req.Reference)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Transactions lists the merchant's ledger entries, newest first
func (h *WalletHandler) Transactions(c *gin.Context) {
	merchantID, err := getMerchantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Limit == 0 {
		req.Limit = 50
	}

	txns, total, err := h.service.ListTransactions(c.Request.Context(), merchantID, req.Limit, req.Offset)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, txns, total, req.Limit, req.Offset)
}
