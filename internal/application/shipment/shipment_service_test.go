package shipment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pricingapp "github.com/shipstack/backend/internal/application/pricing"
	walletapp "github.com/shipstack/backend/internal/application/wallet"
	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/pricing"
	"github.com/shipstack/backend/internal/domain/shared"
	"github.com/shipstack/backend/internal/domain/shipment"
	"github.com/shipstack/backend/internal/domain/wallet"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeAdapter struct {
	code          courier.CourierCode
	createResult  *courier.ShipmentResult
	createErr     error
	trackResult   *courier.TrackingResult
	cancelResult  *courier.CancelResult
	rate          decimal.Decimal
	rateErr       error
	createdReqs   []*courier.ShipmentRequest
	cancelledRefs []string
}

func (f *fakeAdapter) Code() courier.CourierCode { return f.code }

func (f *fakeAdapter) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.ShipmentResult, error) {
	f.createdReqs = append(f.createdReqs, req)
	return f.createResult, f.createErr
}

func (f *fakeAdapter) TrackShipment(ctx context.Context, ref string) (*courier.TrackingResult, error) {
	return f.trackResult, nil
}

func (f *fakeAdapter) CancelShipment(ctx context.Context, ref string) (*courier.CancelResult, error) {
	f.cancelledRefs = append(f.cancelledRefs, ref)
	return f.cancelResult, nil
}

// ratedAdapter adds the optional rate capability on top of fakeAdapter.
type ratedAdapter struct {
	*fakeAdapter
}

func (f *ratedAdapter) CalculateRate(ctx context.Context, req *courier.RateRequest) (*courier.RateResult, error) {
	if f.rateErr != nil {
		return nil, f.rateErr
	}
	return &courier.RateResult{Courier: f.code, TotalCharge: f.rate, Currency: "INR"}, nil
}

// deadlineRatedAdapter records whether the rate lookup ran under a deadline.
type deadlineRatedAdapter struct {
	*fakeAdapter
	sawDeadline bool
}

func (f *deadlineRatedAdapter) CalculateRate(ctx context.Context, req *courier.RateRequest) (*courier.RateResult, error) {
	_, f.sawDeadline = ctx.Deadline()
	return &courier.RateResult{Courier: f.code, TotalCharge: f.rate, Currency: "INR"}, nil
}

type fakeRegistry struct {
	adapters map[courier.CourierCode]courier.CourierService
}

func (r *fakeRegistry) Get(code courier.CourierCode) (courier.CourierService, error) {
	a, ok := r.adapters[code]
	if !ok {
		return nil, courier.ErrCourierNotConfigured
	}
	return a, nil
}

func (r *fakeRegistry) List() []courier.CourierCode {
	codes := make([]courier.CourierCode, 0, len(r.adapters))
	for c := range r.adapters {
		codes = append(codes, c)
	}
	return codes
}

func (r *fakeRegistry) IsSupported(code courier.CourierCode) bool {
	_, ok := r.adapters[code]
	return ok
}

type memOrderRepo struct {
	orders map[string]*shipment.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*shipment.Order)}
}

func (m *memOrderRepo) key(merchantID uuid.UUID, orderRef string) string {
	return merchantID.String() + "/" + orderRef
}

func (m *memOrderRepo) Create(ctx context.Context, o *shipment.Order) error {
	m.orders[m.key(o.MerchantID, o.OrderRef)] = o
	return nil
}

func (m *memOrderRepo) FindByOrderRef(ctx context.Context, merchantID uuid.UUID, orderRef string) (*shipment.Order, error) {
	o, ok := m.orders[m.key(merchantID, orderRef)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (m *memOrderRepo) FindByAWB(ctx context.Context, awbNumber string) (*shipment.Order, error) {
	for _, o := range m.orders {
		if o.AWBNumber == awbNumber {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memOrderRepo) Save(ctx context.Context, o *shipment.Order) error {
	m.orders[m.key(o.MerchantID, o.OrderRef)] = o
	return nil
}

func (m *memOrderRepo) ListUnbilled(ctx context.Context) ([]*shipment.Order, error) {
	var out []*shipment.Order
	for _, o := range m.orders {
		if o.BillingState == shipment.BillingStateUnbilled {
			out = append(out, o)
		}
	}
	return out, nil
}

type memWalletRepo struct {
	wallets      map[uuid.UUID]*wallet.Wallet
	transactions []*wallet.Transaction
}

func (m *memWalletRepo) Create(ctx context.Context, w *wallet.Wallet) error {
	m.wallets[w.MerchantID] = w
	return nil
}

func (m *memWalletRepo) FindByMerchant(ctx context.Context, merchantID uuid.UUID) (*wallet.Wallet, error) {
	w, ok := m.wallets[merchantID]
	if !ok {
		return nil, shared.ErrMerchantNotFound
	}
	return w, nil
}

func (m *memWalletRepo) FindByMerchantForUpdate(ctx context.Context, merchantID uuid.UUID) (*wallet.Wallet, error) {
	return m.FindByMerchant(ctx, merchantID)
}

func (m *memWalletRepo) Save(ctx context.Context, w *wallet.Wallet) error {
	m.wallets[w.MerchantID] = w
	return nil
}

func (m *memWalletRepo) CreateTransaction(ctx context.Context, tx *wallet.Transaction) error {
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *memWalletRepo) ListTransactions(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*wallet.Transaction, int64, error) {
	return nil, 0, nil
}

type memWalletUoW struct {
	repo *memWalletRepo
}

func (u *memWalletUoW) Do(ctx context.Context, fn func(repo wallet.Repository) error) error {
	return fn(u.repo)
}

type stubRuleRepo struct {
	rules []*pricing.RateRule
}

func (s *stubRuleRepo) Create(ctx context.Context, r *pricing.RateRule) error { return nil }
func (s *stubRuleRepo) FindByID(ctx context.Context, id uuid.UUID) (*pricing.RateRule, error) {
	return nil, shared.ErrNotFound
}
func (s *stubRuleRepo) FindApplicable(ctx context.Context, accountType pricing.AccountType, courierCode courier.CourierCode) ([]*pricing.RateRule, error) {
	return s.rules, nil
}
func (s *stubRuleRepo) List(ctx context.Context) ([]*pricing.RateRule, error) { return s.rules, nil }
func (s *stubRuleRepo) Save(ctx context.Context, r *pricing.RateRule) error   { return nil }

// ---------------------------------------------------------------------------
// harness
// ---------------------------------------------------------------------------

type harness struct {
	svc        *Service
	orderRepo  *memOrderRepo
	walletRepo *memWalletRepo
	walletSvc  *walletapp.Service
	merchantID uuid.UUID
}

func newHarness(t *testing.T, adapter courier.CourierService, rules []*pricing.RateRule, openingBalance int64) *harness {
	t.Helper()
	logger := zap.NewNop()

	walletRepo := &memWalletRepo{wallets: make(map[uuid.UUID]*wallet.Wallet)}
	walletSvc := walletapp.NewService(&memWalletUoW{repo: walletRepo}, logger)
	merchantID := uuid.New()
	_, err := walletSvc.CreateWallet(context.Background(), merchantID, decimal.Zero)
	require.NoError(t, err)
	if openingBalance > 0 {
		_, err = walletSvc.Credit(context.Background(), merchantID, decimal.NewFromInt(openingBalance), "opening")
		require.NoError(t, err)
	}

	registry := &fakeRegistry{adapters: map[courier.CourierCode]courier.CourierService{
		adapter.Code(): adapter,
	}}
	orderRepo := newMemOrderRepo()
	pricer := pricingapp.NewEngine(&stubRuleRepo{rules: rules}, logger)

	return &harness{
		svc:        NewService(registry, pricer, walletSvc, orderRepo, logger),
		orderRepo:  orderRepo,
		walletRepo: walletRepo,
		walletSvc:  walletSvc,
		merchantID: merchantID,
	}
}

func validRequest() *courier.ShipmentRequest {
	return &courier.ShipmentRequest{
		OrderRef: "ORD-1001",
		Consignee: courier.Address{
			Name: "Asha Rao", Phone: "9876543210",
			Line1: "12 MG Road", City: "Bengaluru", State: "KA", Pincode: "560001",
		},
		Pickup: courier.Address{
			Name: "Acme Warehouse", Phone: "9876500000",
			Line1: "Plot 4, Industrial Area", City: "Gurugram", State: "HR", Pincode: "122001",
		},
		WeightKg:           decimal.NewFromFloat(1.5),
		LengthCm:           decimal.NewFromInt(20),
		BreadthCm:          decimal.NewFromInt(15),
		HeightCm:           decimal.NewFromInt(10),
		PaymentMode:        courier.PaymentModePrepaid,
		DeclaredValue:      decimal.NewFromInt(1200),
		Quantity:           1,
		ProductDescription: "Apparel",
	}
}

func bookedAdapter() *ratedAdapter {
	return &ratedAdapter{fakeAdapter: &fakeAdapter{
		code: courier.CourierCodeDelhivery,
		createResult: &courier.ShipmentResult{
			Success:   true,
			AWBNumber: "AWB777",
			Courier:   courier.CourierCodeDelhivery,
		},
		rate:       decimal.NewFromInt(100),
	}}
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestCreateShipmentHappyPath(t *testing.T) {
	h := newHarness(t, bookedAdapter(), nil, 1000)

	resp, err := h.svc.CreateShipment(context.Background(), h.merchantID,
		pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "AWB777", resp.AWBNumber)
	// fallback 15% on 100 cost
	assert.True(t, resp.VendorCharge.Equal(decimal.NewFromInt(115)), "got %s", resp.VendorCharge)
	assert.True(t, resp.UsedFallbackPricing)
	assert.False(t, resp.BillingPending)

	order, err := h.orderRepo.FindByOrderRef(context.Background(), h.merchantID, "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, shipment.BillingStateBilled, order.BillingState)
	assert.True(t, order.VendorCharge.Equal(decimal.NewFromInt(115)))

	balance, err := h.walletSvc.GetBalance(context.Background(), h.merchantID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(885)))

	// ledger entry tagged with the order
	require.Len(t, h.walletRepo.transactions, 2)
	debitTx := h.walletRepo.transactions[1]
	require.NotNil(t, debitTx.OrderRef)
	assert.Equal(t, "ORD-1001", *debitTx.OrderRef)
}

func TestCreateShipmentWithConfiguredRule(t *testing.T) {
	rule, err := pricing.NewRateRule(pricing.AccountTypeB2C, courier.CourierCodeDelhivery,
		pricing.MarginTypePercentage, decimal.NewFromInt(20))
	require.NoError(t, err)
	h := newHarness(t, bookedAdapter(), []*pricing.RateRule{rule}, 1000)

	resp, err := h.svc.CreateShipment(context.Background(), h.merchantID,
		pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
	require.NoError(t, err)

	assert.True(t, resp.VendorCharge.Equal(decimal.NewFromInt(120)))
	assert.False(t, resp.UsedFallbackPricing)
}

func TestCreateShipmentCourierRejection(t *testing.T) {
	adapter := bookedAdapter()
	adapter.createResult = &courier.ShipmentResult{
		Success: false,
		Courier: courier.CourierCodeDelhivery,
		Error:   "pincode not serviceable",
	}
	h := newHarness(t, adapter, nil, 1000)

	resp, err := h.svc.CreateShipment(context.Background(), h.merchantID,
		pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, "pincode not serviceable", resp.Error)

	// nothing billed, nothing persisted
	_, findErr := h.orderRepo.FindByOrderRef(context.Background(), h.merchantID, "ORD-1001")
	assert.Error(t, findErr)
	balance, err := h.walletSvc.GetBalance(context.Background(), h.merchantID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(1000)))
}

func TestCreateShipmentDebitFailureRecordsUnbilled(t *testing.T) {
	// no opening balance and no credit limit: the debit must fail
	h := newHarness(t, bookedAdapter(), nil, 0)

	resp, err := h.svc.CreateShipment(context.Background(), h.merchantID,
		pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
	require.NoError(t, err)

	assert.True(t, resp.Success, "booked shipment must not be reported as failed")
	assert.True(t, resp.BillingPending)

	order, err := h.orderRepo.FindByOrderRef(context.Background(), h.merchantID, "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, shipment.BillingStateUnbilled, order.BillingState)

	unbilled, err := h.svc.ListUnbilled(context.Background())
	require.NoError(t, err)
	require.Len(t, unbilled, 1)
	assert.Equal(t, "ORD-1001", unbilled[0].OrderRef)
}

func TestCreateShipmentRateFailureUsesZeroCost(t *testing.T) {
	adapter := bookedAdapter()
	adapter.rateErr = courier.ErrCourierUnavailable
	h := newHarness(t, adapter, nil, 1000)

	resp, err := h.svc.CreateShipment(context.Background(), h.merchantID,
		pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	// 15% fallback margin on zero cost
	assert.True(t, resp.VendorCharge.IsZero(), "got %s", resp.VendorCharge)
}

func TestCreateShipmentRateLookupBoundedByTimeout(t *testing.T) {
	adapter := &deadlineRatedAdapter{fakeAdapter: &fakeAdapter{
		code: courier.CourierCodeDelhivery,
		createResult: &courier.ShipmentResult{
			Success:   true,
			AWBNumber: "AWB900",
			Courier:   courier.CourierCodeDelhivery,
		},
		rate: decimal.NewFromInt(80),
	}}
	h := newHarness(t, adapter, nil, 1000)
	WithRateQuoteTimeout(5 * time.Second)(h.svc)

	resp, err := h.svc.CreateShipment(context.Background(), h.merchantID,
		pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.True(t, adapter.sawDeadline, "rate lookup should run under the configured deadline")
}

func TestCreateShipmentDuplicateOrderRef(t *testing.T) {
	h := newHarness(t, bookedAdapter(), nil, 1000)
	_, err := h.svc.CreateShipment(context.Background(), h.merchantID,
		pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
	require.NoError(t, err)

	_, err = h.svc.CreateShipment(context.Background(), h.merchantID,
		pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestCreateShipmentUnknownCourier(t *testing.T) {
	h := newHarness(t, bookedAdapter(), nil, 1000)
	_, err := h.svc.CreateShipment(context.Background(), h.merchantID,
		pricing.AccountTypeB2C, courier.CourierCodeEkart, validRequest())
	assert.ErrorIs(t, err, courier.ErrCourierNotConfigured)
}

func TestTrackShipment(t *testing.T) {
	adapter := bookedAdapter()
	adapter.trackResult = &courier.TrackingResult{
		AWBNumber:     "AWB777",
		Courier:       courier.CourierCodeDelhivery,
		CurrentStatus: "In Transit",
		Events: []courier.TrackingEvent{
			{Status: "In Transit", Location: "Delhi Hub"},
		},
	}
	h := newHarness(t, adapter, nil, 1000)
	_, err := h.svc.CreateShipment(context.Background(), h.merchantID,
		pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
	require.NoError(t, err)

	resp, err := h.svc.TrackShipment(context.Background(), h.merchantID, "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, "IN_TRANSIT", resp.Status)
	assert.Equal(t, "In Transit", resp.CourierStatus)

	t.Run("unmapped status keeps last known", func(t *testing.T) {
		adapter.trackResult.CurrentStatus = "shipment vibing at hub"
		resp, err := h.svc.TrackShipment(context.Background(), h.merchantID, "ORD-1001")
		require.NoError(t, err)
		assert.Equal(t, "IN_TRANSIT", resp.Status)
		assert.Equal(t, "shipment vibing at hub", resp.CourierStatus)
	})
}

func TestCancelShipment(t *testing.T) {
	t.Run("billed order refunded on cancel", func(t *testing.T) {
		adapter := bookedAdapter()
		adapter.cancelResult = &courier.CancelResult{Success: true}
		h := newHarness(t, adapter, nil, 1000)
		_, err := h.svc.CreateShipment(context.Background(), h.merchantID,
			pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
		require.NoError(t, err)

		resp, err := h.svc.CancelShipment(context.Background(), h.merchantID, "ORD-1001")
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.True(t, resp.Refunded)

		balance, err := h.walletSvc.GetBalance(context.Background(), h.merchantID)
		require.NoError(t, err)
		assert.True(t, balance.Balance.Equal(decimal.NewFromInt(1000)), "got %s", balance.Balance)

		order, err := h.orderRepo.FindByOrderRef(context.Background(), h.merchantID, "ORD-1001")
		require.NoError(t, err)
		assert.Equal(t, courier.OrderStatusCancelled, order.Status)
	})

	t.Run("courier refusal propagates without refund", func(t *testing.T) {
		adapter := bookedAdapter()
		adapter.cancelResult = &courier.CancelResult{Success: false, Error: "already dispatched"}
		h := newHarness(t, adapter, nil, 1000)
		_, err := h.svc.CreateShipment(context.Background(), h.merchantID,
			pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
		require.NoError(t, err)

		resp, err := h.svc.CancelShipment(context.Background(), h.merchantID, "ORD-1001")
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, "already dispatched", resp.Error)

		balance, err := h.walletSvc.GetBalance(context.Background(), h.merchantID)
		require.NoError(t, err)
		assert.True(t, balance.Balance.Equal(decimal.NewFromInt(885)))
	})

	t.Run("delivered order cannot be cancelled", func(t *testing.T) {
		adapter := bookedAdapter()
		adapter.cancelResult = &courier.CancelResult{Success: true}
		h := newHarness(t, adapter, nil, 1000)
		_, err := h.svc.CreateShipment(context.Background(), h.merchantID,
			pricing.AccountTypeB2C, courier.CourierCodeDelhivery, validRequest())
		require.NoError(t, err)

		order, err := h.orderRepo.FindByOrderRef(context.Background(), h.merchantID, "ORD-1001")
		require.NoError(t, err)
		require.NoError(t, order.ApplyStatus(courier.OrderStatusDelivered))

		_, err = h.svc.CancelShipment(context.Background(), h.merchantID, "ORD-1001")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}
