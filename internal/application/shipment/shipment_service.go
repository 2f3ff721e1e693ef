package shipment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	pricingapp "github.com/shipstack/backend/internal/application/pricing"
	walletapp "github.com/shipstack/backend/internal/application/wallet"
	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/pricing"
	"github.com/shipstack/backend/internal/domain/shared"
	"github.com/shipstack/backend/internal/domain/shipment"
	"github.com/shipstack/backend/internal/infrastructure/logger"
	"github.com/shipstack/backend/internal/infrastructure/telemetry"
)

// CreateShipmentResponse is the outcome of booking a shipment.
type CreateShipmentResponse struct {
	Success   bool                `json:"success"`
	OrderRef  string              `json:"order_ref"`
	AWBNumber string              `json:"awb_number,omitempty"`
	Courier   courier.CourierCode `json:"courier"`
	Status    string              `json:"status,omitempty"`
	// VendorCharge is the amount debited from the merchant's wallet
	VendorCharge decimal.Decimal `json:"vendor_charge"`
	// UsedFallbackPricing reports that no configured rate rule matched
	UsedFallbackPricing bool `json:"used_fallback_pricing,omitempty"`
	// BillingPending is set when the courier accepted the shipment but the
	// wallet debit failed; the order is recorded UNBILLED for reconciliation
	BillingPending bool   `json:"billing_pending,omitempty"`
	LabelURL       string `json:"label_url,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`
	Error          string `json:"error,omitempty"`
}

// TrackShipmentResponse is the normalized tracking view of one order.
type TrackShipmentResponse struct {
	OrderRef  string              `json:"order_ref"`
	AWBNumber string              `json:"awb_number"`
	Courier   courier.CourierCode `json:"courier"`
	// Status is the canonical order status after applying the latest scan
	Status string `json:"status"`
	// CourierStatus is the courier's own free-text status
	CourierStatus string                  `json:"courier_status"`
	Events        []courier.TrackingEvent `json:"events"`
}

// CancelShipmentResponse is the outcome of a cancellation attempt.
type CancelShipmentResponse struct {
	Success  bool   `json:"success"`
	Refunded bool   `json:"refunded"`
	Error    string `json:"error,omitempty"`
}

// Service orchestrates the booking pipeline: courier booking, pricing,
// wallet billing, and order persistence.
type Service struct {
	registry         courier.CourierRegistry
	pricer           *pricingapp.Engine
	wallet           *walletapp.Service
	orderRepo        shipment.Repository
	logger           *zap.Logger
	rateQuoteTimeout time.Duration
}

// ServiceOption configures optional service behavior.
type ServiceOption func(*Service)

// WithRateQuoteTimeout bounds each courier rate lookup during booking.
// Zero disables the bound.
func WithRateQuoteTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.rateQuoteTimeout = d
	}
}

// NewService creates a shipment service.
func NewService(
	registry courier.CourierRegistry,
	pricer *pricingapp.Engine,
	wallet *walletapp.Service,
	orderRepo shipment.Repository,
	logger *zap.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		registry:  registry,
		pricer:    pricer,
		wallet:    wallet,
		orderRepo: orderRepo,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateShipment books a shipment with the selected courier and bills the
// merchant. Booking happens before billing: once the courier has accepted
// the parcel, a billing failure must not lose the shipment, so the order is
// persisted UNBILLED and flagged for reconciliation instead.
func (s *Service) CreateShipment(
	ctx context.Context,
	merchantID uuid.UUID,
	accountType pricing.AccountType,
	courierCode courier.CourierCode,
	req *courier.ShipmentRequest,
) (*CreateShipmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipment", "create_shipment")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrMerchantID, merchantID.String(),
		telemetry.SpanAttrAccountType, string(accountType),
		telemetry.SpanAttrCourier, courierCode.String(),
		telemetry.SpanAttrOrderRef, req.OrderRef,
	)

	if err := req.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Invalid account type")
	}
	if existing, err := s.orderRepo.FindByOrderRef(ctx, merchantID, req.OrderRef); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	adapter, err := s.registry.Get(courierCode)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result, err := adapter.CreateShipment(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !result.Success {
		s.log(ctx).Warn("courier rejected shipment",
			zap.String("courier", courierCode.String()),
			zap.String("order_ref", req.OrderRef),
			zap.String("error", result.Error),
		)
		return &CreateShipmentResponse{
			Success:  false,
			OrderRef: req.OrderRef,
			Courier:  courierCode,
			Error:    result.Error,
		}, nil
	}

	order, err := shipment.NewOrder(merchantID, accountType, courierCode, req.OrderRef, result.AWBNumber)
	if err != nil {
		return nil, err
	}
	order.PaymentMode = req.PaymentMode
	order.CODAmount = req.CODAmount
	order.WeightKg = req.WeightKg
	order.LabelURL = result.LabelURL
	order.TrackingURL = result.TrackingURL

	courierCost := s.quoteCost(ctx, adapter, req)
	priced, err := s.pricer.Price(ctx, accountType, courierCode, req.WeightKg, courierCost)
	if err != nil {
		return nil, err
	}

	resp := &CreateShipmentResponse{
		Success:             true,
		OrderRef:            req.OrderRef,
		AWBNumber:           result.AWBNumber,
		Courier:             courierCode,
		Status:              order.Status.String(),
		VendorCharge:        priced.VendorCharge,
		UsedFallbackPricing: priced.UsedFallback,
		LabelURL:            result.LabelURL,
		TrackingURL:         result.TrackingURL,
	}

	if _, debitErr := s.wallet.Debit(ctx, merchantID, priced.VendorCharge, req.OrderRef); debitErr != nil {
		order.MarkUnbilled(priced.CourierCost, priced.VendorCharge)
		resp.BillingPending = true
		s.log(ctx).Error("shipment booked but wallet debit failed, order recorded unbilled",
			zap.String("merchant_id", merchantID.String()),
			zap.String("order_ref", req.OrderRef),
			zap.String("awb", result.AWBNumber),
			zap.String("vendor_charge", priced.VendorCharge.String()),
			zap.Error(debitErr),
		)
	} else {
		order.MarkBilled(priced.CourierCost, priced.VendorCharge)
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		// The shipment exists upstream; losing the record is worse than a
		// duplicate booking attempt, so surface loudly.
		s.log(ctx).Error("failed to persist booked shipment",
			zap.String("order_ref", req.OrderRef),
			zap.String("awb", result.AWBNumber),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrAWBNumber, result.AWBNumber,
		telemetry.SpanAttrVendorCharge, priced.VendorCharge.String(),
	)
	telemetry.SetOK(span)
	return resp, nil
}

// log binds the service logger to the request context so entries carry the
// request id, merchant id and trace ids of the operation that produced them.
func (s *Service) log(ctx context.Context) *logger.ContextLogger {
	return logger.For(ctx, s.logger)
}

// quoteCost asks the courier for its rate when the adapter supports rate
// calculation. A missing or failing rate API yields zero cost with a warning
// rather than blocking the booking; pricing then charges margin on zero. The
// lookup is bounded by the configured rate-quote timeout so a stalling rate
// endpoint cannot hold up a booking the courier already accepted.
func (s *Service) quoteCost(ctx context.Context, adapter courier.CourierService, req *courier.ShipmentRequest) decimal.Decimal {
	calc, ok := adapter.(courier.RateCalculator)
	if !ok {
		s.log(ctx).Warn("courier has no rate api, using zero cost",
			zap.String("courier", adapter.Code().String()),
			zap.String("order_ref", req.OrderRef),
		)
		return decimal.Zero
	}
	if s.rateQuoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.rateQuoteTimeout)
		defer cancel()
	}
	rate, err := calc.CalculateRate(ctx, &courier.RateRequest{
		PickupPincode:   req.Pickup.Pincode,
		DeliveryPincode: req.Consignee.Pincode,
		WeightKg:        req.WeightKg,
		LengthCm:        req.LengthCm,
		BreadthCm:       req.BreadthCm,
		HeightCm:        req.HeightCm,
		PaymentMode:     req.PaymentMode,
		CODAmount:       req.CODAmount,
	})
	if err != nil {
		s.log(ctx).Warn("courier rate lookup failed, using zero cost",
			zap.String("courier", adapter.Code().String()),
			zap.String("order_ref", req.OrderRef),
			zap.Error(err),
		)
		return decimal.Zero
	}
	return rate.TotalCharge
}

// TrackShipment fetches tracking from the courier, normalizes the courier's
// status text, and applies it to the stored order. Status text that maps to
// no canonical status leaves the order's last known status in place.
func (s *Service) TrackShipment(ctx context.Context, merchantID uuid.UUID, orderRef string) (*TrackShipmentResponse, error) {
	order, err := s.orderRepo.FindByOrderRef(ctx, merchantID, orderRef)
	if err != nil {
		return nil, err
	}
	adapter, err := s.registry.Get(order.Courier)
	if err != nil {
		return nil, err
	}
	tracking, err := adapter.TrackShipment(ctx, order.AWBNumber)
	if err != nil {
		return nil, err
	}

	applied, err := order.ApplyRawStatus(tracking.CurrentStatus)
	if err != nil && !errors.Is(err, shared.ErrInvalidState) {
		return nil, err
	}
	if applied {
		if err := s.orderRepo.Save(ctx, order); err != nil {
			return nil, err
		}
	} else if err == nil {
		s.log(ctx).Debug("unmapped courier status, keeping last known",
			zap.String("courier", order.Courier.String()),
			zap.String("raw_status", tracking.CurrentStatus),
			zap.String("last_known", order.Status.String()),
		)
	}

	return &TrackShipmentResponse{
		OrderRef:      order.OrderRef,
		AWBNumber:     order.AWBNumber,
		Courier:       order.Courier,
		Status:        order.Status.String(),
		CourierStatus: tracking.CurrentStatus,
		Events:        tracking.Events,
	}, nil
}

// CancelShipment cancels an order with its courier. A billed order that the
// courier confirms cancelled is refunded in full to the merchant's wallet.
func (s *Service) CancelShipment(ctx context.Context, merchantID uuid.UUID, orderRef string) (*CancelShipmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipment", "cancel_shipment")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrMerchantID, merchantID.String(),
		telemetry.SpanAttrOrderRef, orderRef,
	)

	order, err := s.orderRepo.FindByOrderRef(ctx, merchantID, orderRef)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, shared.ErrInvalidState
	}
	adapter, err := s.registry.Get(order.Courier)
	if err != nil {
		return nil, err
	}

	result, err := adapter.CancelShipment(ctx, order.AWBNumber)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return &CancelShipmentResponse{Success: false, Error: result.Error}, nil
	}

	if err := order.ApplyStatus(courier.OrderStatusCancelled); err != nil {
		return nil, err
	}

	refunded := false
	if order.BillingState == shipment.BillingStateBilled && order.VendorCharge.IsPositive() {
		if _, refundErr := s.wallet.Refund(ctx, merchantID, order.VendorCharge, order.OrderRef); refundErr != nil {
			s.log(ctx).Error("cancellation refund failed",
				zap.String("merchant_id", merchantID.String()),
				zap.String("order_ref", order.OrderRef),
				zap.String("amount", order.VendorCharge.String()),
				zap.Error(refundErr),
			)
		} else {
			refunded = true
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return &CancelShipmentResponse{Success: true, Refunded: refunded}, nil
}

// ListUnbilled returns orders booked upstream whose wallet debit failed.
func (s *Service) ListUnbilled(ctx context.Context) ([]*shipment.Order, error) {
	return s.orderRepo.ListUnbilled(ctx)
}
