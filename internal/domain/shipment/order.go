package shipment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/pricing"
	"github.com/shipstack/backend/internal/domain/shared"
)

// BillingState tracks whether the merchant has been charged for an order.
// UNBILLED marks the asymmetry where the courier accepted the shipment but
// the wallet debit failed; those orders need manual reconciliation.
type BillingState string

const (
	// BillingStateBilled means the wallet debit for this order succeeded
	BillingStateBilled BillingState = "BILLED"
	// BillingStateUnbilled means the shipment exists upstream but the
	// merchant could not be charged
	BillingStateUnbilled BillingState = "UNBILLED"
	// BillingStateNotApplicable means no charge was due (e.g. failed booking)
	BillingStateNotApplicable BillingState = "NOT_APPLICABLE"
)

// String returns the string representation of BillingState
func (s BillingState) String() string {
	return string(s)
}

// Order is the persisted record of one booked shipment.
type Order struct {
	shared.BaseEntity
	MerchantID  uuid.UUID
	AccountType pricing.AccountType
	Courier     courier.CourierCode
	// OrderRef is the caller-supplied order identifier, unique per merchant
	OrderRef string
	// AWBNumber is the courier-assigned tracking identifier
	AWBNumber    string
	Status       courier.OrderStatus
	PaymentMode  courier.PaymentMode
	CODAmount    decimal.Decimal
	WeightKg     decimal.Decimal
	CourierCost  decimal.Decimal
	VendorCharge decimal.Decimal
	BillingState BillingState
	LabelURL     string
	TrackingURL  string
}

// NewOrder creates an order record for a successfully booked shipment.
func NewOrder(
	merchantID uuid.UUID,
	accountType pricing.AccountType,
	courierCode courier.CourierCode,
	orderRef string,
	awbNumber string,
) (*Order, error) {
	if merchantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant ID cannot be empty")
	}
	if orderRef == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_REF", "Order reference cannot be empty")
	}
	if awbNumber == "" {
		return nil, shared.NewDomainError("INVALID_AWB", "AWB number cannot be empty")
	}
	return &Order{
		BaseEntity:   shared.NewBaseEntity(),
		MerchantID:   merchantID,
		AccountType:  accountType,
		Courier:      courierCode,
		OrderRef:     orderRef,
		AWBNumber:    awbNumber,
		Status:       courier.OrderStatusManifested,
		BillingState: BillingStateNotApplicable,
	}, nil
}

// MarkBilled records a successful wallet debit for this order.
func (o *Order) MarkBilled(courierCost, vendorCharge decimal.Decimal) {
	o.CourierCost = courierCost
	o.VendorCharge = vendorCharge
	o.BillingState = BillingStateBilled
}

// MarkUnbilled records that the shipment exists upstream but billing failed.
func (o *Order) MarkUnbilled(courierCost, vendorCharge decimal.Decimal) {
	o.CourierCost = courierCost
	o.VendorCharge = vendorCharge
	o.BillingState = BillingStateUnbilled
}

// ApplyStatus transitions the order to a new canonical status. Terminal
// states are sticky.
func (o *Order) ApplyStatus(next courier.OrderStatus) error {
	if !next.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status")
	}
	if o.Status.IsTerminal() {
		return shared.ErrInvalidState
	}
	o.Status = next
	return nil
}

// ApplyRawStatus normalizes free-text courier status and applies it. Unmapped
// text leaves the current status untouched and reports false; the last known
// status must never be overwritten by a guess.
func (o *Order) ApplyRawStatus(raw string) (bool, error) {
	status, ok := courier.NormalizeStatus(raw)
	if !ok {
		return false, nil
	}
	if err := o.ApplyStatus(status); err != nil {
		return false, err
	}
	return true, nil
}

// Repository is the port for shipment-order persistence.
type Repository interface {
	// Create persists a new order record
	Create(ctx context.Context, o *Order) error

	// FindByOrderRef returns a merchant's order by its order reference
	FindByOrderRef(ctx context.Context, merchantID uuid.UUID, orderRef string) (*Order, error)

	// FindByAWB returns an order by its courier tracking identifier
	FindByAWB(ctx context.Context, awbNumber string) (*Order, error)

	// Save persists changes to an existing order
	Save(ctx context.Context, o *Order) error

	// ListUnbilled returns orders awaiting manual billing reconciliation
	ListUnbilled(ctx context.Context) ([]*Order, error)
}
