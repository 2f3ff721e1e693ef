package courier

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// CourierService Errors
// ---------------------------------------------------------------------------

var (
	ErrCourierNotSupported    = errors.New("courier: courier not supported")
	ErrCourierNotConfigured   = errors.New("courier: courier not configured")
	ErrCourierUnavailable     = errors.New("courier: courier temporarily unavailable")
	ErrCourierRequestFailed   = errors.New("courier: courier request failed")
	ErrCourierInvalidResponse = errors.New("courier: invalid courier response")
	ErrCourierAuthFailed      = errors.New("courier: courier authentication failed")
	ErrCancelNotSupported     = errors.New("courier: cancellation not supported")
	ErrShipmentNotFound       = errors.New("courier: shipment not found")

	ErrInvalidPaymentMode = errors.New("courier: invalid payment mode")
	ErrInvalidWeight      = errors.New("courier: package weight must be positive")
	ErrInvalidQuantity    = errors.New("courier: quantity must be at least one")
	ErrCODAmountMismatch  = errors.New("courier: cod amount must be set for COD and zero for prepaid")
)

// ---------------------------------------------------------------------------
// CourierCode represents a supported courier partner
// ---------------------------------------------------------------------------

// CourierCode identifies a courier partner. The set is closed; adding a
// courier means adding a new adapter, never extending existing ones.
type CourierCode string

const (
	// CourierCodeDelhivery represents the Delhivery courier API
	CourierCodeDelhivery CourierCode = "DELHIVERY"
	// CourierCodeBlitz represents the Blitz same-day courier API
	CourierCodeBlitz CourierCode = "BLITZ"
	// CourierCodeEkart represents the Ekart logistics API
	CourierCodeEkart CourierCode = "EKART"
	// CourierCodeXpressbees represents the Xpressbees courier API
	CourierCodeXpressbees CourierCode = "XPRESSBEES"
	// CourierCodeInnofulfill represents the Innofulfill fulfillment API
	CourierCodeInnofulfill CourierCode = "INNOFULFILL"
)

// IsValid returns true if the courier code is valid
func (c CourierCode) IsValid() bool {
	switch c {
	case CourierCodeDelhivery, CourierCodeBlitz, CourierCodeEkart,
		CourierCodeXpressbees, CourierCodeInnofulfill:
		return true
	default:
		return false
	}
}

// String returns the string representation of CourierCode
func (c CourierCode) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// PaymentMode
// ---------------------------------------------------------------------------

// PaymentMode represents how the shipment is paid for by the end customer
type PaymentMode string

const (
	// PaymentModePrepaid indicates the order was paid online
	PaymentModePrepaid PaymentMode = "PREPAID"
	// PaymentModeCOD indicates cash is collected on delivery
	PaymentModeCOD PaymentMode = "COD"
)

// IsValid returns true if the payment mode is valid
func (m PaymentMode) IsValid() bool {
	return m == PaymentModePrepaid || m == PaymentModeCOD
}

// String returns the string representation of PaymentMode
func (m PaymentMode) String() string {
	return string(m)
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Address holds one party's contact and location details.
// Pincode format validation is the caller's responsibility.
type Address struct {
	Name    string `validate:"required"`
	Phone   string `validate:"required"`
	Email   string
	Line1   string `validate:"required"`
	Line2   string
	City    string
	State   string
	Pincode string `validate:"required"`
	Country string
}

// ShipmentRequest is the courier-agnostic shipment creation request.
// Canonical units: weight in kilograms, dimensions in centimeters; each
// adapter converts to its courier's native units internally.
type ShipmentRequest struct {
	// OrderRef is the caller-supplied order identifier, unique per merchant
	OrderRef string `validate:"required"`
	// Consignee is the delivery party
	Consignee Address `validate:"required"`
	// Pickup is the pickup party (usually the merchant's warehouse)
	Pickup Address `validate:"required"`
	// WeightKg is the package weight in kilograms
	WeightKg decimal.Decimal
	// LengthCm, BreadthCm, HeightCm are package dimensions in centimeters
	LengthCm  decimal.Decimal
	BreadthCm decimal.Decimal
	HeightCm  decimal.Decimal
	// PaymentMode is PREPAID or COD
	PaymentMode PaymentMode
	// CODAmount is the collectable amount; zero unless PaymentMode is COD
	CODAmount decimal.Decimal
	// DeclaredValue is the declared total value of the shipment
	DeclaredValue decimal.Decimal
	// Quantity is the number of items in the package
	Quantity int
	// ProductDescription describes the package contents
	ProductDescription string
}

// Validate checks the cross-field invariants of the request.
func (r *ShipmentRequest) Validate() error {
	if r.OrderRef == "" {
		return errors.New("courier: order reference is required")
	}
	if !r.PaymentMode.IsValid() {
		return ErrInvalidPaymentMode
	}
	if !r.WeightKg.IsPositive() {
		return ErrInvalidWeight
	}
	if r.PaymentMode == PaymentModeCOD && !r.CODAmount.IsPositive() {
		return ErrCODAmountMismatch
	}
	if r.PaymentMode == PaymentModePrepaid && !r.CODAmount.IsZero() {
		return ErrCODAmountMismatch
	}
	if r.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// ShipmentResult is the normalized outcome of a create-shipment call.
// Invariant: Success implies a non-empty AWBNumber. An upstream response that
// carries a usable tracking identifier is a success even when the courier's
// own status field says otherwise; dropping it would leave a live shipment
// untracked and unbilled.
type ShipmentResult struct {
	Success bool
	// AWBNumber is the courier-assigned tracking identifier
	AWBNumber string
	// Courier identifies which adapter produced this result
	Courier CourierCode
	// LabelURL points at the courier's label, when provided
	LabelURL string
	// TrackingURL points at the courier's public tracking page, when known
	TrackingURL string
	// Error is the normalized human-readable failure reason; empty on success
	Error string
	// RawResponse retains the upstream payload for diagnostics
	RawResponse string
}

// TrackingEvent is a single scan/status entry from a courier. Event text is
// courier-native; only the terminal order status is canonicalized via
// NormalizeStatus.
type TrackingEvent struct {
	Status     string
	StatusCode string
	Location   string
	Remarks    string
	Timestamp  time.Time
}

// TrackingResult is the normalized outcome of a track-shipment call.
// Events are ordered most-recent-first.
type TrackingResult struct {
	AWBNumber     string
	Courier       CourierCode
	CurrentStatus string
	Events        []TrackingEvent
	RawResponse   string
}

// CancelResult is the normalized outcome of a cancel-shipment call.
type CancelResult struct {
	Success bool
	Error   string
}

// RateRequest asks a courier for the cost of a prospective shipment.
type RateRequest struct {
	PickupPincode   string
	DeliveryPincode string
	WeightKg        decimal.Decimal
	LengthCm        decimal.Decimal
	BreadthCm       decimal.Decimal
	HeightCm        decimal.Decimal
	PaymentMode     PaymentMode
	CODAmount       decimal.Decimal
}

// RateResult is a courier's quoted cost for a shipment.
type RateResult struct {
	Courier     CourierCode
	TotalCharge decimal.Decimal
	Currency    string
	RawResponse string
}

// ServiceabilityResult reports whether a courier can serve a route.
type ServiceabilityResult struct {
	Serviceable      bool
	PrepaidAvailable bool
	CODAvailable     bool
}

// ---------------------------------------------------------------------------
// CourierService Port Interface
// ---------------------------------------------------------------------------

// CourierService is the port interface every courier adapter implements.
// Implementations live in the infrastructure layer and encapsulate the
// courier's auth scheme, unit conventions, and payload shape. Ordinary
// business failures (serviceability gap, invalid address) surface inside the
// result types, never as returned errors; returned errors are reserved for
// transport-level and unexpected failures.
type CourierService interface {
	// Code returns the courier this adapter handles
	Code() CourierCode

	// CreateShipment books a shipment with the courier
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResult, error)

	// TrackShipment returns the normalized tracking history for an AWB or the
	// original order reference, whichever the courier accepts
	TrackShipment(ctx context.Context, ref string) (*TrackingResult, error)

	// CancelShipment cancels a shipment best-effort. Couriers without a
	// cancellation API return CancelResult{Success: false} with an
	// explanation rather than an error.
	CancelShipment(ctx context.Context, ref string) (*CancelResult, error)
}

// RateCalculator is an optional capability: couriers exposing a rate API
// implement it. Absence is a capability gap, not an error.
type RateCalculator interface {
	CalculateRate(ctx context.Context, req *RateRequest) (*RateResult, error)
}

// ServiceabilityChecker is an optional capability: couriers exposing a
// pincode serviceability API implement it.
type ServiceabilityChecker interface {
	CheckServiceability(ctx context.Context, pickupPincode, deliveryPincode string) (*ServiceabilityResult, error)
}

// ---------------------------------------------------------------------------
// CourierRegistry Port Interface
// ---------------------------------------------------------------------------

// CourierRegistry provides lookup of configured courier adapters.
type CourierRegistry interface {
	// Get returns the adapter for the given courier code
	Get(code CourierCode) (CourierService, error)

	// List returns the codes of all registered couriers
	List() []CourierCode

	// IsSupported returns true if an adapter is registered for the code
	IsSupported(code CourierCode) bool
}
