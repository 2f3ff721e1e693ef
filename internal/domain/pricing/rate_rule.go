package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/shared"
)

// ErrNegativeCost indicates a courier cost below zero was offered for pricing
var ErrNegativeCost = shared.NewDomainError("NEGATIVE_COST", "Courier cost cannot be negative")

// AccountType classifies a merchant account for pricing purposes
type AccountType string

const (
	// AccountTypeB2B is a business-to-business merchant account
	AccountTypeB2B AccountType = "B2B"
	// AccountTypeB2C is a business-to-consumer merchant account
	AccountTypeB2C AccountType = "B2C"
)

// IsValid returns true if the account type is valid
func (t AccountType) IsValid() bool {
	return t == AccountTypeB2B || t == AccountTypeB2C
}

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// MarginType determines how a rule's margin value is applied
type MarginType string

const (
	// MarginTypePercentage applies value as a percentage of courier cost
	MarginTypePercentage MarginType = "percentage"
	// MarginTypeFlat applies value directly as the margin amount
	MarginTypeFlat MarginType = "flat"
)

// IsValid returns true if the margin type is valid
func (t MarginType) IsValid() bool {
	return t == MarginTypePercentage || t == MarginTypeFlat
}

// String returns the string representation of MarginType
func (t MarginType) String() string {
	return string(t)
}

// RateRule is a persisted margin rule scoped by account type, courier, and an
// optional weight band. The band is half-open: [MinWeightKg, MaxWeightKg).
// Rules with a defined band are more specific than unbounded rules and win
// rule resolution.
type RateRule struct {
	shared.BaseEntity
	AccountType AccountType
	Courier     courier.CourierCode
	// MinWeightKg and MaxWeightKg bound the applicable weight band in
	// kilograms; both nil means the rule applies at any weight
	MinWeightKg *decimal.Decimal
	MaxWeightKg *decimal.Decimal
	MarginType  MarginType
	MarginValue decimal.Decimal
	Active      bool
}

// NewRateRule creates a rate rule without a weight band.
func NewRateRule(accountType AccountType, courierCode courier.CourierCode, marginType MarginType, marginValue decimal.Decimal) (*RateRule, error) {
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Invalid account type")
	}
	if !courierCode.IsValid() {
		return nil, shared.NewDomainError("INVALID_COURIER", "Invalid courier code")
	}
	if !marginType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MARGIN_TYPE", "Invalid margin type")
	}
	if marginValue.IsNegative() {
		return nil, shared.NewDomainError("INVALID_MARGIN_VALUE", "Margin value cannot be negative")
	}

	return &RateRule{
		BaseEntity:  shared.NewBaseEntity(),
		AccountType: accountType,
		Courier:     courierCode,
		MarginType:  marginType,
		MarginValue: marginValue,
		Active:      true,
	}, nil
}

// WithWeightBand scopes the rule to the half-open band [minKg, maxKg).
func (r *RateRule) WithWeightBand(minKg, maxKg decimal.Decimal) (*RateRule, error) {
	if minKg.IsNegative() {
		return nil, shared.NewDomainError("INVALID_WEIGHT_BAND", "Minimum weight cannot be negative")
	}
	if !maxKg.GreaterThan(minKg) {
		return nil, shared.NewDomainError("INVALID_WEIGHT_BAND", "Maximum weight must exceed minimum weight")
	}
	r.MinWeightKg = &minKg
	r.MaxWeightKg = &maxKg
	return r, nil
}

// HasWeightBand returns true when the rule is scoped to a weight band.
func (r *RateRule) HasWeightBand() bool {
	return r.MinWeightKg != nil && r.MaxWeightKg != nil
}

// BandWidth returns the width of the rule's weight band; zero for unbounded
// rules. Narrower bands are preferred during rule resolution.
func (r *RateRule) BandWidth() decimal.Decimal {
	if !r.HasWeightBand() {
		return decimal.Zero
	}
	return r.MaxWeightKg.Sub(*r.MinWeightKg)
}

// AppliesTo returns true when the rule covers the given weight. Unbounded
// rules apply at any weight.
func (r *RateRule) AppliesTo(weightKg decimal.Decimal) bool {
	if !r.Active {
		return false
	}
	if !r.HasWeightBand() {
		return true
	}
	return weightKg.GreaterThanOrEqual(*r.MinWeightKg) && weightKg.LessThan(*r.MaxWeightKg)
}

// MarginFor computes the margin amount for a courier cost under this rule.
func (r *RateRule) MarginFor(courierCost decimal.Decimal) decimal.Decimal {
	if r.MarginType == MarginTypeFlat {
		return r.MarginValue
	}
	return courierCost.Mul(r.MarginValue).Div(decimal.NewFromInt(100))
}

// Deactivate marks the rule inactive; inactive rules never match.
func (r *RateRule) Deactivate() {
	r.Active = false
}
