package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/pricing"
	"github.com/shipstack/backend/internal/infrastructure/logger"
)

// Fallback margins applied when no rate rule matches. These mirror the
// contractual defaults for each account class.
var (
	fallbackMarginB2B = decimal.NewFromInt(10)
	fallbackMarginB2C = decimal.NewFromInt(15)
)

// PricingResult is the outcome of pricing one shipment.
type PricingResult struct {
	// CourierCost is the raw cost quoted by the courier
	CourierCost decimal.Decimal `json:"courier_cost"`
	// VendorCharge is the amount billed to the merchant, rounded to 2dp
	VendorCharge decimal.Decimal `json:"vendor_charge"`
	// Margin is the applied margin, rounded to 2dp independently of the charge
	Margin      decimal.Decimal    `json:"margin"`
	MarginType  pricing.MarginType `json:"margin_type"`
	MarginValue decimal.Decimal    `json:"margin_value"`
	// RuleID identifies the applied rate rule, nil when the fallback was used
	RuleID *uuid.UUID `json:"rule_id,omitempty"`
	// UsedFallback reports that no configured rule matched
	UsedFallback bool `json:"used_fallback"`
}

// Engine computes the merchant-facing charge for a shipment from the
// courier's raw cost and the configured margin rules.
type Engine struct {
	ruleRepo pricing.RateRuleRepository
	logger   *zap.Logger
}

// NewEngine creates a pricing engine.
func NewEngine(ruleRepo pricing.RateRuleRepository, logger *zap.Logger) *Engine {
	return &Engine{
		ruleRepo: ruleRepo,
		logger:   logger,
	}
}

// Price computes the vendor charge for a shipment. Candidate rules are
// filtered by account type, courier and weight band; when several bands
// contain the weight the narrowest one wins. When no rule matches the
// account-type fallback percentage applies and the result is flagged.
func (e *Engine) Price(
	ctx context.Context,
	accountType pricing.AccountType,
	courierCode courier.CourierCode,
	weightKg decimal.Decimal,
	courierCost decimal.Decimal,
) (*PricingResult, error) {
	if courierCost.IsNegative() {
		return nil, pricing.ErrNegativeCost
	}

	rules, err := e.ruleRepo.FindApplicable(ctx, accountType, courierCode)
	if err != nil {
		return nil, err
	}

	rule := selectRule(rules, weightKg)
	if rule == nil {
		return e.fallback(ctx, accountType, courierCode, weightKg, courierCost), nil
	}

	// The margin is rounded on its own before the charge is built from it,
	// so a courier cost quoted beyond two decimals cannot leak extra
	// precision into the reported margin.
	margin := roundMoney(rule.MarginFor(courierCost))
	ruleID := rule.GetID()
	return &PricingResult{
		CourierCost:  courierCost,
		VendorCharge: roundMoney(courierCost.Add(margin)),
		Margin:       margin,
		MarginType:   rule.MarginType,
		MarginValue:  rule.MarginValue,
		RuleID:       &ruleID,
	}, nil
}

// selectRule picks the matching rule with the narrowest weight band. Rules
// without a band only win when no banded rule matches.
func selectRule(rules []*pricing.RateRule, weightKg decimal.Decimal) *pricing.RateRule {
	var best *pricing.RateRule
	for _, r := range rules {
		if !r.AppliesTo(weightKg) {
			continue
		}
		if best == nil {
			best = r
			continue
		}
		if narrower(r, best) {
			best = r
		}
	}
	return best
}

func narrower(a, b *pricing.RateRule) bool {
	if a.HasWeightBand() != b.HasWeightBand() {
		return a.HasWeightBand()
	}
	if !a.HasWeightBand() {
		return false
	}
	return a.BandWidth().LessThan(b.BandWidth())
}

func (e *Engine) fallback(
	ctx context.Context,
	accountType pricing.AccountType,
	courierCode courier.CourierCode,
	weightKg decimal.Decimal,
	courierCost decimal.Decimal,
) *PricingResult {
	value := fallbackMarginB2C
	if accountType == pricing.AccountTypeB2B {
		value = fallbackMarginB2B
	}

	logger.For(ctx, e.logger).Warn("no rate rule matched, applying fallback margin",
		zap.String("account_type", accountType.String()),
		zap.String("courier", courierCode.String()),
		zap.String("weight_kg", weightKg.String()),
		zap.String("fallback_percent", value.String()),
	)

	margin := roundMoney(courierCost.Mul(value).Div(decimal.NewFromInt(100)))
	return &PricingResult{
		CourierCost:  courierCost,
		VendorCharge: roundMoney(courierCost.Add(margin)),
		Margin:       margin,
		MarginType:   pricing.MarginTypePercentage,
		MarginValue:  value,
		UsedFallback: true,
	}
}

// roundMoney rounds half away from zero to two decimal places.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
