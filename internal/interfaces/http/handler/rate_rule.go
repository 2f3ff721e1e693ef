package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/pricing"
)

// CreateRateRuleRequest configures a margin rule for one account type and
// courier, optionally bounded to a weight band.
type CreateRateRuleRequest struct {
	AccountType string   `json:"account_type" binding:"required,oneof=B2B B2C"`
	Courier     string   `json:"courier" binding:"required"`
	MarginType  string   `json:"margin_type" binding:"required,oneof=PERCENTAGE FLAT"`
	MarginValue float64  `json:"margin_value" binding:"required,gte=0"`
	MinWeightKg *float64 `json:"min_weight_kg" binding:"omitempty,gte=0"`
	MaxWeightKg *float64 `json:"max_weight_kg" binding:"omitempty,gt=0"`
}

// RateRuleResponse is the API view of one rate rule.
type RateRuleResponse struct {
	ID          string  `json:"id"`
	AccountType string  `json:"account_type"`
	Courier     string  `json:"courier"`
	MarginType  string  `json:"margin_type"`
	MarginValue string  `json:"margin_value"`
	MinWeightKg *string `json:"min_weight_kg,omitempty"`
	MaxWeightKg *string `json:"max_weight_kg,omitempty"`
	Active      bool    `json:"active"`
}

func toRateRuleResponse(rule *pricing.RateRule) RateRuleResponse {
	resp := RateRuleResponse{
		ID:          rule.ID.String(),
		AccountType: string(rule.AccountType),
		Courier:     rule.Courier.String(),
		MarginType:  string(rule.MarginType),
		MarginValue: rule.MarginValue.String(),
		Active:      rule.Active,
	}
	if rule.HasWeightBand() {
		minKg := rule.MinWeightKg.String()
		maxKg := rule.MaxWeightKg.String()
		resp.MinWeightKg = &minKg
		resp.MaxWeightKg = &maxKg
	}
	return resp
}

// RateRuleHandler manages pricing margin rules.
type RateRuleHandler struct {
	BaseHandler
	rules pricing.RateRuleRepository
}

// NewRateRuleHandler creates a new RateRuleHandler
func NewRateRuleHandler(rules pricing.RateRuleRepository) *RateRuleHandler {
	return &RateRuleHandler{rules: rules}
}

// RegisterRoutes registers rate-rule routes
func (h *RateRuleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rules := rg.Group("/rate-rules")
	{
		rules.POST("", h.Create)
		rules.GET("", h.List)
		rules.POST("/:id/deactivate", h.Deactivate)
	}
}

// Create adds a margin rule
func (h *RateRuleHandler) Create(c *gin.Context) {
	var req CreateRateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := pricing.NewRateRule(
		pricing.AccountType(req.AccountType),
		courier.CourierCode(req.Courier),
		pricing.MarginType(req.MarginType),
		toDecimal(req.MarginValue),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if req.MinWeightKg != nil || req.MaxWeightKg != nil {
		if req.MinWeightKg == nil || req.MaxWeightKg == nil {
			h.BadRequest(c, "min_weight_kg and max_weight_kg must be supplied together")
			return
		}
		rule, err = rule.WithWeightBand(toDecimal(*req.MinWeightKg), toDecimal(*req.MaxWeightKg))
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}

	if err := h.rules.Create(c.Request.Context(), rule); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toRateRuleResponse(rule))
}

// List returns all rules, active and inactive
func (h *RateRuleHandler) List(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]RateRuleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, toRateRuleResponse(rule))
	}
	h.Success(c, resp)
}

// Deactivate retires a rule without deleting its pricing history
func (h *RateRuleHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid rule id")
		return
	}

	rule, err := h.rules.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rule.Deactivate()
	if err := h.rules.Save(c.Request.Context(), rule); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRateRuleResponse(rule))
}
