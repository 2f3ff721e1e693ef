package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shipstack/backend/internal/domain/courier"
)

// ServiceabilityRequest asks whether a courier serves a route.
type ServiceabilityRequest struct {
	Courier         string `form:"courier" binding:"required"`
	PickupPincode   string `form:"pickup_pincode" binding:"required,numeric,len=6"`
	DeliveryPincode string `form:"delivery_pincode" binding:"required,numeric,len=6"`
}

// RateQuoteRequest asks a courier for its cost on a lane.
type RateQuoteRequest struct {
	Courier         string  `json:"courier" binding:"required"`
	PickupPincode   string  `json:"pickup_pincode" binding:"required,numeric,len=6"`
	DeliveryPincode string  `json:"delivery_pincode" binding:"required,numeric,len=6"`
	WeightKg        float64 `json:"weight_kg" binding:"required,gt=0"`
	LengthCm        float64 `json:"length_cm" binding:"omitempty,gt=0"`
	BreadthCm       float64 `json:"breadth_cm" binding:"omitempty,gt=0"`
	HeightCm        float64 `json:"height_cm" binding:"omitempty,gt=0"`
	PaymentMode     string  `json:"payment_mode" binding:"required,oneof=PREPAID COD"`
	CODAmount       float64 `json:"cod_amount" binding:"omitempty,gte=0"`
}

// CourierHandler exposes the registered couriers and their optional
// rate and serviceability capabilities.
type CourierHandler struct {
	BaseHandler
	registry courier.CourierRegistry
}

// NewCourierHandler creates a new CourierHandler
func NewCourierHandler(registry courier.CourierRegistry) *CourierHandler {
	return &CourierHandler{registry: registry}
}

// RegisterRoutes registers courier routes
func (h *CourierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	couriers := rg.Group("/couriers")
	{
		couriers.GET("", h.List)
		couriers.GET("/serviceability", h.Serviceability)
		couriers.POST("/rates", h.RateQuote)
	}
}

// List returns the courier codes with a configured adapter
func (h *CourierHandler) List(c *gin.Context) {
	codes := h.registry.List()
	resp := make([]string, 0, len(codes))
	for _, code := range codes {
		resp = append(resp, code.String())
	}
	h.Success(c, resp)
}

// Serviceability checks whether the courier serves the route
func (h *CourierHandler) Serviceability(c *gin.Context) {
	var req ServiceabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	svc, err := h.registry.Get(courier.CourierCode(req.Courier))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	checker, ok := svc.(courier.ServiceabilityChecker)
	if !ok {
		h.BadRequest(c, "courier does not expose a serviceability API")
		return
	}

	result, err := checker.CheckServiceability(c.Request.Context(), req.PickupPincode, req.DeliveryPincode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RateQuote returns the courier's quoted charge for a lane
func (h *CourierHandler) RateQuote(c *gin.Context) {
	var req RateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	svc, err := h.registry.Get(courier.CourierCode(req.Courier))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	calculator, ok := svc.(courier.RateCalculator)
	if !ok {
		h.BadRequest(c, "courier does not expose a rate API")
		return
	}

	paymentMode := courier.PaymentMode(req.PaymentMode)
	if paymentMode == courier.PaymentModePrepaid && req.CODAmount > 0 {
		h.BadRequest(c, "cod_amount must be zero for prepaid shipments")
		return
	}

	result, err := calculator.CalculateRate(c.Request.Context(), &courier.RateRequest{
		PickupPincode:   req.PickupPincode,
		DeliveryPincode: req.DeliveryPincode,
		WeightKg:        toDecimal(req.WeightKg),
		LengthCm:        toDecimal(req.LengthCm),
		BreadthCm:       toDecimal(req.BreadthCm),
		HeightCm:        toDecimal(req.HeightCm),
		PaymentMode:     paymentMode,
		CODAmount:       toDecimal(req.CODAmount),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
