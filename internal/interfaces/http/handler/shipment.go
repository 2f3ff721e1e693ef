package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	shipmentapp "github.com/shipstack/backend/internal/application/shipment"
	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/pricing"
	"github.com/shipstack/backend/internal/domain/shipment"
	"github.com/shipstack/backend/internal/interfaces/http/dto"
)

// domainValidate enforces the validate tags on domain requests after the
// inbound payload has been mapped.
var domainValidate = validator.New()

// ShipmentService is the application-layer surface the handler forwards to.
type ShipmentService interface {
	CreateShipment(ctx context.Context, merchantID uuid.UUID, accountType pricing.AccountType, courierCode courier.CourierCode, req *courier.ShipmentRequest) (*shipmentapp.CreateShipmentResponse, error)
	TrackShipment(ctx context.Context, merchantID uuid.UUID, orderRef string) (*shipmentapp.TrackShipmentResponse, error)
	CancelShipment(ctx context.Context, merchantID uuid.UUID, orderRef string) (*shipmentapp.CancelShipmentResponse, error)
	ListUnbilled(ctx context.Context) ([]*shipment.Order, error)
}

// ShipmentHandler handles shipment booking, tracking, and cancellation.
type ShipmentHandler struct {
	BaseHandler
	service ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(service ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{service: service}
}

// RegisterRoutes registers shipment routes
func (h *ShipmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	shipments := rg.Group("/shipments")
	{
		shipments.POST("", h.Create)
		shipments.GET("/:orderRef/track", h.Track)
		shipments.POST("/:orderRef/cancel", h.Cancel)
		shipments.GET("/unbilled", h.ListUnbilled)
	}
}

// Create books a shipment with the requested courier
func (h *ShipmentHandler) Create(c *gin.Context) {
	merchantID, err := getMerchantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	domainReq := req.ToDomain()
	if err := domainValidate.Struct(domainReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.CreateShipment(
		c.Request.Context(),
		merchantID,
		pricing.AccountType(req.AccountType),
		courier.CourierCode(req.Courier),
		domainReq,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if !resp.Success {
		// Courier rejection: the booking did not happen, but the request
		// itself was well-formed.
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeCourierRejected, resp.Error)
		return
	}
	h.Created(c, resp)
}

// Track returns the current status and scan history of an order
func (h *ShipmentHandler) Track(c *gin.Context) {
	merchantID, err := getMerchantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.TrackShipment(c.Request.Context(), merchantID, c.Param("orderRef"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels a booked shipment and refunds the wallet when billed
func (h *ShipmentHandler) Cancel(c *gin.Context) {
	merchantID, err := getMerchantID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.CancelShipment(c.Request.Context(), merchantID, c.Param("orderRef"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListUnbilled returns orders awaiting billing reconciliation
func (h *ShipmentHandler) ListUnbilled(c *gin.Context) {
	orders, err := h.service.ListUnbilled(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]UnbilledOrderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, UnbilledOrderResponse{
			OrderRef:     order.OrderRef,
			MerchantID:   order.MerchantID.String(),
			Courier:      order.Courier.String(),
			AWBNumber:    order.AWBNumber,
			Status:       string(order.Status),
			CourierCost:  order.CourierCost.String(),
			VendorCharge: order.VendorCharge.String(),
			CreatedAt:    order.CreatedAt.Format(time.RFC3339),
		})
	}
	h.Success(c, resp)
}
