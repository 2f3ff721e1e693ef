package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/shared"
	"github.com/shipstack/backend/internal/interfaces/http/dto"
	"github.com/shipstack/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// getMerchantID extracts the merchant ID from the X-Merchant-ID header.
// Session plumbing is handled upstream of this service; the gateway injects
// the authenticated merchant here.
func getMerchantID(c *gin.Context) (uuid.UUID, error) {
	merchantIDStr := c.GetHeader("X-Merchant-ID")
	if merchantIDStr == "" {
		return uuid.Nil, errors.New("merchant ID not found in request")
	}
	return uuid.Parse(merchantIDStr)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, limit, offset int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, limit, offset))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// HandleError maps domain and courier errors onto the response envelope.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := "ERR_" + domainErr.Code
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	switch {
	case errors.Is(err, courier.ErrCourierNotSupported):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeCourierNotSupported, err.Error())
	case errors.Is(err, courier.ErrCourierNotConfigured):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeCourierNotConfigured, err.Error())
	case errors.Is(err, courier.ErrCourierUnavailable):
		h.Error(c, http.StatusBadGateway, dto.ErrCodeCourierUnavailable, err.Error())
	case errors.Is(err, courier.ErrShipmentNotFound):
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, err.Error())
	case errors.Is(err, courier.ErrInvalidPaymentMode),
		errors.Is(err, courier.ErrInvalidWeight),
		errors.Is(err, courier.ErrInvalidQuantity),
		errors.Is(err, courier.ErrCODAmountMismatch):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, err.Error())
	default:
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
