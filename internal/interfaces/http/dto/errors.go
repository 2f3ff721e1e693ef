package dto

import "net/http"

// Error code constants organized by category

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation and input error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeInsufficientBalance is used when wallet balance is insufficient
	ErrCodeInsufficientBalance = "ERR_INSUFFICIENT_BALANCE"
	// ErrCodeMerchantNotFound is used when a merchant has no wallet
	ErrCodeMerchantNotFound = "ERR_MERCHANT_NOT_FOUND"
	// ErrCodeNegativeCost is used when a courier cost is negative
	ErrCodeNegativeCost = "ERR_NEGATIVE_COST"
	// ErrCodeInvalidAccountType is used for unknown account types
	ErrCodeInvalidAccountType = "ERR_INVALID_ACCOUNT_TYPE"

	ErrCodeInvalidCourier = "ERR_INVALID_COURIER"

	ErrCodeInvalidWeightBand = "ERR_INVALID_WEIGHT_BAND"
	// ErrCodeCourierNotSupported is used for unknown courier codes
	ErrCodeCourierNotSupported = "ERR_COURIER_NOT_SUPPORTED"
	// ErrCodeCourierNotConfigured is used for known but unconfigured couriers
	ErrCodeCourierNotConfigured = "ERR_COURIER_NOT_CONFIGURED"
	// ErrCodeCourierUnavailable is used when a courier API cannot be reached
	ErrCodeCourierUnavailable = "ERR_COURIER_UNAVAILABLE"
	// ErrCodeCourierRejected means the courier refused the booking itself
	ErrCodeCourierRejected = "ERR_COURIER_REJECTED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeInsufficientBalance:  http.StatusUnprocessableEntity,
	ErrCodeMerchantNotFound:     http.StatusNotFound,
	ErrCodeNegativeCost:         http.StatusBadRequest,
	ErrCodeInvalidAccountType:   http.StatusBadRequest,
	ErrCodeInvalidCourier:       http.StatusBadRequest,
	ErrCodeInvalidWeightBand:    http.StatusBadRequest,
	ErrCodeCourierNotSupported:  http.StatusBadRequest,
	ErrCodeCourierNotConfigured: http.StatusBadRequest,
	ErrCodeCourierUnavailable:   http.StatusBadGateway,
	ErrCodeCourierRejected:      http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
