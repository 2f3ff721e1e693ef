package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/infrastructure/config"
)

const (
	// xpressbeesTokenLifetime is assumed; the login response does not state
	// an expiry. Tokens observed in practice last around four hours.
	xpressbeesTokenLifetime = 4 * time.Hour

	xpressbeesEventTimeFormat = "2006-01-02 15:04:05"
)

// XpressbeesAdapter integrates the Xpressbees courier API. Auth is an
// email/password login returning a JWT used as a bearer token. Business
// failures arrive as HTTP 200 with a false status flag, so the HTTP status
// alone never decides the outcome.
type XpressbeesAdapter struct {
	cfg        config.CourierConfig
	httpClient *http.Client
	logger     *zap.Logger
	tokens     tokenCache
}

// NewXpressbeesAdapter creates an Xpressbees adapter from the given config.
func NewXpressbeesAdapter(cfg config.CourierConfig, logger *zap.Logger) (*XpressbeesAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: xpressbees base URL is required", courier.ErrCourierNotConfigured)
	}
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: xpressbees login credentials are required", courier.ErrCourierNotConfigured)
	}
	return &XpressbeesAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: courierTimeout(cfg)},
		logger:     logger,
	}, nil
}

// Code returns the courier this adapter handles.
func (a *XpressbeesAdapter) Code() courier.CourierCode {
	return courier.CourierCodeXpressbees
}

// CreateShipment books a shipment with Xpressbees. An awb_number in the
// response data means the shipment exists upstream even when the status
// flag says false.
func (a *XpressbeesAdapter) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.ShipmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := a.buildCreateRequest(req)
	body, statusCode, err := a.doJSON(ctx, http.MethodPost, "/api/shipments2", payload)
	if err != nil {
		return nil, err
	}

	var createResp xpressbeesCreateResponse
	if err := json.Unmarshal(body, &createResp); err != nil {
		return nil, fmt.Errorf("%w: xpressbees create: %v", courier.ErrCourierInvalidResponse, err)
	}

	result := &courier.ShipmentResult{
		Courier:     courier.CourierCodeXpressbees,
		RawResponse: string(body),
	}

	// Data is an object on success; on failure it is often a bare string,
	// which this decode simply ignores.
	var data xpressbeesShipmentData
	if len(createResp.Data) > 0 {
		_ = json.Unmarshal(createResp.Data, &data)
	}

	if data.AWBNumber != "" {
		result.Success = true
		result.AWBNumber = data.AWBNumber
		result.LabelURL = data.Label
		if !createResp.Status || statusCode >= 400 {
			a.logger.Warn("xpressbees reported failure but returned an awb, treating as created",
				zap.String("order_ref", req.OrderRef),
				zap.String("awb", data.AWBNumber),
				zap.Int("http_status", statusCode))
		}
		return result, nil
	}

	errMsg := createResp.Message
	if errMsg == "" {
		errMsg = fmt.Sprintf("xpressbees rejected shipment (HTTP %d)", statusCode)
	}
	result.Error = errMsg
	return result, nil
}

// TrackShipment fetches tracking history for an AWB.
func (a *XpressbeesAdapter) TrackShipment(ctx context.Context, ref string) (*courier.TrackingResult, error) {
	body, statusCode, err := a.doJSON(ctx, http.MethodGet, "/api/shipments2/track/"+ref, nil)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, fmt.Errorf("%w: xpressbees track HTTP %d", courier.ErrCourierRequestFailed, statusCode)
	}

	var trackResp xpressbeesTrackResponse
	if err := json.Unmarshal(body, &trackResp); err != nil {
		return nil, fmt.Errorf("%w: xpressbees track: %v", courier.ErrCourierInvalidResponse, err)
	}
	if !trackResp.Status || trackResp.Data.AWBNumber == "" {
		return nil, fmt.Errorf("%w: %s", courier.ErrShipmentNotFound, ref)
	}

	events := make([]courier.TrackingEvent, 0, len(trackResp.Data.History))
	for _, h := range trackResp.Data.History {
		ts, _ := time.Parse(xpressbeesEventTimeFormat, h.EventTime)
		events = append(events, courier.TrackingEvent{
			Status:     h.Message,
			StatusCode: h.StatusCode,
			Location:   h.Location,
			Timestamp:  ts,
		})
	}

	return &courier.TrackingResult{
		AWBNumber:     trackResp.Data.AWBNumber,
		Courier:       courier.CourierCodeXpressbees,
		CurrentStatus: trackResp.Data.Status,
		Events:        events,
		RawResponse:   string(body),
	}, nil
}

// CancelShipment cancels a booked shipment.
func (a *XpressbeesAdapter) CancelShipment(ctx context.Context, ref string) (*courier.CancelResult, error) {
	body, statusCode, err := a.doJSON(ctx, http.MethodPost, "/api/shipments2/cancel", map[string]string{"awb": ref})
	if err != nil {
		return nil, err
	}

	var cancelResp xpressbeesCancelResponse
	if err := json.Unmarshal(body, &cancelResp); err != nil {
		return nil, fmt.Errorf("%w: xpressbees cancel: %v", courier.ErrCourierInvalidResponse, err)
	}

	if statusCode >= 400 || !cancelResp.Status {
		errMsg := cancelResp.Message
		if errMsg == "" {
			errMsg = fmt.Sprintf("xpressbees refused cancellation (HTTP %d)", statusCode)
		}
		return &courier.CancelResult{Success: false, Error: errMsg}, nil
	}
	return &courier.CancelResult{Success: true}, nil
}

// CalculateRate quotes shipping charges for a route.
func (a *XpressbeesAdapter) CalculateRate(ctx context.Context, req *courier.RateRequest) (*courier.RateResult, error) {
	paymentType := "prepaid"
	if req.PaymentMode == courier.PaymentModeCOD {
		paymentType = "cod"
	}

	payload := map[string]any{
		"origin":       req.PickupPincode,
		"destination":  req.DeliveryPincode,
		"weight":       req.WeightKg.Mul(decimal.NewFromInt(1000)).Round(0).IntPart(),
		"length":       req.LengthCm.String(),
		"breadth":      req.BreadthCm.String(),
		"height":       req.HeightCm.String(),
		"payment_type": paymentType,
		"order_amount": req.CODAmount.String(),
	}

	body, statusCode, err := a.doJSON(ctx, http.MethodPost, "/api/courier/serviceability", payload)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, fmt.Errorf("%w: xpressbees rates HTTP %d", courier.ErrCourierRequestFailed, statusCode)
	}

	var rateResp xpressbeesRateResponse
	if err := json.Unmarshal(body, &rateResp); err != nil {
		return nil, fmt.Errorf("%w: xpressbees rates: %v", courier.ErrCourierInvalidResponse, err)
	}
	if !rateResp.Status || len(rateResp.Data) == 0 {
		return nil, fmt.Errorf("%w: xpressbees returned no rates: %s", courier.ErrCourierInvalidResponse, rateResp.Message)
	}

	return &courier.RateResult{
		Courier:     courier.CourierCodeXpressbees,
		TotalCharge: decimal.NewFromFloat(rateResp.Data[0].TotalCharges),
		Currency:    "INR",
		RawResponse: string(body),
	}, nil
}

func (a *XpressbeesAdapter) buildCreateRequest(req *courier.ShipmentRequest) *xpressbeesCreateRequest {
	paymentType := "prepaid"
	collectable := decimal.Zero
	if req.PaymentMode == courier.PaymentModeCOD {
		paymentType = "cod"
		collectable = req.CODAmount
	}

	description := req.ProductDescription
	if description == "" {
		description = "Order " + req.OrderRef
	}

	return &xpressbeesCreateRequest{
		OrderNumber:    req.OrderRef,
		PaymentType:    paymentType,
		OrderAmount:    req.DeclaredValue.String(),
		CollectableAmt: collectable.String(),
		WeightGrams:    req.WeightKg.Mul(decimal.NewFromInt(1000)).Round(0).IntPart(),
		LengthCm:       req.LengthCm.String(),
		BreadthCm:      req.BreadthCm.String(),
		HeightCm:       req.HeightCm.String(),
		Consignee:      xpressbeesAddressFrom(req.Consignee),
		Pickup:         xpressbeesAddressFrom(req.Pickup),
		OrderItems: []xpressbeesItem{
			{Name: description, Qty: req.Quantity, Price: req.DeclaredValue.String()},
		},
	}
}

func xpressbeesAddressFrom(addr courier.Address) xpressbeesAddress {
	return xpressbeesAddress{
		Name:    addr.Name,
		Phone:   addr.Phone,
		Address: joinAddressLines(addr.Line1, addr.Line2),
		City:    addr.City,
		State:   addr.State,
		Pincode: addr.Pincode,
	}
}

// doJSON performs an authenticated JSON request, re-authenticating once if
// Xpressbees rejects the cached token.
func (a *XpressbeesAdapter) doJSON(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	body, statusCode, err := a.doJSONOnce(ctx, method, path, payload)
	if isAuthError(err) {
		a.tokens.invalidate()
		body, statusCode, err = a.doJSONOnce(ctx, method, path, payload)
	}
	return body, statusCode, err
}

func (a *XpressbeesAdapter) doJSONOnce(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	token, err := a.tokens.get(ctx, a.login)
	if err != nil {
		return nil, 0, err
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("xpressbees: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("xpressbees: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", courier.ErrCourierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("xpressbees: failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return respBody, resp.StatusCode, fmt.Errorf("%w: xpressbees rejected bearer token", courier.ErrCourierAuthFailed)
	}
	return respBody, resp.StatusCode, nil
}

// login authenticates against Xpressbees and returns the JWT. The response
// carries no expiry, so the assumed lifetime applies.
func (a *XpressbeesAdapter) login(ctx context.Context) (string, time.Duration, error) {
	raw, err := json.Marshal(xpressbeesLoginRequest{Email: a.cfg.Email, Password: a.cfg.Password})
	if err != nil {
		return "", 0, fmt.Errorf("xpressbees: failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/api/users/login", bytes.NewReader(raw))
	if err != nil {
		return "", 0, fmt.Errorf("xpressbees: failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", courier.ErrCourierUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", 0, fmt.Errorf("xpressbees: failed to read login response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", 0, fmt.Errorf("%w: xpressbees login HTTP %d", courier.ErrCourierAuthFailed, resp.StatusCode)
	}

	var loginResp xpressbeesLoginResponse
	if err := json.Unmarshal(body, &loginResp); err != nil {
		return "", 0, fmt.Errorf("%w: xpressbees login: %v", courier.ErrCourierInvalidResponse, err)
	}
	if !loginResp.Status || loginResp.Data == "" {
		return "", 0, fmt.Errorf("%w: xpressbees login rejected: %s", courier.ErrCourierAuthFailed, loginResp.Message)
	}

	return loginResp.Data, xpressbeesTokenLifetime, nil
}

var (
	_ courier.CourierService = (*XpressbeesAdapter)(nil)
	_ courier.RateCalculator = (*XpressbeesAdapter)(nil)
)
