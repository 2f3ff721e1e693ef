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

const blitzTimestampFormat = "2006-01-02 15:04:05"

// BlitzAdapter integrates the Blitz same-day courier API. Blitz issues a
// short-lived bearer token via a login call; the token is cached and
// refreshed transparently, and a 401 on any call invalidates the cache and
// retries once with a fresh token.
type BlitzAdapter struct {
	cfg        config.CourierConfig
	httpClient *http.Client
	logger     *zap.Logger
	tokens     tokenCache
}

// NewBlitzAdapter creates a Blitz adapter from the given config.
func NewBlitzAdapter(cfg config.CourierConfig, logger *zap.Logger) (*BlitzAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: blitz base URL is required", courier.ErrCourierNotConfigured)
	}
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: blitz login credentials are required", courier.ErrCourierNotConfigured)
	}
	return &BlitzAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: courierTimeout(cfg)},
		logger:     logger,
	}, nil
}

// Code returns the courier this adapter handles.
func (a *BlitzAdapter) Code() courier.CourierCode {
	return courier.CourierCodeBlitz
}

// CreateShipment books a shipment with Blitz.
func (a *BlitzAdapter) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.ShipmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := a.buildCreateRequest(req)
	body, statusCode, err := a.doJSON(ctx, http.MethodPost, "/api/v1/shipments", payload)
	if err != nil {
		return nil, err
	}

	var createResp blitzCreateResponse
	if err := json.Unmarshal(body, &createResp); err != nil {
		return nil, fmt.Errorf("%w: blitz create: %v", courier.ErrCourierInvalidResponse, err)
	}

	result := &courier.ShipmentResult{
		Courier:     courier.CourierCodeBlitz,
		RawResponse: string(body),
	}

	// An AWB in the body means the shipment exists upstream regardless of
	// what the success flag or HTTP status claim.
	if createResp.Data.AWB != "" {
		result.Success = true
		result.AWBNumber = createResp.Data.AWB
		result.LabelURL = createResp.Data.LabelURL
		result.TrackingURL = createResp.Data.TrackingURL
		if !createResp.Success || statusCode >= 400 {
			a.logger.Warn("blitz reported failure but returned an awb, treating as created",
				zap.String("order_ref", req.OrderRef),
				zap.String("awb", createResp.Data.AWB),
				zap.Int("http_status", statusCode))
		}
		return result, nil
	}

	errMsg := createResp.Message
	if errMsg == "" {
		errMsg = fmt.Sprintf("blitz rejected shipment (HTTP %d)", statusCode)
	}
	result.Error = errMsg
	return result, nil
}

// TrackShipment fetches tracking history for an AWB.
func (a *BlitzAdapter) TrackShipment(ctx context.Context, ref string) (*courier.TrackingResult, error) {
	body, statusCode, err := a.doJSON(ctx, http.MethodGet, "/api/v1/shipments/track?awb="+ref, nil)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, fmt.Errorf("%w: blitz track HTTP %d", courier.ErrCourierRequestFailed, statusCode)
	}

	var trackResp blitzTrackResponse
	if err := json.Unmarshal(body, &trackResp); err != nil {
		return nil, fmt.Errorf("%w: blitz track: %v", courier.ErrCourierInvalidResponse, err)
	}
	if !trackResp.Success || trackResp.Data.AWB == "" {
		return nil, fmt.Errorf("%w: %s", courier.ErrShipmentNotFound, ref)
	}

	events := make([]courier.TrackingEvent, 0, len(trackResp.Data.History))
	for _, h := range trackResp.Data.History {
		ts, _ := time.Parse(blitzTimestampFormat, h.Timestamp)
		events = append(events, courier.TrackingEvent{
			Status:    h.Status,
			Location:  h.Location,
			Remarks:   h.Remarks,
			Timestamp: ts,
		})
	}

	return &courier.TrackingResult{
		AWBNumber:     trackResp.Data.AWB,
		Courier:       courier.CourierCodeBlitz,
		CurrentStatus: trackResp.Data.CurrentStatus,
		Events:        events,
		RawResponse:   string(body),
	}, nil
}

// CancelShipment cancels a booked shipment.
func (a *BlitzAdapter) CancelShipment(ctx context.Context, ref string) (*courier.CancelResult, error) {
	body, statusCode, err := a.doJSON(ctx, http.MethodPost, "/api/v1/shipments/cancel", map[string]string{"awb": ref})
	if err != nil {
		return nil, err
	}

	var cancelResp blitzCancelResponse
	if err := json.Unmarshal(body, &cancelResp); err != nil {
		return nil, fmt.Errorf("%w: blitz cancel: %v", courier.ErrCourierInvalidResponse, err)
	}

	if statusCode >= 400 || !cancelResp.Success {
		errMsg := cancelResp.Message
		if errMsg == "" {
			errMsg = fmt.Sprintf("blitz refused cancellation (HTTP %d)", statusCode)
		}
		return &courier.CancelResult{Success: false, Error: errMsg}, nil
	}
	return &courier.CancelResult{Success: true}, nil
}

func (a *BlitzAdapter) buildCreateRequest(req *courier.ShipmentRequest) *blitzCreateRequest {
	paymentMode := "prepaid"
	codAmount := decimal.Zero
	if req.PaymentMode == courier.PaymentModeCOD {
		paymentMode = "cod"
		codAmount = req.CODAmount
	}

	return &blitzCreateRequest{
		OrderID:       req.OrderRef,
		PickupDetails: blitzPartyFromAddress(req.Pickup),
		DropDetails:   blitzPartyFromAddress(req.Consignee),
		WeightGrams:   req.WeightKg.Mul(decimal.NewFromInt(1000)).Round(0).IntPart(),
		LengthCm:      req.LengthCm.String(),
		BreadthCm:     req.BreadthCm.String(),
		HeightCm:      req.HeightCm.String(),
		PaymentMode:   paymentMode,
		CODAmount:     codAmount.String(),
		DeclaredValue: req.DeclaredValue.String(),
		ProductDesc:   req.ProductDescription,
		Quantity:      req.Quantity,
	}
}

func blitzPartyFromAddress(addr courier.Address) blitzParty {
	return blitzParty{
		Name:    addr.Name,
		Phone:   addr.Phone,
		Email:   addr.Email,
		Address: joinAddressLines(addr.Line1, addr.Line2),
		City:    addr.City,
		State:   addr.State,
		Pincode: addr.Pincode,
	}
}

// doJSON performs an authenticated JSON request, re-authenticating once if
// Blitz rejects the cached token.
func (a *BlitzAdapter) doJSON(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	body, statusCode, err := a.doJSONOnce(ctx, method, path, payload)
	if isAuthError(err) {
		a.tokens.invalidate()
		body, statusCode, err = a.doJSONOnce(ctx, method, path, payload)
	}
	return body, statusCode, err
}

func (a *BlitzAdapter) doJSONOnce(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	token, err := a.tokens.get(ctx, a.login)
	if err != nil {
		return nil, 0, err
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("blitz: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("blitz: failed to create request: %w", err)
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
		return nil, resp.StatusCode, fmt.Errorf("blitz: failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return respBody, resp.StatusCode, fmt.Errorf("%w: blitz rejected bearer token", courier.ErrCourierAuthFailed)
	}
	return respBody, resp.StatusCode, nil
}

// login authenticates against Blitz and returns the bearer token with its
// stated lifetime.
func (a *BlitzAdapter) login(ctx context.Context) (string, time.Duration, error) {
	raw, err := json.Marshal(blitzLoginRequest{Username: a.cfg.Email, Password: a.cfg.Password})
	if err != nil {
		return "", 0, fmt.Errorf("blitz: failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/api/v1/login", bytes.NewReader(raw))
	if err != nil {
		return "", 0, fmt.Errorf("blitz: failed to create login request: %w", err)
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
		return "", 0, fmt.Errorf("blitz: failed to read login response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", 0, fmt.Errorf("%w: blitz login HTTP %d", courier.ErrCourierAuthFailed, resp.StatusCode)
	}

	var loginResp blitzLoginResponse
	if err := json.Unmarshal(body, &loginResp); err != nil {
		return "", 0, fmt.Errorf("%w: blitz login: %v", courier.ErrCourierInvalidResponse, err)
	}
	if !loginResp.Success || loginResp.Data.Token == "" {
		return "", 0, fmt.Errorf("%w: blitz login rejected: %s", courier.ErrCourierAuthFailed, loginResp.Message)
	}

	lifetime := time.Duration(loginResp.Data.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	return loginResp.Data.Token, lifetime, nil
}

var _ courier.CourierService = (*BlitzAdapter)(nil)
