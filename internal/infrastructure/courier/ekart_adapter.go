package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/infrastructure/config"
)

const ekartEventTimeFormat = "2006-01-02 15:04:05"

// EkartAdapter integrates the Ekart logistics API. Auth is a pair of static
// headers (client id + token); units are grams and millimeters. Ekart has
// no cancellation API, so CancelShipment reports an unsupported result
// rather than an error.
type EkartAdapter struct {
	cfg        config.CourierConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewEkartAdapter creates an Ekart adapter from the given config.
func NewEkartAdapter(cfg config.CourierConfig, logger *zap.Logger) (*EkartAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: ekart base URL is required", courier.ErrCourierNotConfigured)
	}
	if cfg.APIKey == "" || cfg.ClientName == "" {
		return nil, fmt.Errorf("%w: ekart API key and client name are required", courier.ErrCourierNotConfigured)
	}
	return &EkartAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: courierTimeout(cfg)},
		logger:     logger,
	}, nil
}

// Code returns the courier this adapter handles.
func (a *EkartAdapter) Code() courier.CourierCode {
	return courier.CourierCodeEkart
}

// CreateShipment books a shipment with Ekart. The response reports a status
// per shipment in the batch; a tracking id present in the entry means the
// shipment was created even when the entry's status is not a success.
func (a *EkartAdapter) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.ShipmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := ekartCreateRequest{
		ClientName: a.cfg.ClientName,
		Shipments:  []ekartShipment{a.buildShipment(req)},
	}

	body, statusCode, err := a.doJSON(ctx, http.MethodPost, "/v2/shipments/create", payload)
	if err != nil {
		return nil, err
	}

	var createResp ekartCreateResponse
	if err := json.Unmarshal(body, &createResp); err != nil {
		return nil, fmt.Errorf("%w: ekart create: %v", courier.ErrCourierInvalidResponse, err)
	}

	result := &courier.ShipmentResult{
		Courier:     courier.CourierCodeEkart,
		RawResponse: string(body),
	}

	var entry *ekartShipmentStatus
	if len(createResp.Response) > 0 {
		entry = &createResp.Response[0]
	}

	if entry != nil && entry.TrackingID != "" {
		result.Success = true
		result.AWBNumber = entry.TrackingID
		if !strings.EqualFold(entry.Status, "success") || statusCode >= 400 {
			a.logger.Warn("ekart reported failure but returned a tracking id, treating as created",
				zap.String("order_ref", req.OrderRef),
				zap.String("tracking_id", entry.TrackingID),
				zap.String("upstream_status", entry.Status),
				zap.Int("http_status", statusCode))
		}
		return result, nil
	}

	errMsg := createResp.Message
	if entry != nil && entry.Message != "" {
		errMsg = entry.Message
	}
	if errMsg == "" {
		errMsg = fmt.Sprintf("ekart rejected shipment (HTTP %d)", statusCode)
	}
	result.Error = errMsg
	return result, nil
}

// TrackShipment fetches tracking history for a tracking id.
func (a *EkartAdapter) TrackShipment(ctx context.Context, ref string) (*courier.TrackingResult, error) {
	body, statusCode, err := a.doJSON(ctx, http.MethodGet, "/v2/shipments/track/"+ref, nil)
	if err != nil {
		return nil, err
	}
	if statusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", courier.ErrShipmentNotFound, ref)
	}
	if statusCode >= 400 {
		return nil, fmt.Errorf("%w: ekart track HTTP %d", courier.ErrCourierRequestFailed, statusCode)
	}

	var trackResp ekartTrackResponse
	if err := json.Unmarshal(body, &trackResp); err != nil {
		return nil, fmt.Errorf("%w: ekart track: %v", courier.ErrCourierInvalidResponse, err)
	}
	if trackResp.TrackingID == "" {
		return nil, fmt.Errorf("%w: %s", courier.ErrShipmentNotFound, ref)
	}

	events := make([]courier.TrackingEvent, 0, len(trackResp.History))
	for _, h := range trackResp.History {
		ts, _ := time.Parse(ekartEventTimeFormat, h.EventDate)
		events = append(events, courier.TrackingEvent{
			Status:    h.Status,
			Location:  h.City,
			Remarks:   h.Remarks,
			Timestamp: ts,
		})
	}

	return &courier.TrackingResult{
		AWBNumber:     trackResp.TrackingID,
		Courier:       courier.CourierCodeEkart,
		CurrentStatus: trackResp.Status,
		Events:        events,
		RawResponse:   string(body),
	}, nil
}

// CancelShipment reports that Ekart exposes no cancellation API. Callers
// must raise the cancellation with Ekart support out of band.
func (a *EkartAdapter) CancelShipment(ctx context.Context, ref string) (*courier.CancelResult, error) {
	return &courier.CancelResult{
		Success: false,
		Error:   "ekart does not support cancellation via API, raise with courier support",
	}, nil
}

func (a *EkartAdapter) buildShipment(req *courier.ShipmentRequest) ekartShipment {
	paymentMode := "PREPAID"
	codValue := decimal.Zero
	if req.PaymentMode == courier.PaymentModeCOD {
		paymentMode = "COD"
		codValue = req.CODAmount
	}

	thousand := decimal.NewFromInt(1000)
	ten := decimal.NewFromInt(10)

	return ekartShipment{
		ReferenceID:  req.OrderRef,
		ServiceType:  "FORWARD",
		PaymentMode:  paymentMode,
		CODValue:     codValue.String(),
		InvoiceValue: req.DeclaredValue.String(),
		WeightGrams:  req.WeightKg.Mul(thousand).Round(0).IntPart(),
		LengthMm:     req.LengthCm.Mul(ten).Round(0).IntPart(),
		BreadthMm:    req.BreadthCm.Mul(ten).Round(0).IntPart(),
		HeightMm:     req.HeightCm.Mul(ten).Round(0).IntPart(),
		Description:  req.ProductDescription,
		Quantity:     req.Quantity,
		Source:       ekartAddressFrom(req.Pickup),
		Destination:  ekartAddressFrom(req.Consignee),
	}
}

func ekartAddressFrom(addr courier.Address) ekartAddress {
	return ekartAddress{
		Name:         addr.Name,
		Phone:        addr.Phone,
		AddressLine1: addr.Line1,
		AddressLine2: addr.Line2,
		City:         addr.City,
		State:        addr.State,
		Pincode:      addr.Pincode,
	}
}

func (a *EkartAdapter) doJSON(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("ekart: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("ekart: failed to create request: %w", err)
	}
	req.Header.Set("X-Client-Id", a.cfg.ClientName)
	req.Header.Set("Authorization", a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", courier.ErrCourierUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("ekart: failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return body, resp.StatusCode, fmt.Errorf("%w: ekart rejected credentials", courier.ErrCourierAuthFailed)
	}
	return body, resp.StatusCode, nil
}

var _ courier.CourierService = (*EkartAdapter)(nil)
