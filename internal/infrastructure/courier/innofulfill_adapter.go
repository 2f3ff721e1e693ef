package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/infrastructure/config"
)

const innofulfillScanTimeFormat = "2006-01-02 15:04:05"

// InnofulfillAdapter integrates the Innofulfill fulfillment API. Auth is a
// static api-key header; payloads are flat JSON with kilogram weights.
type InnofulfillAdapter struct {
	cfg        config.CourierConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewInnofulfillAdapter creates an Innofulfill adapter from the given config.
func NewInnofulfillAdapter(cfg config.CourierConfig, logger *zap.Logger) (*InnofulfillAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: innofulfill base URL is required", courier.ErrCourierNotConfigured)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: innofulfill API key is required", courier.ErrCourierNotConfigured)
	}
	return &InnofulfillAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: courierTimeout(cfg)},
		logger:     logger,
	}, nil
}

// Code returns the courier this adapter handles.
func (a *InnofulfillAdapter) Code() courier.CourierCode {
	return courier.CourierCodeInnofulfill
}

// CreateShipment books an order with Innofulfill. An awb_no in the nested
// data object means the order exists upstream regardless of the status flag.
func (a *InnofulfillAdapter) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.ShipmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := a.buildCreateRequest(req)
	body, statusCode, err := a.doJSON(ctx, http.MethodPost, "/api/v1/order/create", payload)
	if err != nil {
		return nil, err
	}

	var createResp innofulfillCreateResponse
	if err := json.Unmarshal(body, &createResp); err != nil {
		return nil, fmt.Errorf("%w: innofulfill create: %v", courier.ErrCourierInvalidResponse, err)
	}

	result := &courier.ShipmentResult{
		Courier:     courier.CourierCodeInnofulfill,
		RawResponse: string(body),
	}

	if createResp.Data.AWBNo != "" {
		result.Success = true
		result.AWBNumber = createResp.Data.AWBNo
		result.LabelURL = createResp.Data.LabelURL
		result.TrackingURL = createResp.Data.TrackingURL
		if !createResp.Status || statusCode >= 400 {
			a.logger.Warn("innofulfill reported failure but returned an awb, treating as created",
				zap.String("order_ref", req.OrderRef),
				zap.String("awb", createResp.Data.AWBNo),
				zap.Int("http_status", statusCode))
		}
		return result, nil
	}

	errMsg := createResp.Message
	if errMsg == "" {
		errMsg = fmt.Sprintf("innofulfill rejected shipment (HTTP %d)", statusCode)
	}
	result.Error = errMsg
	return result, nil
}

// TrackShipment fetches scan history for an AWB.
func (a *InnofulfillAdapter) TrackShipment(ctx context.Context, ref string) (*courier.TrackingResult, error) {
	query := url.Values{}
	query.Set("awb", ref)

	body, statusCode, err := a.doJSON(ctx, http.MethodGet, "/api/v1/order/track?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, fmt.Errorf("%w: innofulfill track HTTP %d", courier.ErrCourierRequestFailed, statusCode)
	}

	var trackResp innofulfillTrackResponse
	if err := json.Unmarshal(body, &trackResp); err != nil {
		return nil, fmt.Errorf("%w: innofulfill track: %v", courier.ErrCourierInvalidResponse, err)
	}
	if !trackResp.Status || trackResp.Data.AWBNo == "" {
		return nil, fmt.Errorf("%w: %s", courier.ErrShipmentNotFound, ref)
	}

	events := make([]courier.TrackingEvent, 0, len(trackResp.Data.ScanDetails))
	for _, scan := range trackResp.Data.ScanDetails {
		ts, _ := time.Parse(innofulfillScanTimeFormat, scan.ScanTime)
		events = append(events, courier.TrackingEvent{
			Status:    scan.Status,
			Location:  scan.Location,
			Remarks:   scan.Remarks,
			Timestamp: ts,
		})
	}

	return &courier.TrackingResult{
		AWBNumber:     trackResp.Data.AWBNo,
		Courier:       courier.CourierCodeInnofulfill,
		CurrentStatus: trackResp.Data.CurrentStatus,
		Events:        events,
		RawResponse:   string(body),
	}, nil
}

// CancelShipment cancels a booked order.
func (a *InnofulfillAdapter) CancelShipment(ctx context.Context, ref string) (*courier.CancelResult, error) {
	body, statusCode, err := a.doJSON(ctx, http.MethodPost, "/api/v1/order/cancel", map[string]string{"awb": ref})
	if err != nil {
		return nil, err
	}

	var cancelResp innofulfillCancelResponse
	if err := json.Unmarshal(body, &cancelResp); err != nil {
		return nil, fmt.Errorf("%w: innofulfill cancel: %v", courier.ErrCourierInvalidResponse, err)
	}

	if statusCode >= 400 || !cancelResp.Status {
		errMsg := cancelResp.Message
		if errMsg == "" {
			errMsg = fmt.Sprintf("innofulfill refused cancellation (HTTP %d)", statusCode)
		}
		return &courier.CancelResult{Success: false, Error: errMsg}, nil
	}
	return &courier.CancelResult{Success: true}, nil
}

// CheckServiceability checks whether Innofulfill serves the delivery pincode.
func (a *InnofulfillAdapter) CheckServiceability(ctx context.Context, pickupPincode, deliveryPincode string) (*courier.ServiceabilityResult, error) {
	query := url.Values{}
	query.Set("pickup_pincode", pickupPincode)
	query.Set("delivery_pincode", deliveryPincode)

	body, statusCode, err := a.doJSON(ctx, http.MethodGet, "/api/v1/pincode/serviceability?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, fmt.Errorf("%w: innofulfill serviceability HTTP %d", courier.ErrCourierRequestFailed, statusCode)
	}

	var svcResp innofulfillServiceabilityResponse
	if err := json.Unmarshal(body, &svcResp); err != nil {
		return nil, fmt.Errorf("%w: innofulfill serviceability: %v", courier.ErrCourierInvalidResponse, err)
	}

	return &courier.ServiceabilityResult{
		Serviceable:      svcResp.Status && svcResp.Data.Serviceable,
		PrepaidAvailable: svcResp.Data.Prepaid,
		CODAvailable:     svcResp.Data.COD,
	}, nil
}

func (a *InnofulfillAdapter) buildCreateRequest(req *courier.ShipmentRequest) *innofulfillCreateRequest {
	paymentMode := "Prepaid"
	codAmount := decimal.Zero
	if req.PaymentMode == courier.PaymentModeCOD {
		paymentMode = "COD"
		codAmount = req.CODAmount
	}

	productName := req.ProductDescription
	if productName == "" {
		productName = "Order " + req.OrderRef
	}

	return &innofulfillCreateRequest{
		OrderNumber:   req.OrderRef,
		PaymentMode:   paymentMode,
		CODAmount:     codAmount.String(),
		OrderValue:    req.DeclaredValue.String(),
		WeightKg:      req.WeightKg.String(),
		LengthCm:      req.LengthCm.String(),
		BreadthCm:     req.BreadthCm.String(),
		HeightCm:      req.HeightCm.String(),
		ProductName:   productName,
		Quantity:      req.Quantity,
		ConsigneeName: req.Consignee.Name,
		ConsigneePh:   req.Consignee.Phone,
		ConsigneeAdd:  joinAddressLines(req.Consignee.Line1, req.Consignee.Line2),
		ConsigneeCity: req.Consignee.City,
		ConsigneeSt:   req.Consignee.State,
		ConsigneePin:  req.Consignee.Pincode,
		PickupName:    req.Pickup.Name,
		PickupPhone:   req.Pickup.Phone,
		PickupAdd:     joinAddressLines(req.Pickup.Line1, req.Pickup.Line2),
		PickupCity:    req.Pickup.City,
		PickupState:   req.Pickup.State,
		PickupPin:     req.Pickup.Pincode,
	}
}

func (a *InnofulfillAdapter) doJSON(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("innofulfill: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("innofulfill: failed to create request: %w", err)
	}
	req.Header.Set("api-key", a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", courier.ErrCourierUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("innofulfill: failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return body, resp.StatusCode, fmt.Errorf("%w: innofulfill rejected API key", courier.ErrCourierAuthFailed)
	}
	return body, resp.StatusCode, nil
}

var (
	_ courier.CourierService        = (*InnofulfillAdapter)(nil)
	_ courier.ServiceabilityChecker = (*InnofulfillAdapter)(nil)
)
