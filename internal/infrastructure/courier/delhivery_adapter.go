package courier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/infrastructure/config"
)

const (
	// maxResponseSize caps courier response bodies to prevent memory
	// exhaustion from a misbehaving upstream.
	maxResponseSize = 10 * 1024 * 1024

	// defaultCourierTimeout applies when a courier has no timeout configured.
	defaultCourierTimeout = 30 * time.Second

	delhiveryScanTimeFormat = "2006-01-02T15:04:05"
)

// volumetricDivisor converts cm^3 to kilograms for courier chargeable
// weight (L*B*H/5000).
var volumetricDivisor = decimal.NewFromInt(5000)

// DelhiveryAdapter integrates the Delhivery courier API. Auth is a static
// token header; the manifest endpoint takes a form-urlencoded envelope with
// a JSON document in the "data" field, weight in grams.
type DelhiveryAdapter struct {
	cfg        config.CourierConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDelhiveryAdapter creates a Delhivery adapter from the given config.
func NewDelhiveryAdapter(cfg config.CourierConfig, logger *zap.Logger) (*DelhiveryAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: delhivery base URL is required", courier.ErrCourierNotConfigured)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: delhivery API key is required", courier.ErrCourierNotConfigured)
	}
	return &DelhiveryAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: courierTimeout(cfg)},
		logger:     logger,
	}, nil
}

// Code returns the courier this adapter handles.
func (a *DelhiveryAdapter) Code() courier.CourierCode {
	return courier.CourierCodeDelhivery
}

// CreateShipment manifests a shipment with Delhivery. A response carrying a
// waybill is treated as success even when Delhivery's own success flag is
// false; the shipment exists upstream either way.
func (a *DelhiveryAdapter) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.ShipmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	data := delhiveryCreateData{
		Shipments:      []delhiveryShipment{a.buildShipment(req)},
		PickupLocation: delhiveryPickup{Name: a.cfg.PickupLocation},
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("delhivery: failed to marshal shipment data: %w", err)
	}

	form := url.Values{}
	form.Set("format", "json")
	form.Set("data", string(dataJSON))

	body, statusCode, err := a.postForm(ctx, "/api/cmu/create.json", form)
	if err != nil {
		return nil, err
	}

	var createResp delhiveryCreateResponse
	if err := json.Unmarshal(body, &createResp); err != nil {
		return nil, fmt.Errorf("%w: delhivery create: %v", courier.ErrCourierInvalidResponse, err)
	}

	result := &courier.ShipmentResult{
		Courier:     courier.CourierCodeDelhivery,
		RawResponse: string(body),
	}

	var pkg *delhiveryPackage
	if len(createResp.Packages) > 0 {
		pkg = &createResp.Packages[0]
	}

	if pkg != nil && pkg.Waybill != "" {
		result.Success = true
		result.AWBNumber = pkg.Waybill
		result.TrackingURL = delhiveryTrackingURL(pkg.Waybill)
		if !createResp.Success || statusCode >= 400 {
			a.logger.Warn("delhivery reported failure but returned a waybill, treating as created",
				zap.String("order_ref", req.OrderRef),
				zap.String("awb", pkg.Waybill),
				zap.Int("http_status", statusCode))
		}
		return result, nil
	}

	errMsg := createResp.RMK
	if pkg != nil {
		if remarks := pkg.RemarksText(); remarks != "" {
			errMsg = remarks
		}
	}
	if errMsg == "" {
		errMsg = fmt.Sprintf("delhivery rejected shipment (HTTP %d)", statusCode)
	}
	result.Error = errMsg
	return result, nil
}

// TrackShipment fetches the scan history for a waybill. Events are returned
// most recent first; status strings stay courier-native.
func (a *DelhiveryAdapter) TrackShipment(ctx context.Context, ref string) (*courier.TrackingResult, error) {
	query := url.Values{}
	query.Set("waybill", ref)

	body, statusCode, err := a.getJSON(ctx, "/api/v1/packages/json/", query)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, fmt.Errorf("%w: delhivery track HTTP %d", courier.ErrCourierRequestFailed, statusCode)
	}

	var trackResp delhiveryTrackResponse
	if err := json.Unmarshal(body, &trackResp); err != nil {
		return nil, fmt.Errorf("%w: delhivery track: %v", courier.ErrCourierInvalidResponse, err)
	}
	if len(trackResp.ShipmentData) == 0 {
		return nil, fmt.Errorf("%w: %s", courier.ErrShipmentNotFound, ref)
	}

	shipment := trackResp.ShipmentData[0].Shipment

	events := make([]courier.TrackingEvent, 0, len(shipment.Scans))
	// Delhivery returns scans oldest first.
	for i := len(shipment.Scans) - 1; i >= 0; i-- {
		detail := shipment.Scans[i].ScanDetail
		ts, _ := time.Parse(delhiveryScanTimeFormat, detail.ScanDateTime)
		events = append(events, courier.TrackingEvent{
			Status:     detail.Scan,
			StatusCode: detail.ScanType,
			Location:   detail.ScannedLocation,
			Remarks:    detail.Instructions,
			Timestamp:  ts,
		})
	}

	return &courier.TrackingResult{
		AWBNumber:     ref,
		Courier:       courier.CourierCodeDelhivery,
		CurrentStatus: shipment.Status.Status,
		Events:        events,
		RawResponse:   string(body),
	}, nil
}

// CancelShipment requests cancellation of a manifested waybill.
func (a *DelhiveryAdapter) CancelShipment(ctx context.Context, ref string) (*courier.CancelResult, error) {
	cancelData, err := json.Marshal(map[string]any{
		"waybill":      ref,
		"cancellation": true,
	})
	if err != nil {
		return nil, fmt.Errorf("delhivery: failed to marshal cancel data: %w", err)
	}

	form := url.Values{}
	form.Set("format", "json")
	form.Set("data", string(cancelData))

	body, statusCode, err := a.postForm(ctx, "/api/p/edit", form)
	if err != nil {
		return nil, err
	}

	var cancelResp delhiveryCancelResponse
	if err := json.Unmarshal(body, &cancelResp); err != nil {
		return nil, fmt.Errorf("%w: delhivery cancel: %v", courier.ErrCourierInvalidResponse, err)
	}

	if statusCode >= 400 || !cancelResp.Status {
		errMsg := cancelResp.Remark
		if errMsg == "" {
			errMsg = cancelResp.Error
		}
		if errMsg == "" {
			errMsg = fmt.Sprintf("delhivery refused cancellation (HTTP %d)", statusCode)
		}
		return &courier.CancelResult{Success: false, Error: errMsg}, nil
	}
	return &courier.CancelResult{Success: true}, nil
}

// CalculateRate quotes the freight charge for a route. Chargeable weight is
// the greater of actual and volumetric weight, sent to Delhivery in grams.
func (a *DelhiveryAdapter) CalculateRate(ctx context.Context, req *courier.RateRequest) (*courier.RateResult, error) {
	grams := chargeableWeightKg(req.WeightKg, req.LengthCm, req.BreadthCm, req.HeightCm).
		Mul(decimal.NewFromInt(1000)).Round(0)

	query := url.Values{}
	query.Set("md", "E")
	query.Set("cgm", grams.String())
	query.Set("o_pin", req.PickupPincode)
	query.Set("d_pin", req.DeliveryPincode)
	query.Set("ss", "Delivered")

	body, statusCode, err := a.getJSON(ctx, "/api/kinko/v1/invoice/charges/.json", query)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, fmt.Errorf("%w: delhivery rates HTTP %d", courier.ErrCourierRequestFailed, statusCode)
	}

	// The endpoint answers with an array or a single object.
	var entries []delhiveryRateEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		var single delhiveryRateEntry
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, fmt.Errorf("%w: delhivery rates: %v", courier.ErrCourierInvalidResponse, err)
		}
		entries = append(entries, single)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: delhivery returned no rates", courier.ErrCourierInvalidResponse)
	}

	return &courier.RateResult{
		Courier:     courier.CourierCodeDelhivery,
		TotalCharge: decimal.NewFromFloat(entries[0].TotalAmount),
		Currency:    "INR",
		RawResponse: string(body),
	}, nil
}

// CheckServiceability looks up the delivery pincode in Delhivery's pincode
// directory. Pickup serviceability is assumed for registered locations.
func (a *DelhiveryAdapter) CheckServiceability(ctx context.Context, pickupPincode, deliveryPincode string) (*courier.ServiceabilityResult, error) {
	query := url.Values{}
	query.Set("filter_codes", deliveryPincode)

	body, statusCode, err := a.getJSON(ctx, "/c/api/pin-codes/json/", query)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, fmt.Errorf("%w: delhivery serviceability HTTP %d", courier.ErrCourierRequestFailed, statusCode)
	}

	var pinResp delhiveryPincodeResponse
	if err := json.Unmarshal(body, &pinResp); err != nil {
		return nil, fmt.Errorf("%w: delhivery serviceability: %v", courier.ErrCourierInvalidResponse, err)
	}

	if len(pinResp.DeliveryCodes) == 0 {
		return &courier.ServiceabilityResult{Serviceable: false}, nil
	}

	code := pinResp.DeliveryCodes[0].PostalCode
	prepaid := strings.EqualFold(code.PrePaid, "Y")
	cod := strings.EqualFold(code.COD, "Y")
	return &courier.ServiceabilityResult{
		Serviceable:      prepaid || cod,
		PrepaidAvailable: prepaid,
		CODAvailable:     cod,
	}, nil
}

func (a *DelhiveryAdapter) buildShipment(req *courier.ShipmentRequest) delhiveryShipment {
	grams := req.WeightKg.Mul(decimal.NewFromInt(1000)).Round(0)

	codAmount := decimal.Zero
	paymentMode := "Prepaid"
	if req.PaymentMode == courier.PaymentModeCOD {
		paymentMode = "COD"
		codAmount = req.CODAmount
	}

	return delhiveryShipment{
		Name:          req.Consignee.Name,
		Add:           joinAddressLines(req.Consignee.Line1, req.Consignee.Line2),
		Pin:           req.Consignee.Pincode,
		City:          req.Consignee.City,
		State:         req.Consignee.State,
		Country:       countryOrDefault(req.Consignee.Country),
		Phone:         req.Consignee.Phone,
		Order:         req.OrderRef,
		PaymentMode:   paymentMode,
		CODAmount:     codAmount.String(),
		TotalAmount:   req.DeclaredValue.String(),
		ProductsDesc:  req.ProductDescription,
		Quantity:      req.Quantity,
		Weight:        grams.String(),
		ShipmentLen:   req.LengthCm.String(),
		ShipmentWidth: req.BreadthCm.String(),
		ShipmentHt:    req.HeightCm.String(),
		ReturnName:    req.Pickup.Name,
		ReturnAdd:     joinAddressLines(req.Pickup.Line1, req.Pickup.Line2),
		ReturnPin:     req.Pickup.Pincode,
		ReturnCity:    req.Pickup.City,
		ReturnState:   req.Pickup.State,
		ReturnCountry: countryOrDefault(req.Pickup.Country),
		ReturnPhone:   req.Pickup.Phone,
		SellerName:    req.Pickup.Name,
		SellerAdd:     joinAddressLines(req.Pickup.Line1, req.Pickup.Line2),
		SellerInv:     req.OrderRef,
	}
}

func (a *DelhiveryAdapter) postForm(ctx context.Context, path string, form url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("delhivery: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return a.send(req)
}

func (a *DelhiveryAdapter) getJSON(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("delhivery: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+a.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	return a.send(req)
}

func (a *DelhiveryAdapter) send(req *http.Request) ([]byte, int, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", courier.ErrCourierUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("delhivery: failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return body, resp.StatusCode, fmt.Errorf("%w: delhivery rejected API token", courier.ErrCourierAuthFailed)
	}
	return body, resp.StatusCode, nil
}

// chargeableWeightKg returns the greater of actual and volumetric weight.
func chargeableWeightKg(weightKg, lengthCm, breadthCm, heightCm decimal.Decimal) decimal.Decimal {
	volumetric := lengthCm.Mul(breadthCm).Mul(heightCm).Div(volumetricDivisor)
	if volumetric.GreaterThan(weightKg) {
		return volumetric
	}
	return weightKg
}

func joinAddressLines(line1, line2 string) string {
	if line2 == "" {
		return line1
	}
	return line1 + ", " + line2
}

func countryOrDefault(country string) string {
	if country == "" {
		return "India"
	}
	return country
}

func delhiveryTrackingURL(waybill string) string {
	return "https://www.delhivery.com/track/package/" + waybill
}

func courierTimeout(cfg config.CourierConfig) time.Duration {
	if cfg.Timeout <= 0 {
		return defaultCourierTimeout
	}
	return cfg.Timeout
}

// isAuthError reports whether an adapter call failed on authentication.
func isAuthError(err error) bool {
	return errors.Is(err, courier.ErrCourierAuthFailed)
}

var (
	_ courier.CourierService        = (*DelhiveryAdapter)(nil)
	_ courier.RateCalculator        = (*DelhiveryAdapter)(nil)
	_ courier.ServiceabilityChecker = (*DelhiveryAdapter)(nil)
)
