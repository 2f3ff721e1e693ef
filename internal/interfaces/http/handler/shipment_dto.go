package handler

import (
	"github.com/shipstack/backend/internal/domain/courier"
)

// AddressRequest is one party's contact and location details.
type AddressRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Line1   string `json:"line1" binding:"required"`
	Line2   string `json:"line2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode" binding:"required,numeric,len=6"`
	Country string `json:"country"`
}

// CreateShipmentRequest is the inbound booking payload. Weight is in
// kilograms and dimensions in centimeters; courier-native units are the
// adapters' concern.
type CreateShipmentRequest struct {
	OrderRef           string         `json:"order_ref" binding:"required"`
	Courier            string         `json:"courier" binding:"required"`
	AccountType        string         `json:"account_type" binding:"required,oneof=B2B B2C"`
	Consignee          AddressRequest `json:"consignee" binding:"required"`
	Pickup             AddressRequest `json:"pickup" binding:"required"`
	WeightKg           float64        `json:"weight_kg" binding:"required,gt=0"`
	LengthCm           float64        `json:"length_cm" binding:"omitempty,gt=0"`
	BreadthCm          float64        `json:"breadth_cm" binding:"omitempty,gt=0"`
	HeightCm           float64        `json:"height_cm" binding:"omitempty,gt=0"`
	PaymentMode        string         `json:"payment_mode" binding:"required,oneof=PREPAID COD"`
	CODAmount          float64        `json:"cod_amount" binding:"omitempty,gte=0"`
	DeclaredValue      float64        `json:"declared_value" binding:"omitempty,gte=0"`
	Quantity           int            `json:"quantity" binding:"omitempty,min=1"`
	ProductDescription string         `json:"product_description"`
}

// ToDomain converts the inbound payload to the courier-agnostic request.
// An omitted quantity means a single package.
func (r *CreateShipmentRequest) ToDomain() *courier.ShipmentRequest {
	quantity := r.Quantity
	if quantity == 0 {
		quantity = 1
	}
	return &courier.ShipmentRequest{
		OrderRef:           r.OrderRef,
		Consignee:          r.Consignee.toDomain(),
		Pickup:             r.Pickup.toDomain(),
		WeightKg:           toDecimal(r.WeightKg),
		LengthCm:           toDecimal(r.LengthCm),
		BreadthCm:          toDecimal(r.BreadthCm),
		HeightCm:           toDecimal(r.HeightCm),
		PaymentMode:        courier.PaymentMode(r.PaymentMode),
		CODAmount:          toDecimal(r.CODAmount),
		DeclaredValue:      toDecimal(r.DeclaredValue),
		Quantity:           quantity,
		ProductDescription: r.ProductDescription,
	}
}

func (a *AddressRequest) toDomain() courier.Address {
	return courier.Address{
		Name:    a.Name,
		Phone:   a.Phone,
		Email:   a.Email,
		Line1:   a.Line1,
		Line2:   a.Line2,
		City:    a.City,
		State:   a.State,
		Pincode: a.Pincode,
		Country: a.Country,
	}
}

// UnbilledOrderResponse is one reconciliation-queue entry.
type UnbilledOrderResponse struct {
	OrderRef     string `json:"order_ref"`
	MerchantID   string `json:"merchant_id"`
	Courier      string `json:"courier"`
	AWBNumber    string `json:"awb_number"`
	Status       string `json:"status"`
	CourierCost  string `json:"courier_cost"`
	VendorCharge string `json:"vendor_charge"`
	CreatedAt    string `json:"created_at"`
}
