package courier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validRequest() *ShipmentRequest {
	return &ShipmentRequest{
		OrderRef: "ORD-1001",
		Consignee: Address{
			Name:    "Asha Verma",
			Phone:   "9876543210",
			Line1:   "14 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
			Country: "India",
		},
		Pickup: Address{
			Name:    "Acme Warehouse",
			Phone:   "9123456780",
			Line1:   "Plot 7, Industrial Area",
			City:    "Gurugram",
			State:   "Haryana",
			Pincode: "122001",
			Country: "India",
		},
		WeightKg:           decimal.NewFromFloat(1.5),
		LengthCm:           decimal.NewFromInt(30),
		BreadthCm:          decimal.NewFromInt(20),
		HeightCm:           decimal.NewFromInt(10),
		PaymentMode:        PaymentModePrepaid,
		DeclaredValue:      decimal.NewFromInt(1200),
		Quantity:           1,
		ProductDescription: "Apparel",
	}
}

func TestShipmentRequest_Validate(t *testing.T) {
	t.Run("valid prepaid", func(t *testing.T) {
		assert.NoError(t, validRequest().Validate())
	})

	t.Run("valid cod", func(t *testing.T) {
		req := validRequest()
		req.PaymentMode = PaymentModeCOD
		req.CODAmount = decimal.NewFromInt(1200)
		assert.NoError(t, req.Validate())
	})

	t.Run("missing order ref", func(t *testing.T) {
		req := validRequest()
		req.OrderRef = ""
		assert.Error(t, req.Validate())
	})

	t.Run("zero weight", func(t *testing.T) {
		req := validRequest()
		req.WeightKg = decimal.Zero
		assert.ErrorIs(t, req.Validate(), ErrInvalidWeight)
	})

	t.Run("cod without amount", func(t *testing.T) {
		req := validRequest()
		req.PaymentMode = PaymentModeCOD
		req.CODAmount = decimal.Zero
		assert.ErrorIs(t, req.Validate(), ErrCODAmountMismatch)
	})

	t.Run("prepaid with cod amount", func(t *testing.T) {
		req := validRequest()
		req.CODAmount = decimal.NewFromInt(100)
		assert.ErrorIs(t, req.Validate(), ErrCODAmountMismatch)
	})

	t.Run("invalid payment mode", func(t *testing.T) {
		req := validRequest()
		req.PaymentMode = PaymentMode("WALLET")
		assert.ErrorIs(t, req.Validate(), ErrInvalidPaymentMode)
	})

	t.Run("non-positive quantity rejected", func(t *testing.T) {
		req := validRequest()
		req.Quantity = 0
		assert.ErrorIs(t, req.Validate(), ErrInvalidQuantity)
		// Validate must not patch the request it was asked to check.
		assert.Equal(t, 0, req.Quantity)
	})
}

func TestCourierCode_IsValid(t *testing.T) {
	for _, c := range []CourierCode{
		CourierCodeDelhivery, CourierCodeBlitz, CourierCodeEkart,
		CourierCodeXpressbees, CourierCodeInnofulfill,
	} {
		assert.True(t, c.IsValid(), c)
	}
	assert.False(t, CourierCode("SHIPROCKET").IsValid())
}
