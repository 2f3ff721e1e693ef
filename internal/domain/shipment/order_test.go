package shipment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/pricing"
	"github.com/shipstack/backend/internal/domain/shared"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(uuid.New(), pricing.AccountTypeB2C, courier.CourierCodeDelhivery, "ORD-1001", "AWB123456")
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("valid order starts manifested and unapplicable", func(t *testing.T) {
		o := newTestOrder(t)
		assert.Equal(t, courier.OrderStatusManifested, o.Status)
		assert.Equal(t, BillingStateNotApplicable, o.BillingState)
		assert.NotEqual(t, uuid.Nil, o.GetID())
	})

	t.Run("rejects nil merchant", func(t *testing.T) {
		_, err := NewOrder(uuid.Nil, pricing.AccountTypeB2C, courier.CourierCodeDelhivery, "ORD-1", "AWB1")
		assert.Error(t, err)
	})

	t.Run("rejects empty order ref", func(t *testing.T) {
		_, err := NewOrder(uuid.New(), pricing.AccountTypeB2C, courier.CourierCodeDelhivery, "", "AWB1")
		assert.Error(t, err)
	})

	t.Run("rejects empty awb", func(t *testing.T) {
		_, err := NewOrder(uuid.New(), pricing.AccountTypeB2C, courier.CourierCodeDelhivery, "ORD-1", "")
		assert.Error(t, err)
	})
}

func TestOrderBilling(t *testing.T) {
	t.Run("mark billed", func(t *testing.T) {
		o := newTestOrder(t)
		o.MarkBilled(decimal.NewFromInt(100), decimal.NewFromInt(115))
		assert.Equal(t, BillingStateBilled, o.BillingState)
		assert.True(t, o.VendorCharge.Equal(decimal.NewFromInt(115)))
	})

	t.Run("mark unbilled keeps amounts for reconciliation", func(t *testing.T) {
		o := newTestOrder(t)
		o.MarkUnbilled(decimal.NewFromInt(100), decimal.NewFromInt(115))
		assert.Equal(t, BillingStateUnbilled, o.BillingState)
		assert.True(t, o.CourierCost.Equal(decimal.NewFromInt(100)))
	})
}

func TestOrderApplyStatus(t *testing.T) {
	t.Run("normal transition", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.ApplyStatus(courier.OrderStatusInTransit))
		assert.Equal(t, courier.OrderStatusInTransit, o.Status)
	})

	t.Run("terminal status is sticky", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.ApplyStatus(courier.OrderStatusDelivered))
		err := o.ApplyStatus(courier.OrderStatusInTransit)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, courier.OrderStatusDelivered, o.Status)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		o := newTestOrder(t)
		assert.Error(t, o.ApplyStatus(courier.OrderStatus("BOGUS")))
	})
}

func TestOrderApplyRawStatus(t *testing.T) {
	t.Run("mapped text updates status", func(t *testing.T) {
		o := newTestOrder(t)
		applied, err := o.ApplyRawStatus("Out For Delivery")
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, courier.OrderStatusOutForDelivery, o.Status)
	})

	t.Run("unmapped text preserves last known status", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.ApplyStatus(courier.OrderStatusInTransit))
		applied, err := o.ApplyRawStatus("Parcel resting at hub cafeteria")
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, courier.OrderStatusInTransit, o.Status)
	})
}
