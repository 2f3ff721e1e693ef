package courier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipstack/backend/internal/domain/courier"
)

type staticAdapter struct {
	code courier.CourierCode
}

func (s *staticAdapter) Code() courier.CourierCode { return s.code }

func (s *staticAdapter) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.ShipmentResult, error) {
	return &courier.ShipmentResult{Success: true, AWBNumber: "AWB", Courier: s.code}, nil
}

func (s *staticAdapter) TrackShipment(ctx context.Context, ref string) (*courier.TrackingResult, error) {
	return &courier.TrackingResult{AWBNumber: ref, Courier: s.code}, nil
}

func (s *staticAdapter) CancelShipment(ctx context.Context, ref string) (*courier.CancelResult, error) {
	return &courier.CancelResult{Success: true}, nil
}

func TestRegistry_GetRegistered(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&staticAdapter{code: courier.CourierCodeDelhivery})

	svc, err := registry.Get(courier.CourierCodeDelhivery)
	require.NoError(t, err)
	assert.Equal(t, courier.CourierCodeDelhivery, svc.Code())
}

func TestRegistry_GetUnconfigured(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get(courier.CourierCodeEkart)
	assert.ErrorIs(t, err, courier.ErrCourierNotConfigured)
}

func TestRegistry_GetUnknownCode(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get(courier.CourierCode("PIGEON"))
	assert.ErrorIs(t, err, courier.ErrCourierNotSupported)
}

func TestRegistry_ListIsSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&staticAdapter{code: courier.CourierCodeXpressbees})
	registry.Register(&staticAdapter{code: courier.CourierCodeBlitz})
	registry.Register(&staticAdapter{code: courier.CourierCodeDelhivery})

	assert.Equal(t, []courier.CourierCode{
		courier.CourierCodeBlitz,
		courier.CourierCodeDelhivery,
		courier.CourierCodeXpressbees,
	}, registry.List())
}

func TestRegistry_IsSupported(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&staticAdapter{code: courier.CourierCodeBlitz})

	assert.True(t, registry.IsSupported(courier.CourierCodeBlitz))
	assert.False(t, registry.IsSupported(courier.CourierCodeEkart))
}
