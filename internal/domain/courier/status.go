package courier

import "strings"

// OrderStatus is the closed set of order-lifecycle states shared by all
// couriers. It is the single source of truth for order state and is never
// extended per-courier.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusReadyToShip    OrderStatus = "READY_TO_SHIP"
	OrderStatusManifested     OrderStatus = "MANIFESTED"
	OrderStatusOutForPickup   OrderStatus = "OUT_FOR_PICKUP"
	OrderStatusPickedUp       OrderStatus = "PICKED_UP"
	OrderStatusInTransit      OrderStatus = "IN_TRANSIT"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusRTO            OrderStatus = "RTO"
	OrderStatusRTODelivered   OrderStatus = "RTO_DELIVERED"
	OrderStatusFailed         OrderStatus = "FAILED"
)

// IsValid returns true if the status is a member of the closed set
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusReadyToShip,
		OrderStatusManifested, OrderStatusOutForPickup, OrderStatusPickedUp,
		OrderStatusInTransit, OrderStatusOutForDelivery, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusRTO, OrderStatusRTODelivered,
		OrderStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states the order cannot leave
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRTODelivered, OrderStatusFailed:
		return true
	default:
		return false
	}
}

// statusAliasGroup couples a canonical status with the courier phrasings that
// mean it. A raw status matches when it equals an alias or contains it as a
// substring.
type statusAliasGroup struct {
	status  OrderStatus
	aliases []string
}

// statusAliasGroups is evaluated in order. The ordering is load-bearing:
// "rto delivered" contains both "delivered" and "rto" as substrings and must
// resolve to RTO_DELIVERED, so the RTO variants sit ahead of DELIVERED, and
// DELIVERED ahead of the transit states whose phrasings it can appear inside.
var statusAliasGroups = []statusAliasGroup{
	{OrderStatusRTODelivered, []string{
		"rto delivered", "rto_delivered", "return delivered",
		"returned to origin", "rto completed",
	}},
	{OrderStatusRTO, []string{
		"rto", "return to origin", "rto initiated", "rto in transit",
		"returned", "return in transit",
	}},
	{OrderStatusDelivered, []string{
		"delivered", "delivery done", "shipment delivered", "dlvd",
	}},
	{OrderStatusOutForDelivery, []string{
		"out for delivery", "out-for-delivery", "ofd", "dispatched for delivery",
	}},
	{OrderStatusInTransit, []string{
		"in transit", "in-transit", "intransit", "shipped", "on the way",
		"reached at destination", "in line haul",
	}},
	{OrderStatusOutForPickup, []string{
		"out for pickup", "out for pick up", "out-for-pickup",
		"pickup scheduled", "out for collection", "pickup assigned",
	}},
	{OrderStatusPickedUp, []string{
		"picked up", "picked-up", "pickup done", "picked", "pkd",
		"pickup complete", "shipment picked",
	}},
	{OrderStatusManifested, []string{
		"manifested", "manifest", "shipment created", "awb assigned",
		"order placed", "soft data uploaded",
	}},
}

// exactStatusAliases are matched by exact equality only, after the ordered
// substring groups. These phrases are too short or too generic for substring
// matching to be safe.
var exactStatusAliases = map[string]OrderStatus{
	"ready to ship":   OrderStatusReadyToShip,
	"ready_to_ship":   OrderStatusReadyToShip,
	"ready for ship":  OrderStatusReadyToShip,
	"cancelled":       OrderStatusCancelled,
	"canceled":        OrderStatusCancelled,
	"cancellation":    OrderStatusCancelled,
	"order cancelled": OrderStatusCancelled,
	"failed":          OrderStatusFailed,
	"failure":         OrderStatusFailed,
	"undelivered":     OrderStatusFailed,
	"not delivered":   OrderStatusFailed,
}

// NormalizeStatus maps free-text courier status to the canonical OrderStatus.
// The second return value is false when nothing matches; callers must then
// preserve the order's last known status rather than overwrite it with a
// guess.
func NormalizeStatus(raw string) (OrderStatus, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", false
	}
	normalized = strings.Join(strings.Fields(normalized), " ")

	for _, group := range statusAliasGroups {
		for _, alias := range group.aliases {
			if normalized == alias || strings.Contains(normalized, alias) {
				return group.status, true
			}
		}
	}

	if status, ok := exactStatusAliases[normalized]; ok {
		return status, true
	}

	return "", false
}
