package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/pricing"
	"github.com/shipstack/backend/internal/domain/shipment"
)

// ShipmentOrderModel is the persistence model for the shipment Order entity.
type ShipmentOrderModel struct {
	BaseModel
	MerchantID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_orders_merchant_ref,priority:1"`
	AccountType  string          `gorm:"type:varchar(10);not null"`
	Courier      string          `gorm:"type:varchar(20);not null;index"`
	OrderRef     string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_orders_merchant_ref,priority:2"`
	AWBNumber    string          `gorm:"type:varchar(100);not null;index"`
	Status       string          `gorm:"type:varchar(30);not null;index"`
	PaymentMode  string          `gorm:"type:varchar(10);not null"`
	CODAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	WeightKg     decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0"`
	CourierCost  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VendorCharge decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BillingState string          `gorm:"type:varchar(20);not null;index"`
	LabelURL     string          `gorm:"type:text"`
	TrackingURL  string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ShipmentOrderModel) TableName() string {
	return "shipment_orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *ShipmentOrderModel) ToDomain() *shipment.Order {
	return &shipment.Order{
		BaseEntity:   m.BaseModel.ToDomain(),
		MerchantID:   m.MerchantID,
		AccountType:  pricing.AccountType(m.AccountType),
		Courier:      courier.CourierCode(m.Courier),
		OrderRef:     m.OrderRef,
		AWBNumber:    m.AWBNumber,
		Status:       courier.OrderStatus(m.Status),
		PaymentMode:  courier.PaymentMode(m.PaymentMode),
		CODAmount:    m.CODAmount,
		WeightKg:     m.WeightKg,
		CourierCost:  m.CourierCost,
		VendorCharge: m.VendorCharge,
		BillingState: shipment.BillingState(m.BillingState),
		LabelURL:     m.LabelURL,
		TrackingURL:  m.TrackingURL,
	}
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *ShipmentOrderModel) FromDomain(o *shipment.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.MerchantID = o.MerchantID
	m.AccountType = o.AccountType.String()
	m.Courier = o.Courier.String()
	m.OrderRef = o.OrderRef
	m.AWBNumber = o.AWBNumber
	m.Status = o.Status.String()
	m.PaymentMode = o.PaymentMode.String()
	m.CODAmount = o.CODAmount
	m.WeightKg = o.WeightKg
	m.CourierCost = o.CourierCost
	m.VendorCharge = o.VendorCharge
	m.BillingState = o.BillingState.String()
	m.LabelURL = o.LabelURL
	m.TrackingURL = o.TrackingURL
}
