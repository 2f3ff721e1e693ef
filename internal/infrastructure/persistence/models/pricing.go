package models

import (
	"github.com/shopspring/decimal"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/pricing"
)

// RateRuleModel is the persistence model for the RateRule domain entity.
type RateRuleModel struct {
	BaseModel
	AccountType string           `gorm:"type:varchar(10);not null;index:idx_rate_rules_lookup,priority:1"`
	Courier     string           `gorm:"type:varchar(20);not null;index:idx_rate_rules_lookup,priority:2"`
	MinWeightKg *decimal.Decimal `gorm:"type:decimal(10,3)"`
	MaxWeightKg *decimal.Decimal `gorm:"type:decimal(10,3)"`
	MarginType  string           `gorm:"type:varchar(20);not null"`
	MarginValue decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Active      bool             `gorm:"not null;default:true;index:idx_rate_rules_lookup,priority:3"`
}

// TableName returns the table name for GORM
func (RateRuleModel) TableName() string {
	return "rate_rules"
}

// ToDomain converts the persistence model to a domain RateRule entity.
func (m *RateRuleModel) ToDomain() *pricing.RateRule {
	return &pricing.RateRule{
		BaseEntity:  m.BaseModel.ToDomain(),
		AccountType: pricing.AccountType(m.AccountType),
		Courier:     courier.CourierCode(m.Courier),
		MinWeightKg: m.MinWeightKg,
		MaxWeightKg: m.MaxWeightKg,
		MarginType:  pricing.MarginType(m.MarginType),
		MarginValue: m.MarginValue,
		Active:      m.Active,
	}
}

// FromDomain populates the persistence model from a domain RateRule entity.
func (m *RateRuleModel) FromDomain(r *pricing.RateRule) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.AccountType = r.AccountType.String()
	m.Courier = r.Courier.String()
	m.MinWeightKg = r.MinWeightKg
	m.MaxWeightKg = r.MaxWeightKg
	m.MarginType = r.MarginType.String()
	m.MarginValue = r.MarginValue
	m.Active = r.Active
}
