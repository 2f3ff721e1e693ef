package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/pricing"
	"github.com/shipstack/backend/internal/domain/shared"
	"github.com/shipstack/backend/internal/infrastructure/persistence/models"
)

// GormRateRuleRepository implements pricing.RateRuleRepository using GORM
type GormRateRuleRepository struct {
	db *gorm.DB
}

// NewGormRateRuleRepository creates a new GormRateRuleRepository
func NewGormRateRuleRepository(db *gorm.DB) *GormRateRuleRepository {
	return &GormRateRuleRepository{db: db}
}

// Create persists a new rate rule
func (r *GormRateRuleRepository) Create(ctx context.Context, rule *pricing.RateRule) error {
	var model models.RateRuleModel
	model.FromDomain(rule)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID returns a rule by its identifier
func (r *GormRateRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.RateRule, error) {
	var model models.RateRuleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindApplicable returns all active rules for the account type and courier
func (r *GormRateRuleRepository) FindApplicable(ctx context.Context, accountType pricing.AccountType, courierCode courier.CourierCode) ([]*pricing.RateRule, error) {
	var rows []models.RateRuleModel
	if err := r.db.WithContext(ctx).
		Where("account_type = ? AND courier = ? AND active = ?", accountType.String(), courierCode.String(), true).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*pricing.RateRule, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// List returns all rules, active and inactive
func (r *GormRateRuleRepository) List(ctx context.Context) ([]*pricing.RateRule, error) {
	var rows []models.RateRuleModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*pricing.RateRule, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Save persists changes to an existing rule
func (r *GormRateRuleRepository) Save(ctx context.Context, rule *pricing.RateRule) error {
	var model models.RateRuleModel
	model.FromDomain(rule)
	result := r.db.WithContext(ctx).
		Model(&models.RateRuleModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"account_type":  model.AccountType,
			"courier":       model.Courier,
			"min_weight_kg": model.MinWeightKg,
			"max_weight_kg": model.MaxWeightKg,
			"margin_type":   model.MarginType,
			"margin_value":  model.MarginValue,
			"active":        model.Active,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
