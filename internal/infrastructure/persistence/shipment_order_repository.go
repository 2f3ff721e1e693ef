package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shipstack/backend/internal/domain/shared"
	"github.com/shipstack/backend/internal/domain/shipment"
	"github.com/shipstack/backend/internal/infrastructure/persistence/models"
)

// GormShipmentOrderRepository implements shipment.Repository using GORM
type GormShipmentOrderRepository struct {
	db *gorm.DB
}

// NewGormShipmentOrderRepository creates a new GormShipmentOrderRepository
func NewGormShipmentOrderRepository(db *gorm.DB) *GormShipmentOrderRepository {
	return &GormShipmentOrderRepository{db: db}
}

// Create persists a new order record
func (r *GormShipmentOrderRepository) Create(ctx context.Context, o *shipment.Order) error {
	var model models.ShipmentOrderModel
	model.FromDomain(o)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByOrderRef returns a merchant's order by its order reference
func (r *GormShipmentOrderRepository) FindByOrderRef(ctx context.Context, merchantID uuid.UUID, orderRef string) (*shipment.Order, error) {
	var model models.ShipmentOrderModel
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND order_ref = ?", merchantID, orderRef).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAWB returns an order by its courier tracking identifier
func (r *GormShipmentOrderRepository) FindByAWB(ctx context.Context, awbNumber string) (*shipment.Order, error) {
	var model models.ShipmentOrderModel
	if err := r.db.WithContext(ctx).
		First(&model, "awb_number = ?", awbNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists changes to an existing order
func (r *GormShipmentOrderRepository) Save(ctx context.Context, o *shipment.Order) error {
	var model models.ShipmentOrderModel
	model.FromDomain(o)
	result := r.db.WithContext(ctx).
		Model(&models.ShipmentOrderModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"courier_cost":  model.CourierCost,
			"vendor_charge": model.VendorCharge,
			"billing_state": model.BillingState,
			"label_url":     model.LabelURL,
			"tracking_url":  model.TrackingURL,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListUnbilled returns orders awaiting manual billing reconciliation
func (r *GormShipmentOrderRepository) ListUnbilled(ctx context.Context) ([]*shipment.Order, error) {
	var rows []models.ShipmentOrderModel
	if err := r.db.WithContext(ctx).
		Where("billing_state = ?", shipment.BillingStateUnbilled.String()).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*shipment.Order, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}
