package pricing

import (
	"context"

	"github.com/google/uuid"

	"github.com/shipstack/backend/internal/domain/courier"
)

// RateRuleRepository is the port for the persisted rate-card store.
type RateRuleRepository interface {
	// Create persists a new rate rule
	Create(ctx context.Context, rule *RateRule) error

	// FindByID returns a rule by its identifier
	FindByID(ctx context.Context, id uuid.UUID) (*RateRule, error)

	// FindApplicable returns all active rules for the account type and
	// courier; weight-band filtering and specificity resolution happen in
	// the pricing engine
	FindApplicable(ctx context.Context, accountType AccountType, courierCode courier.CourierCode) ([]*RateRule, error)

	// List returns all rules, active and inactive
	List(ctx context.Context) ([]*RateRule, error)

	// Save persists changes to an existing rule
	Save(ctx context.Context, rule *RateRule) error
}
