package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/domain/pricing"
	"github.com/shipstack/backend/internal/domain/shared"
)

type memoryRuleRepo struct {
	rules map[uuid.UUID]*pricing.RateRule
}

func newMemoryRuleRepo() *memoryRuleRepo {
	return &memoryRuleRepo{rules: make(map[uuid.UUID]*pricing.RateRule)}
}

func (r *memoryRuleRepo) Create(_ context.Context, rule *pricing.RateRule) error {
	r.rules[rule.ID] = rule
	return nil
}

func (r *memoryRuleRepo) FindByID(_ context.Context, id uuid.UUID) (*pricing.RateRule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return rule, nil
}

func (r *memoryRuleRepo) FindApplicable(_ context.Context, _ pricing.AccountType, _ courier.CourierCode) ([]*pricing.RateRule, error) {
	return nil, nil
}

func (r *memoryRuleRepo) List(_ context.Context) ([]*pricing.RateRule, error) {
	out := make([]*pricing.RateRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	return out, nil
}

func (r *memoryRuleRepo) Save(_ context.Context, rule *pricing.RateRule) error {
	r.rules[rule.ID] = rule
	return nil
}

func rateRuleTestRouter(repo pricing.RateRuleRepository) *gin.Engine {
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewRateRuleHandler(repo).RegisterRoutes(api)
	return engine
}

func TestRateRuleHandler_Create(t *testing.T) {
	repo := newMemoryRuleRepo()
	engine := rateRuleTestRouter(repo)

	w := doJSONRequest(t, engine, "POST", "/api/v1/rate-rules", "", map[string]any{
		"account_type": "B2C",
		"courier":      "DELHIVERY",
		"margin_type":  "PERCENTAGE",
		"margin_value": 18.0,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, repo.rules, 1)
	for _, rule := range repo.rules {
		assert.Equal(t, pricing.AccountTypeB2C, rule.AccountType)
		assert.True(t, decimal.NewFromInt(18).Equal(rule.MarginValue))
		assert.True(t, rule.Active)
	}
}

func TestRateRuleHandler_Create_WithWeightBand(t *testing.T) {
	repo := newMemoryRuleRepo()
	engine := rateRuleTestRouter(repo)

	w := doJSONRequest(t, engine, "POST", "/api/v1/rate-rules", "", map[string]any{
		"account_type":  "B2B",
		"courier":       "BLITZ",
		"margin_type":   "FLAT",
		"margin_value":  25.0,
		"min_weight_kg": 0.5,
		"max_weight_kg": 5.0,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	for _, rule := range repo.rules {
		require.True(t, rule.HasWeightBand())
		assert.True(t, rule.AppliesTo(decimal.NewFromInt(2)))
		assert.False(t, rule.AppliesTo(decimal.NewFromInt(8)))
	}
}

func TestRateRuleHandler_Create_HalfBandRejected(t *testing.T) {
	engine := rateRuleTestRouter(newMemoryRuleRepo())

	w := doJSONRequest(t, engine, "POST", "/api/v1/rate-rules", "", map[string]any{
		"account_type":  "B2B",
		"courier":       "BLITZ",
		"margin_type":   "FLAT",
		"margin_value":  25.0,
		"min_weight_kg": 0.5,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateRuleHandler_Create_InvalidCourier(t *testing.T) {
	engine := rateRuleTestRouter(newMemoryRuleRepo())

	w := doJSONRequest(t, engine, "POST", "/api/v1/rate-rules", "", map[string]any{
		"account_type": "B2C",
		"courier":      "PIGEON",
		"margin_type":  "PERCENTAGE",
		"margin_value": 10.0,
	})

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "ERR_INVALID_COURIER")
}

func TestRateRuleHandler_Deactivate(t *testing.T) {
	repo := newMemoryRuleRepo()
	rule, err := pricing.NewRateRule(pricing.AccountTypeB2C, "DELHIVERY", pricing.MarginTypePercentage, decimal.NewFromInt(15))
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), rule))

	engine := rateRuleTestRouter(repo)
	w := doJSONRequest(t, engine, "POST", "/api/v1/rate-rules/"+rule.ID.String()+"/deactivate", "", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, repo.rules[rule.ID].Active)
}

func TestRateRuleHandler_Deactivate_UnknownID(t *testing.T) {
	engine := rateRuleTestRouter(newMemoryRuleRepo())

	w := doJSONRequest(t, engine, "POST", "/api/v1/rate-rules/"+uuid.NewString()+"/deactivate", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
