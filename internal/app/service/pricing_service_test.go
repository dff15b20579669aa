package service

import (
	"context"
	"testing"
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingService_Quote(t *testing.T) {
	env := setupPersonalizationTest(t)
	store := env.store
	pricing := NewPricingService(NewProductService(repository.NewProductRepository(env.db)), env.svc)
	product := createPricedProduct(t, env.db, "PRICE-1", "100")
	ctx := context.Background()
	idle := env.clock.Add(-25 * 24 * time.Hour)

	cases := []struct {
		name       string
		profile    *model.CustomerProfile
		price      string
		discount   string
		percentage string
		factors    PricingFactors
	}{
		{
			name:       "no profile",
			price:      "100",
			discount:   "0",
			percentage: "0",
			factors:    PricingFactors{NewCustomer: true},
		},
		{
			name:       "new customer",
			profile:    &model.CustomerProfile{LifecycleStage: model.LifecycleNew, PredictedLTV: 100, LastUpdated: env.clock},
			price:      "90",
			discount:   "10",
			percentage: "10",
			factors:    PricingFactors{LifecycleDiscount: true},
		},
		{
			// stored churn is stale; 25 idle days put it at 0.83
			name:       "idle high-value champion",
			profile:    &model.CustomerProfile{LifecycleStage: model.LifecycleChampion, PredictedLTV: 1200, ChurnRisk: 0.1, LastUpdated: idle},
			price:      "84.79",
			discount:   "15.21",
			percentage: "15.2",
			factors:    PricingFactors{ChurnRiskAdjustment: true, HighValueCustomer: true, LifecycleDiscount: true},
		},
		{
			name:       "high-value loyal pays a premium",
			profile:    &model.CustomerProfile{LifecycleStage: model.LifecycleLoyal, PredictedLTV: 1500, ChurnRisk: 0.9, LastUpdated: env.clock},
			price:      "105",
			discount:   "-5",
			percentage: "0",
			factors:    PricingFactors{HighValueCustomer: true},
		},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			userID := uint(100 + i)
			if tc.profile != nil {
				tc.profile.UserID = userID
				require.NoError(t, store.Put(ctx, tc.profile))
			}

			quote, err := pricing.Quote(ctx, userID, product.ID)
			require.NoError(t, err)
			assertMoney(t, "100", quote.BasePrice)
			assertMoney(t, tc.price, quote.PersonalizedPrice)
			assertMoney(t, tc.discount, quote.DiscountAmount)
			assertMoney(t, tc.percentage, quote.DiscountPercentage)
			assert.Equal(t, tc.factors, quote.Factors)
		})
	}
}

func TestPricingService_UnknownProduct(t *testing.T) {
	env := setupPersonalizationTest(t)
	pricing := NewPricingService(NewProductService(repository.NewProductRepository(env.db)), env.svc)

	_, err := pricing.Quote(context.Background(), 1, 9999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
