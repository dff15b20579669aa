package service

import (
	"context"
	"testing"
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setPreferences(t *testing.T, env *personalizationTestEnv, userID uint, prefs map[string]float64) {
	t.Helper()
	ctx := context.Background()
	_, err := env.svc.GetOrCreateProfile(ctx, userID)
	require.NoError(t, err)
	_, err = env.store.Upsert(ctx, userID, func(p *model.CustomerProfile, exists bool) error {
		p.Preferences = prefs
		return nil
	})
	require.NoError(t, err)
}

func TestRecommendForPreferences_WithoutProfile(t *testing.T) {
	env := setupPersonalizationTest(t)
	ctx := context.Background()
	user := createUser(t, env.db, "newcomer")

	result, err := env.svc.RecommendForPreferences(ctx, user.ID, 0, true)
	require.NoError(t, err)

	assert.Equal(t, user.ID, result.UserID)
	assert.Equal(t, newCustomerSnapshot, result.CustomerInsights)
	require.Len(t, result.Recommendations, 4)
	for _, rec := range result.Recommendations {
		assert.Equal(t, PersonalizationPopularityBased, rec.PersonalizationType)
		assert.Equal(t, 0.7, rec.ConfidenceScore)
		assert.Equal(t, "Popular product for new customers", rec.Reasoning)
	}

	// looking did not create a profile
	_, err = env.store.Get(ctx, user.ID)
	assert.ErrorIs(t, err, profile.ErrNotFound)

	result, err = env.svc.RecommendForPreferences(ctx, user.ID, 2, false)
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)
	assert.Empty(t, result.Recommendations[0].Reasoning)
}

func TestRecommendForPreferences_TopCategories(t *testing.T) {
	env := setupPersonalizationTest(t)
	ctx := context.Background()
	user := createUser(t, env.db, "runner")
	setPreferences(t, env, user.ID, map[string]float64{
		"sports":   0.9,
		"vinyl":    0.7,
		"books":    0.5,
		"clothing": 0.1,
	})

	result, err := env.svc.RecommendForPreferences(ctx, user.ID, 6, true)
	require.NoError(t, err)

	// two per category; vinyl has no catalog entry and clothing is fourth
	require.Len(t, result.Recommendations, 3)
	shoes := findProduct(t, env.db, "SHOES-001")
	assert.Equal(t, shoes.ID, result.Recommendations[0].ProductID)
	assert.InDelta(t, 0.81, result.Recommendations[0].ConfidenceScore, 1e-9)
	assert.Equal(t, "Based on your sports preference score of 0.90", result.Recommendations[0].Reasoning)
	assertMoney(t, "149.99", result.Recommendations[0].Price)

	book := findProduct(t, env.db, "BOOK-001")
	assert.Equal(t, book.ID, result.Recommendations[1].ProductID)
	assert.InDelta(t, 0.45, result.Recommendations[1].ConfidenceScore, 1e-9)
	for _, rec := range result.Recommendations {
		assert.Equal(t, PersonalizationPreferenceBased, rec.PersonalizationType)
	}

	assert.Equal(t, model.LifecycleNew, result.CustomerInsights.LifecycleStage)
	assert.Equal(t, env.clock, result.GeneratedAt)
}

func TestRecommendForPreferences_TruncatesToLimit(t *testing.T) {
	env := setupPersonalizationTest(t)
	user := createUser(t, env.db, "gadgets")
	setPreferences(t, env, user.ID, map[string]float64{"electronics": 0.8})

	// a limit below the category count still yields one per category
	result, err := env.svc.RecommendForPreferences(context.Background(), user.ID, 1, true)
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, PersonalizationPreferenceBased, result.Recommendations[0].PersonalizationType)
}

func TestRecommendForPreferences_NoMatchingCategoryFallsBack(t *testing.T) {
	env := setupPersonalizationTest(t)
	user := createUser(t, env.db, "collector")
	setPreferences(t, env, user.ID, map[string]float64{"vinyl": 1})
	env.advance(45 * 24 * time.Hour)

	result, err := env.svc.RecommendForPreferences(context.Background(), user.ID, 3, true)
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 3)
	assert.Equal(t, PersonalizationPopularityBased, result.Recommendations[0].PersonalizationType)

	// the snapshot is the customer's own, refreshed to the clock
	assert.Greater(t, result.CustomerInsights.ChurnRisk, 0.5)
}
