package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/internal/profile"
	"github.com/anufa/anufa-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	PersonalizationPreferenceBased = "preference_based"
	PersonalizationPopularityBased = "popularity_based"

	defaultPreferenceLimit = 10
	maxPreferenceLimit     = 50
	preferenceCategories   = 3
	popularityConfidence   = 0.7
)

type PreferenceRecommendation struct {
	ProductID           uint            `json:"product_id"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price"`
	ConfidenceScore     float64         `json:"confidence_score"`
	Reasoning           string          `json:"reasoning,omitempty"`
	PersonalizationType string          `json:"personalization_type"`
}

type CustomerSnapshot struct {
	LifecycleStage model.LifecycleStage `json:"lifecycle_stage"`
	PredictedLTV   float64              `json:"predicted_ltv"`
	ChurnRisk      float64              `json:"churn_risk"`
}

type PreferenceRecommendations struct {
	UserID           uint                       `json:"user_id"`
	Recommendations  []PreferenceRecommendation `json:"recommendations"`
	CustomerInsights CustomerSnapshot           `json:"customer_insights"`
	GeneratedAt      time.Time                  `json:"generated_at"`
}

// Customers without a stored profile are described with these priors.
var newCustomerSnapshot = CustomerSnapshot{
	LifecycleStage: model.LifecycleNew,
	PredictedLTV:   100,
	ChurnRisk:      0.1,
}

func (s *personalizationService) RecommendForPreferences(ctx context.Context, userID uint, limit int, includeReasoning bool) (*PreferenceRecommendations, error) {
	if limit <= 0 {
		limit = defaultPreferenceLimit
	}
	if limit > maxPreferenceLimit {
		limit = maxPreferenceLimit
	}

	result := &PreferenceRecommendations{
		UserID:          userID,
		Recommendations: []PreferenceRecommendation{},
		GeneratedAt:     s.now().UTC(),
	}

	// looking does not create a profile
	_, err := s.store.Get(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		result.CustomerInsights = newCustomerSnapshot
		result.Recommendations, err = s.popularityRecommendations(limit, includeReasoning)
		return result, err
	}
	if err != nil {
		return nil, err
	}

	p, err := s.RefreshProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.CustomerInsights = CustomerSnapshot{
		LifecycleStage: p.LifecycleStage,
		PredictedLTV:   p.PredictedLTV,
		ChurnRisk:      p.ChurnRisk,
	}

	result.Recommendations, err = s.preferenceRecommendations(p, limit, includeReasoning)
	if err != nil {
		return nil, err
	}
	if len(result.Recommendations) == 0 {
		result.Recommendations, err = s.popularityRecommendations(limit, includeReasoning)
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("Preference recommendations built", map[string]interface{}{
		"user_id": userID,
		"count":   len(result.Recommendations),
	})
	return result, nil
}

// preferenceRecommendations fills an equal share of limit from each of the
// profile's top categories, strongest first.
func (s *personalizationService) preferenceRecommendations(p *model.CustomerProfile, limit int, includeReasoning bool) ([]PreferenceRecommendation, error) {
	categories, err := s.productRepo.FindCategories()
	if err != nil {
		return nil, apperrors.Storage("find categories", err)
	}
	bySlug := make(map[string]uint, len(categories))
	for _, c := range categories {
		bySlug[c.Slug] = c.ID
	}

	share := limit / preferenceCategories
	if share < 1 {
		share = 1
	}

	out := []PreferenceRecommendation{}
	seen := make(map[uint]struct{})
	for _, pref := range topPreferences(p.Preferences, preferenceCategories) {
		categoryID, ok := bySlug[pref.Category]
		if !ok {
			continue
		}
		products, err := s.productRepo.FindTopInCategory(categoryID, share)
		if err != nil {
			return nil, apperrors.Storage("find category products", err)
		}
		for _, product := range products {
			if _, dup := seen[product.ID]; dup {
				continue
			}
			seen[product.ID] = struct{}{}
			rec := PreferenceRecommendation{
				ProductID:           product.ID,
				Name:                product.Name,
				Price:               product.Price,
				ConfidenceScore:     math.Round(pref.Score*90) / 100,
				PersonalizationType: PersonalizationPreferenceBased,
			}
			if includeReasoning {
				rec.Reasoning = fmt.Sprintf("Based on your %s preference score of %.2f", pref.Category, pref.Score)
			}
			out = append(out, rec)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *personalizationService) popularityRecommendations(limit int, includeReasoning bool) ([]PreferenceRecommendation, error) {
	products, err := s.productRepo.FindFeatured(limit)
	if err != nil {
		return nil, apperrors.Storage("find featured products", err)
	}
	out := make([]PreferenceRecommendation, 0, len(products))
	for _, product := range products {
		rec := PreferenceRecommendation{
			ProductID:           product.ID,
			Name:                product.Name,
			Price:               product.Price,
			ConfidenceScore:     popularityConfidence,
			PersonalizationType: PersonalizationPopularityBased,
		}
		if includeReasoning {
			rec.Reasoning = "Popular product for new customers"
		}
		out = append(out, rec)
	}
	return out, nil
}
