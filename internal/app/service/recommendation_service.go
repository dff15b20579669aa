package service

import (
	"context"
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/app/repository"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/internal/metrics"
	"github.com/anufa/anufa-backend/pkg/logger"
)

const (
	defaultRecommendationLimit = 10
	maxRecommendationLimit     = 50
)

// RecommendationRequest zero values mean "not given".
type RecommendationRequest struct {
	UserID     uint
	ProductID  uint
	CategoryID uint
	Limit      int
}

type RecommendationResult struct {
	UserID          uint            `json:"user_id,omitempty"`
	Recommendations []model.Product `json:"recommendations"`
	Strategy        string          `json:"strategy"`
	ConfidenceScore float64         `json:"confidence_score"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

type RecommendationService interface {
	Recommend(ctx context.Context, req RecommendationRequest) (*RecommendationResult, error)
}

type recommendationService struct {
	productRepo repository.ProductRepository
}

func NewRecommendationService(productRepo repository.ProductRepository) RecommendationService {
	return &recommendationService{productRepo: productRepo}
}

func (s *recommendationService) Recommend(ctx context.Context, req RecommendationRequest) (*RecommendationResult, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultRecommendationLimit
	}
	if limit < 1 || limit > maxRecommendationLimit {
		return nil, apperrors.NewValidation("limit", "must be between 1 and 50")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked, err := RankCandidates(limit, s.stages(req)...)
	if err != nil {
		logger.Error("Failed to build recommendations", err, map[string]interface{}{
			"user_id":     req.UserID,
			"product_id":  req.ProductID,
			"category_id": req.CategoryID,
		})
		return nil, apperrors.Storage("recommend", err)
	}

	metrics.RecommendationsServed.WithLabelValues(ranked.Strategy).Inc()
	logger.Debug("Recommendations generated", map[string]interface{}{
		"user_id":  req.UserID,
		"strategy": ranked.Strategy,
		"count":    len(ranked.Products),
	})

	return &RecommendationResult{
		UserID:          req.UserID,
		Recommendations: ranked.Products,
		Strategy:        ranked.Strategy,
		ConfidenceScore: ranked.Confidence,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// stages lists the applicable strategies in priority order.
func (s *recommendationService) stages(req RecommendationRequest) []CandidateStage {
	var stages []CandidateStage
	if req.UserID != 0 {
		stages = append(stages, CandidateStage{
			Strategy:   StrategyCollaborative,
			Confidence: 0.90,
			Fetch: func(need int) ([]model.Product, error) {
				return s.productRepo.FindCoPurchased(req.UserID, need)
			},
		})
	}
	if req.ProductID != 0 {
		stages = append(stages, CandidateStage{
			Strategy:   StrategyContent,
			Confidence: 0.80,
			Fetch: func(need int) ([]model.Product, error) {
				return s.productRepo.FindSimilar(req.ProductID, need)
			},
		})
	}
	if req.CategoryID != 0 {
		stages = append(stages, CandidateStage{
			Strategy:   StrategyCategory,
			Confidence: 0.75,
			Fetch: func(need int) ([]model.Product, error) {
				return s.productRepo.FindTopInCategory(req.CategoryID, need)
			},
		})
	}
	stages = append(stages, CandidateStage{
		Strategy:   StrategyPopular,
		Confidence: 0.70,
		Fetch:      s.productRepo.FindPopular,
	})
	return stages
}
