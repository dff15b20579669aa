package service

import "github.com/anufa/anufa-backend/internal/app/model"

const (
	StrategyCollaborative = "collaborative"
	StrategyContent       = "content_based"
	StrategyCategory      = "category_based"
	StrategyPopular       = "popular"
	StrategyHybrid        = "hybrid"
	StrategyNone          = "none"

	hybridConfidence = 0.85
)

// CandidateStage produces up to need candidates for one strategy.
type CandidateStage struct {
	Strategy   string
	Confidence float64
	Fetch      func(need int) ([]model.Product, error)
}

type RankedCandidates struct {
	Products   []model.Product
	Strategy   string
	Confidence float64
}

// RankCandidates asks each stage, in the given order, for the part of the
// budget still open and stops once it is filled. Only the first occurrence of
// a product is kept and the result never exceeds limit. The label names the
// one stage that contributed, or hybrid when several did.
func RankCandidates(limit int, stages ...CandidateStage) (*RankedCandidates, error) {
	result := &RankedCandidates{Products: make([]model.Product, 0, max(limit, 0))}
	seen := make(map[uint]struct{})
	var contributors []int

	for i, stage := range stages {
		need := limit - len(result.Products)
		if need <= 0 {
			break
		}
		products, err := stage.Fetch(need)
		if err != nil {
			return nil, err
		}

		added := 0
		for _, p := range products {
			if len(result.Products) >= limit {
				break
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			result.Products = append(result.Products, p)
			added++
		}
		if added > 0 {
			contributors = append(contributors, i)
		}
	}

	switch len(contributors) {
	case 0:
		result.Strategy = StrategyNone
	case 1:
		result.Strategy = stages[contributors[0]].Strategy
		result.Confidence = stages[contributors[0]].Confidence
	default:
		result.Strategy = StrategyHybrid
		result.Confidence = hybridConfidence
	}
	return result, nil
}
