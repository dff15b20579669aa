package service

import (
	"sort"

	"github.com/anufa/anufa-backend/internal/app/model"
)

type PreferenceScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

type Offer struct {
	Type               string  `json:"type"`
	Description        string  `json:"description"`
	DiscountPercentage int     `json:"discount_percentage"`
	Category           string  `json:"category,omitempty"`
	FreeShipping       bool    `json:"free_shipping,omitempty"`
	MinimumPurchase    float64 `json:"minimum_purchase,omitempty"`
}

type ProfileInsights struct {
	RiskLevel          string            `json:"risk_level"`
	ValueSegment       string            `json:"value_segment"`
	TopPreferences     []PreferenceScore `json:"top_preferences"`
	NextBestAction     string            `json:"next_best_action"`
	PersonalizedOffers []Offer           `json:"personalized_offers"`
	EngagementStrategy string            `json:"engagement_strategy"`
}

const maxOffers = 2

// BuildInsights summarizes a profile. analysis may be nil; then the profile's
// running sentiment stands in for the message sentiment.
func BuildInsights(p *model.CustomerProfile, analysis *TextAnalysis) ProfileInsights {
	sentiment := Sentiment{
		Positive: p.SentimentScores.Positive,
		Negative: p.SentimentScores.Negative,
		Neutral:  p.SentimentScores.Neutral,
	}
	var purchaseIntent float64
	var dominantEmotion string
	if analysis != nil {
		sentiment = analysis.Sentiment
		purchaseIntent = analysis.Intent["purchase_intent"]
		dominantEmotion = analysis.DominantEmotion
	}

	top := topPreferences(p.Preferences, 3)
	return ProfileInsights{
		RiskLevel:          riskLevel(p.ChurnRisk),
		ValueSegment:       valueSegment(p.PredictedLTV),
		TopPreferences:     top,
		NextBestAction:     nextBestAction(p, sentiment, purchaseIntent),
		PersonalizedOffers: personalizedOffers(p, top),
		EngagementStrategy: engagementStrategy(p, dominantEmotion),
	}
}

func riskLevel(churn float64) string {
	switch {
	case churn > 0.7:
		return "high"
	case churn > 0.4:
		return "medium"
	}
	return "low"
}

func valueSegment(ltv float64) string {
	switch {
	case ltv > 500:
		return "high"
	case ltv > 200:
		return "medium"
	}
	return "standard"
}

// topPreferences orders by score, ties by category name.
func topPreferences(prefs map[string]float64, n int) []PreferenceScore {
	out := make([]PreferenceScore, 0, len(prefs))
	for k, v := range prefs {
		out = append(out, PreferenceScore{Category: k, Score: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func nextBestAction(p *model.CustomerProfile, s Sentiment, purchaseIntent float64) string {
	switch {
	case p.ChurnRisk > 0.7:
		return "retention_campaign"
	case s.Negative > 0.6:
		return "customer_service_escalation"
	case purchaseIntent > 0.5:
		return "personalized_product_showcase"
	case p.LifecycleStage == model.LifecycleNew:
		return "onboarding_experience"
	}
	return "engagement_nurturing"
}

func personalizedOffers(p *model.CustomerProfile, top []PreferenceScore) []Offer {
	offers := []Offer{}
	if p.PredictedLTV > 500 {
		vip := Offer{
			Type:               "vip_discount",
			Description:        "Exclusive VIP 20% discount on premium items",
			DiscountPercentage: 20,
		}
		if len(top) > 0 {
			vip.Category = top[0].Category
		}
		offers = append(offers, vip)
	}
	if p.ChurnRisk > 0.5 {
		offers = append(offers, Offer{
			Type:               "retention_offer",
			Description:        "Special comeback offer just for you",
			DiscountPercentage: 15,
			FreeShipping:       true,
		})
	}
	if p.LifecycleStage == model.LifecycleNew {
		offers = append(offers, Offer{
			Type:               "welcome_bonus",
			Description:        "Welcome! Get 10% off your first purchase",
			DiscountPercentage: 10,
			MinimumPurchase:    50,
		})
	}
	if len(offers) > maxOffers {
		offers = offers[:maxOffers]
	}
	return offers
}

func engagementStrategy(p *model.CustomerProfile, dominantEmotion string) string {
	switch {
	case dominantEmotion == "anger":
		return "immediate_support_intervention"
	case dominantEmotion == "joy":
		return "upsell_cross_sell_opportunity"
	case p.ChurnRisk > 0.6:
		return "proactive_retention_outreach"
	case p.LifecycleStage == model.LifecycleChampion:
		return "advocacy_program_invitation"
	}
	return "standard_nurturing_sequence"
}
