package model

import (
	"maps"
	"slices"
	"time"
)

type LifecycleStage string

const (
	LifecycleNew      LifecycleStage = "new"
	LifecycleEngaged  LifecycleStage = "engaged"
	LifecycleLoyal    LifecycleStage = "loyal"
	LifecycleChampion LifecycleStage = "champion"
)

type InteractionType string

const (
	InteractionView      InteractionType = "view"
	InteractionClick     InteractionType = "click"
	InteractionAddToCart InteractionType = "add_to_cart"
	InteractionPurchase  InteractionType = "purchase"
	InteractionReview    InteractionType = "review"
	InteractionSearch    InteractionType = "search"
	InteractionSupport   InteractionType = "support"
)

type Demographics struct {
	Age      int    `json:"age"`
	Gender   string `json:"gender,omitempty"`
	Location string `json:"location,omitempty"`
}

// PersonalityTraits are Big Five scores, each in [0,1].
type PersonalityTraits struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// SentimentScores is the running mean of analyzed customer messages.
type SentimentScores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Samples  int     `json:"samples"`
}

type Interaction struct {
	Type      InteractionType `json:"type"`
	Category  string          `json:"category,omitempty"`
	ProductID uint            `json:"product_id,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Message   string          `json:"message,omitempty"`
	Outcome   string          `json:"outcome,omitempty"` // positive, negative or neutral
	Timestamp time.Time       `json:"timestamp"`
}

// CustomerProfile is the personalization state kept per user outside the
// relational store. InteractionHistory is append-only.
type CustomerProfile struct {
	UserID             uint               `json:"user_id"`
	Demographics       Demographics       `json:"demographics"`
	Preferences        map[string]float64 `json:"preferences"`
	BehaviorPatterns   map[string]int     `json:"behavior_patterns"`
	PersonalityTraits  PersonalityTraits  `json:"personality_traits"`
	InteractionHistory []Interaction      `json:"interaction_history"`
	SentimentScores    SentimentScores    `json:"sentiment_scores"`
	LifecycleStage     LifecycleStage     `json:"lifecycle_stage"`
	PredictedLTV       float64            `json:"predicted_ltv"`
	ChurnRisk          float64            `json:"churn_risk"`
	CreatedAt          time.Time          `json:"created_at"`
	LastUpdated        time.Time          `json:"last_updated"`
}

func (p *CustomerProfile) InteractionCount() int {
	return len(p.InteractionHistory)
}

// Clone returns a deep copy.
func (p *CustomerProfile) Clone() *CustomerProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Preferences = maps.Clone(p.Preferences)
	cp.BehaviorPatterns = maps.Clone(p.BehaviorPatterns)
	cp.InteractionHistory = slices.Clone(p.InteractionHistory)
	return &cp
}
