package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/app/repository"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/internal/metrics"
	"github.com/anufa/anufa-backend/internal/profile"
	"github.com/anufa/anufa-backend/pkg/logger"
	"gorm.io/gorm"
)

type InteractionInput struct {
	Type      model.InteractionType `json:"type" validate:"required,oneof=view click add_to_cart purchase review search support"`
	Category  string                `json:"category" validate:"max=50"`
	ProductID uint                  `json:"product_id"`
	Channel   string                `json:"channel" validate:"max=30"`
	Message   string                `json:"message" validate:"max=2000"`
	Outcome   string                `json:"outcome" validate:"omitempty,oneof=positive negative neutral"`
}

type ProfileView struct {
	Profile  *model.CustomerProfile `json:"profile"`
	Insights ProfileInsights        `json:"insights"`
}

type MessageAnalysis struct {
	Analysis *TextAnalysis        `json:"analysis"`
	Insights ProfileInsights      `json:"insights"`
	Response PersonalizedResponse `json:"personalized_response"`
}

type ConversationContext struct {
	LifecycleStage   model.LifecycleStage `json:"lifecycle_stage"`
	InteractionCount int                  `json:"interaction_count"`
}

type ConversationReply struct {
	UserMessage          string              `json:"user_message"`
	AIResponse           string              `json:"ai_response"`
	EmpatheticResponse   string              `json:"empathetic_response"`
	PersonalizationScore float64             `json:"personalization_score"`
	EmotionalAnalysis    map[string]float64  `json:"emotional_analysis"`
	CustomerContext      ConversationContext `json:"customer_context"`
	GeneratedAt          time.Time           `json:"response_generated_at"`
}

type PersonalizationService interface {
	GetOrCreateProfile(ctx context.Context, userID uint) (*model.CustomerProfile, error)
	RecordInteraction(ctx context.Context, userID uint, input InteractionInput) (*model.CustomerProfile, error)
	// RefreshProfile brings churn risk up to the current clock without
	// recording an event. LastUpdated keeps marking the last interaction.
	RefreshProfile(ctx context.Context, userID uint) (*model.CustomerProfile, error)
	GetProfileView(ctx context.Context, userID uint) (*ProfileView, error)
	AnalyzeMessage(ctx context.Context, userID uint, text string) (*MessageAnalysis, error)
	// Converse answers a customer message. Nothing is recorded.
	Converse(ctx context.Context, userID uint, message string) (*ConversationReply, error)
	// RecommendForPreferences picks products from the profile's strongest
	// categories, or featured products when the customer has no profile yet.
	RecommendForPreferences(ctx context.Context, userID uint, limit int, includeReasoning bool) (*PreferenceRecommendations, error)
	// CountProfiles loads the number of stored profiles into the
	// customer_profiles gauge. Called once at startup; creations keep it current.
	CountProfiles(ctx context.Context) (int, error)
}

type personalizationService struct {
	store       profile.Store
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	analyzer    *TextAnalyzer

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// NewPersonalizationService uses rng for personality priors; pass a seeded
// source for reproducible profiles.
func NewPersonalizationService(
	store profile.Store,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	analyzer *TextAnalyzer,
	rng *rand.Rand,
) PersonalizationService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if analyzer == nil {
		analyzer = NewTextAnalyzer()
	}
	return &personalizationService{
		store:       store,
		userRepo:    userRepo,
		productRepo: productRepo,
		analyzer:    analyzer,
		rng:         rng,
		now:         time.Now,
	}
}

func (s *personalizationService) GetOrCreateProfile(ctx context.Context, userID uint) (*model.CustomerProfile, error) {
	p, err := s.store.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, profile.ErrNotFound) {
		logger.Error("Failed to load customer profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperrors.Storage("find user", err)
	}

	now := s.now()
	created := false
	p, err = s.store.Upsert(ctx, userID, func(p *model.CustomerProfile, exists bool) error {
		if exists {
			return nil
		}
		s.initializeProfile(p, user, now)
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		metrics.CustomerProfiles.Inc()
		logger.Info("Customer profile created", map[string]interface{}{
			"user_id":         userID,
			"lifecycle_stage": p.LifecycleStage,
		})
	}
	return p, nil
}

func (s *personalizationService) initializeProfile(p *model.CustomerProfile, user *model.User, now time.Time) {
	p.Demographics = model.Demographics{
		Age:      user.Age,
		Gender:   strings.ToLower(user.Gender),
		Location: user.Location,
	}
	p.Preferences = initialPreferences(p.Demographics)
	p.BehaviorPatterns = map[string]int{}
	p.InteractionHistory = []model.Interaction{}

	s.rngMu.Lock()
	p.PersonalityTraits = initialTraits(p.Demographics, s.rng)
	s.rngMu.Unlock()

	p.CreatedAt = now
	p.LastUpdated = now
	evaluateMetrics(p, now)
}

func (s *personalizationService) RecordInteraction(ctx context.Context, userID uint, input InteractionInput) (*model.CustomerProfile, error) {
	input.Category = strings.TrimSpace(input.Category)
	input.Message = strings.TrimSpace(input.Message)
	if err := validateStruct(input); err != nil {
		logger.Warn("Interaction rejected", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	category, err := s.resolveCategory(input)
	if err != nil {
		return nil, err
	}

	if _, err := s.GetOrCreateProfile(ctx, userID); err != nil {
		return nil, err
	}

	var sentiment *Sentiment
	if input.Message != "" {
		m := s.analyzer.Sentiment(strings.ToLower(input.Message))
		sentiment = &m
	}

	now := s.now()
	event := model.Interaction{
		Type:      input.Type,
		Category:  category,
		ProductID: input.ProductID,
		Channel:   input.Channel,
		Message:   input.Message,
		Outcome:   input.Outcome,
		Timestamp: now.UTC(),
	}

	p, err := s.store.Upsert(ctx, userID, func(p *model.CustomerProfile, exists bool) error {
		if !exists {
			return ErrProfileNotFound
		}
		p.InteractionHistory = append(p.InteractionHistory, event)
		p.BehaviorPatterns[string(event.Type)]++
		nudgePreference(p, category)
		if sentiment != nil {
			foldSentiment(&p.SentimentScores, *sentiment)
		}
		evaluateMetrics(p, now)
		return nil
	})
	if err != nil {
		logger.Error("Failed to record interaction", err, map[string]interface{}{
			"user_id": userID,
			"type":    input.Type,
		})
		return nil, err
	}

	metrics.ProfileInteractions.WithLabelValues(string(input.Type)).Inc()
	logger.Info("Interaction recorded", map[string]interface{}{
		"user_id":         userID,
		"type":            input.Type,
		"category":        category,
		"lifecycle_stage": p.LifecycleStage,
		"churn_risk":      p.ChurnRisk,
	})
	return p, nil
}

// resolveCategory falls back to the product's category slug.
func (s *personalizationService) resolveCategory(input InteractionInput) (string, error) {
	if input.Category != "" || input.ProductID == 0 {
		return strings.ToLower(input.Category), nil
	}
	product, err := s.productRepo.FindByID(input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProductNotFound
		}
		return "", apperrors.Storage("find product", err)
	}
	if product.Category == nil {
		return "", nil
	}
	return product.Category.Slug, nil
}

func (s *personalizationService) RefreshProfile(ctx context.Context, userID uint) (*model.CustomerProfile, error) {
	now := s.now()
	return s.store.Upsert(ctx, userID, func(p *model.CustomerProfile, exists bool) error {
		if !exists {
			return ErrProfileNotFound
		}
		// lifecycle and LTV only move with interactions
		p.ChurnRisk = churnRisk(p, now)
		return nil
	})
}

func (s *personalizationService) GetProfileView(ctx context.Context, userID uint) (*ProfileView, error) {
	if _, err := s.GetOrCreateProfile(ctx, userID); err != nil {
		return nil, err
	}
	p, err := s.RefreshProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{Profile: p, Insights: BuildInsights(p, nil)}, nil
}

func (s *personalizationService) CountProfiles(ctx context.Context) (int, error) {
	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	metrics.CustomerProfiles.Set(float64(len(ids)))
	return len(ids), nil
}

func (s *personalizationService) AnalyzeMessage(ctx context.Context, userID uint, text string) (*MessageAnalysis, error) {
	p, err := s.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	analysis, err := s.analyzer.Analyze(text, p.InteractionHistory)
	if err != nil {
		return nil, err
	}
	return &MessageAnalysis{
		Analysis: analysis,
		Insights: BuildInsights(p, analysis),
		Response: respond(p, analysis, s.pick),
	}, nil
}

func (s *personalizationService) Converse(ctx context.Context, userID uint, message string) (*ConversationReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidation("message", "is required")
	}
	if len(message) > maxAnalyzedTextLength {
		return nil, apperrors.NewValidation("message", "must be at most 2000 characters")
	}

	p, err := s.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	analysis, err := s.analyzer.Analyze(message, p.InteractionHistory)
	if err != nil {
		return nil, err
	}

	reply := respond(p, analysis, s.pick)
	logger.Debug("Conversation reply generated", map[string]interface{}{
		"user_id":          userID,
		"primary_intent":   analysis.PrimaryIntent,
		"dominant_emotion": analysis.DominantEmotion,
	})
	return &ConversationReply{
		UserMessage:          message,
		AIResponse:           reply.Conversational,
		EmpatheticResponse:   reply.Empathetic,
		PersonalizationScore: reply.PersonalizationScore,
		EmotionalAnalysis:    analysis.Emotions,
		CustomerContext: ConversationContext{
			LifecycleStage:   p.LifecycleStage,
			InteractionCount: len(p.InteractionHistory),
		},
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *personalizationService) pick(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}
