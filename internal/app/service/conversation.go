package service

import (
	"fmt"
	"strings"

	"github.com/anufa/anufa-backend/internal/app/model"
)

// PersonalizedResponse is the assistant's reply to one customer message.
// PersonalizationScore is the customer's agreeableness trait.
type PersonalizedResponse struct {
	Conversational       string  `json:"conversational"`
	Empathetic           string  `json:"empathetic"`
	PersonalizationScore float64 `json:"personalization_score"`
}

var (
	welcomeReplies = []string{
		"Welcome to ANUFA! I'm your AI shopping assistant. How can I help you find the perfect product today?",
		"Hello! I'm here to provide you with personalized shopping recommendations. What are you looking for?",
		"Hi there! I'm your personal AI guide. Let me help you discover products tailored just for you!",
	}

	supportReplies = []string{
		"I'm here to help! Let me assist you with that.",
		"No worries, I can guide you through this process.",
		"I understand your concern. Let me provide you with the best solution.",
	}

	empatheticReplies = map[string][]string{
		"joy": {
			"I'm so glad to hear you're happy with your experience! Let me help you find even more amazing products.",
			"Your excitement is contagious! I'd love to help you discover more items you'll love.",
		},
		"anger": {
			"I understand your frustration, and I'm here to help make this right. Let's work together to find a solution.",
			"I hear your concern and I want to address it immediately. How can I best assist you today?",
		},
		"sadness": {
			"I'm sorry to hear you're feeling this way. I'm here to support you and help improve your experience.",
			"I understand this might be disappointing. Let me see how I can help turn this around for you.",
		},
		"fear": {
			"I understand your concerns, and it's completely normal to feel this way. Let me provide you with all the information you need.",
			"I'm here to help address your worries and ensure you feel confident about your decisions.",
		},
	}
)

const plainPurchaseReply = "I understand you're looking to make a purchase. Let me find the best options that match your needs and budget."

// respond builds both replies for an analyzed message. pick returns an index
// in [0,n) and chooses between equivalent phrasings.
func respond(p *model.CustomerProfile, a *TextAnalysis, pick func(n int) int) PersonalizedResponse {
	return PersonalizedResponse{
		Conversational:       conversationalReply(p, a, pick),
		Empathetic:           empatheticReply(a.DominantEmotion, pick),
		PersonalizationScore: p.PersonalityTraits.Agreeableness,
	}
}

func conversationalReply(p *model.CustomerProfile, a *TextAnalysis, pick func(n int) int) string {
	switch a.PrimaryIntent {
	case "purchase_intent":
		if a.Sentiment.Positive > 0.5 {
			return fmt.Sprintf("Excellent choice! Based on your preferences for %s, I can offer you an exclusive deal.", preferenceList(p))
		}
		return plainPurchaseReply
	case "support_intent":
		return supportReplies[pick(len(supportReplies))]
	case "research_intent":
		return fmt.Sprintf("I'd be happy to help you compare options! Given your interest in %s, here are the key factors to consider:", preferenceList(p))
	}
	return welcomeReplies[pick(len(welcomeReplies))]
}

// empatheticReply falls back to the joy phrasings for emotions without their
// own, and for text that carries none.
func empatheticReply(emotion string, pick func(n int) int) string {
	replies, ok := empatheticReplies[emotion]
	if !ok {
		replies = empatheticReplies["joy"]
	}
	return replies[pick(len(replies))]
}

func preferenceList(p *model.CustomerProfile) string {
	top := topPreferences(p.Preferences, 3)
	if len(top) == 0 {
		return "our catalog"
	}
	names := make([]string, len(top))
	for i, ps := range top {
		names[i] = ps.Category
	}
	return strings.Join(names, ", ")
}
