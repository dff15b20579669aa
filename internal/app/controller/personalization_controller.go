package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anufa/anufa-backend/internal/app/service"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/internal/middleware"
)

type PersonalizationController struct {
	personalization service.PersonalizationService
	pricing         service.PricingService
}

func NewPersonalizationController(personalization service.PersonalizationService, pricing service.PricingService) *PersonalizationController {
	return &PersonalizationController{
		personalization: personalization,
		pricing:         pricing,
	}
}

type AnalyzeRequest struct {
	Text string `json:"text"`
}

type ConversationRequest struct {
	Message string `json:"message"`
}

// RecordInteraction folds one event into the caller's profile
// POST /api/v1/personalization/interactions
func (ctrl *PersonalizationController) RecordInteraction(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req service.InteractionInput
	if !bindJSON(c, &req) {
		return
	}

	profile, err := ctrl.personalization.RecordInteraction(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "profile", map[string]interface{}{
			"user_id": userID,
			"type":    req.Type,
		})
		return
	}

	middleware.GetLoggerFromContext(c).Debug("Interaction recorded", map[string]interface{}{
		"user_id":    userID,
		"type":       req.Type,
		"churn_risk": profile.ChurnRisk,
	})

	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
	})
}

// GetProfile returns the profile with derived insights, creating it on first use
// GET /api/v1/personalization/profile
func (ctrl *PersonalizationController) GetProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	view, err := ctrl.personalization.GetProfileView(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "profile", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetPricing quotes a personalized price for one product
// GET /api/v1/personalization/pricing/:product_id
func (ctrl *PersonalizationController) GetPricing(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	quote, err := ctrl.pricing.Quote(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err, "product", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Analyze runs text analysis against the caller's profile without recording it
// POST /api/v1/personalization/analyze
func (ctrl *PersonalizationController) Analyze(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ctrl.personalization.AnalyzeMessage(c.Request.Context(), userID, req.Text)
	if err != nil {
		respondError(c, err, "profile", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Converse replies to a customer message in the assistant's voice
// POST /api/v1/personalization/conversation
func (ctrl *PersonalizationController) Converse(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req ConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := ctrl.personalization.Converse(c.Request.Context(), userID, req.Message)
	if err != nil {
		respondError(c, err, "profile", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, reply)
}

// GET /api/v1/personalization/recommendations?limit=&include_reasoning=
func (ctrl *PersonalizationController) GetRecommendations(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		apperrors.RespondWithServiceError(c, err, "product")
		return
	}
	includeReasoning, err := parseBoolQuery(c, "include_reasoning", true)
	if err != nil {
		apperrors.RespondWithServiceError(c, err, "product")
		return
	}

	result, err := ctrl.personalization.RecommendForPreferences(c.Request.Context(), userID, limit, includeReasoning)
	if err != nil {
		respondError(c, err, "product", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
