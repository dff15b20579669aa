package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anufa/anufa-backend/internal/app/service"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/internal/middleware"
)

type RecommendationController struct {
	recommendations service.RecommendationService
}

func NewRecommendationController(recommendations service.RecommendationService) *RecommendationController {
	return &RecommendationController{
		recommendations: recommendations,
	}
}

// GetRecommendations ranks products for the optional caller, product and category
// GET /api/v1/recommendations?product_id=&category_id=&limit=
func (ctrl *RecommendationController) GetRecommendations(c *gin.Context) {
	var req service.RecommendationRequest

	// zero for guests: no collaborative stage
	req.UserID, _ = middleware.GetUserID(c)

	productID, err := parseUintQuery(c, "product_id")
	if err != nil {
		apperrors.RespondWithServiceError(c, err, "product")
		return
	}
	if productID != nil {
		req.ProductID = *productID
	}
	categoryID, err := parseUintQuery(c, "category_id")
	if err != nil {
		apperrors.RespondWithServiceError(c, err, "category")
		return
	}
	if categoryID != nil {
		req.CategoryID = *categoryID
	}
	if req.Limit, err = parseIntQuery(c, "limit", 0); err != nil {
		apperrors.RespondWithServiceError(c, err, "product")
		return
	}

	result, err := ctrl.recommendations.Recommend(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "product", nil)
		return
	}

	c.JSON(http.StatusOK, result)
}
