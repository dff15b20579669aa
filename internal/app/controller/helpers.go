package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anufa/anufa-backend/internal/app/service"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/internal/middleware"
)

// parseIDParam reads a positive numeric path parameter, answering 400 itself
// when it is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid path parameter", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// parseUintQuery returns nil when the parameter is absent.
func parseUintQuery(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, apperrors.NewValidation(name, "must be a positive integer")
	}
	id := uint(v)
	return &id, nil
}

func parseIntQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidation(name, "must be an integer")
	}
	return v, nil
}

func parseBoolQuery(c *gin.Context, name string, fallback bool) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidation(name, "must be true or false")
	}
	return v, nil
}

func requireUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
	}
	return userID, ok
}

// respondError logs err at the level its kind deserves and writes the mapped
// response. resource names the primary resource of the route.
func respondError(c *gin.Context, err error, resource string, fields map[string]interface{}) {
	log := middleware.GetLoggerFromContext(c)

	// the not-found sentinel names the missing resource more precisely than the route
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		resource = "product"
	case errors.Is(err, service.ErrCategoryNotFound):
		resource = "category"
	case errors.Is(err, service.ErrCartItemNotFound):
		resource = "cart"
	case errors.Is(err, service.ErrOrderNotFound):
		resource = "order"
	case errors.Is(err, service.ErrProfileNotFound):
		resource = "profile"
	case errors.Is(err, service.ErrUserNotFound):
		resource = "user"
	}

	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["error"] = err.Error()

	switch apperrors.Kind(err) {
	case apperrors.KindStorage, apperrors.KindInternal:
		log.Error("Request failed", err, fields)
	default:
		log.Warn("Request rejected", fields)
	}
	apperrors.RespondWithServiceError(c, err, resource)
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, "", "Request body is not valid JSON for this endpoint")
		return false
	}
	return true
}
