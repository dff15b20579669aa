package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error, please retry later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// RespondWithValidationError reports a single offending field.
func RespondWithValidationError(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   ValidationInvalidInput,
		Message: message,
		Field:   field,
	})
}

// RespondWithServiceError maps a service error onto a status code by its kind.
// context names the resource for not-found codes ("order", "cart", ...).
func RespondWithServiceError(c *gin.Context, err error, context string) {
	switch Kind(err) {
	case KindValidation:
		v, _ := AsValidation(err)
		RespondWithValidationError(c, v.Field, v.Message)
	case KindNotFound:
		info := ParseError(ErrNotFound, context)
		NotFound(c, info.Code, info.Message)
	case KindEmptyCart:
		BadRequest(c, CartEmpty, "Cart is empty")
	case KindConflict:
		if isUniqueViolation(err) {
			info := parseDuplicateKeyError(err.Error())
			Conflict(c, info.Code, info.Message)
			return
		}
		var ce *ConflictError
		if stderrors.As(err, &ce) {
			Conflict(c, ce.Code, ce.Message)
			return
		}
		Conflict(c, ResourceConflict, "Request conflicts with current state")
	default:
		info := ParseError(err, context)
		RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
	}
}
