package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a user-facing code and message
type ErrorInfo struct {
	Code    string
	Message string
}

// FromDB classifies an error returned by gorm into the error taxonomy.
func FromDB(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return Storage(op, err)
}

func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := strings.ToLower(err.Error())
	// postgres 23505 / sqlite
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "sqlstate 23505")
}

// ParseError turns an error into a code and a message safe to show to users.
// Database details are never echoed back.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
	}

	if stderrors.Is(err, gorm.ErrRecordNotFound) || stderrors.Is(err, ErrNotFound) {
		return ErrorInfo{Code: notFoundCode(context), Message: notFoundMessage(context)}
	}

	if isUniqueViolation(err) {
		return parseDuplicateKeyError(err.Error())
	}

	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "foreign key constraint") {
		return ErrorInfo{Code: ResourceNotFound, Message: "Referenced resource does not exist"}
	}
	if strings.Contains(errLower, "violates not-null constraint") || strings.Contains(errLower, "not null constraint failed") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}
	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{Code: InternalDatabaseError, Message: "Storage is temporarily unavailable, please retry later"}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email is already registered"}
	case strings.Contains(errLower, "username"):
		return ErrorInfo{Code: AuthUsernameExists, Message: "Username is already taken"}
	case strings.Contains(errLower, "sku"):
		return ErrorInfo{Code: ProductSKUExists, Message: "A product with this SKU already exists"}
	case strings.Contains(errLower, "slug") || strings.Contains(errLower, "categories"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Category already exists"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "Resource already exists"}
}

func notFoundCode(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "cart"):
		return CartItemNotFound
	case strings.Contains(c, "order"):
		return OrderNotFound
	case strings.Contains(c, "product"):
		return ProductNotFound
	case strings.Contains(c, "category"):
		return CategoryNotFound
	case strings.Contains(c, "profile"):
		return ProfileNotFound
	}
	return ResourceNotFound
}

func notFoundMessage(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "cart"):
		return "Cart item not found"
	case strings.Contains(c, "order"):
		return "Order not found"
	case strings.Contains(c, "product"):
		return "Product not found"
	case strings.Contains(c, "category"):
		return "Category not found"
	case strings.Contains(c, "profile"):
		return "Customer profile not found"
	case strings.Contains(c, "user"):
		return "User not found"
	}
	return "Requested resource not found"
}

func defaultMessage(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "create"):
		return "Failed to create resource, please retry later"
	case strings.Contains(c, "update"):
		return "Failed to update resource, please retry later"
	case strings.Contains(c, "delete"):
		return "Failed to delete resource, please retry later"
	}
	return "Internal server error, please retry later"
}
