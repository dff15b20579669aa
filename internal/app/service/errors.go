package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/go-playground/validator/v10"
)

var (
	ErrProductNotFound  = fmt.Errorf("product %w", apperrors.ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", apperrors.ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", apperrors.ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", apperrors.ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", apperrors.ErrNotFound)
	ErrProfileNotFound  = fmt.Errorf("customer profile %w", apperrors.ErrNotFound)
	ErrEmptyCart        = apperrors.ErrEmptyCart

	ErrSKUTaken                = apperrors.NewConflict(apperrors.ProductSKUExists, "a product with this SKU already exists")
	ErrInvalidStatusTransition = apperrors.NewConflict(apperrors.OrderInvalidTransition, "order status transition not allowed")
	ErrInvalidCredentials      = errors.New("invalid credentials")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct returns the first failing field as a ValidationError.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewValidation(fe.Field(), describeRule(fe))
	}
	return apperrors.NewValidation("", err.Error())
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	}
	return "is invalid"
}
