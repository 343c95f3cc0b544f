// Package validation wraps go-playground/validator and converts its errors
// into domain validation errors keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/pageza/recipe-api/backend/internal/errors"
	"github.com/pageza/recipe-api/backend/internal/models"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for request DTOs.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	// price: between 0.00 and the column maximum
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		p := models.Price(fl.Field().Int())
		return p >= 0 && p <= models.MaxPrice
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain validation error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(apperrors.FieldErrors, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}
	return apperrors.ValidationWithDetails("validation failed", fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "notblank":
		return "this field may not be blank"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must not exceed " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "url":
		return "must be a valid URL"
	case "price":
		return fmt.Sprintf("must be between 0.00 and %s", models.MaxPrice)
	default:
		return "is invalid"
	}
}

// RequireFields reports every named field whose value is nil as missing.
// It is used for full updates, where fields optional on PATCH become mandatory.
func RequireFields(fields map[string]any) error {
	missing := apperrors.FieldErrors{}
	for name, value := range fields {
		if isNil(value) {
			missing[name] = "this field is required"
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return apperrors.ValidationWithDetails("validation failed", missing)
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Merge combines validation errors, keeping the first message per field.
// Non-validation errors are returned unchanged.
func Merge(errs ...error) error {
	merged := apperrors.FieldErrors{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var domainErr *apperrors.Error
		if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeValidation {
			return err
		}
		for field, msg := range domainErr.Details {
			if _, ok := merged[field]; !ok {
				merged[field] = msg
			}
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return apperrors.ValidationWithDetails("validation failed", merged)
}
