// internal/utils/validator.go
package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("longitude", validateLongitude)
	validate.RegisterValidation("latitude", validateLatitude)
	validate.RegisterValidation("decimal_gte0", validateNonNegativeDecimal)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateLongitude(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180 && lon <= 180
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

// validateNonNegativeDecimal accepts decimal strings such as "12.50".
func validateNonNegativeDecimal(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	d, err := decimal.NewFromString(value)
	return err == nil && !d.IsNegative()
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "longitude":
		return "Longitude must be between -180 and 180"
	case "latitude":
		return "Latitude must be between -90 and 90"
	case "decimal_gte0":
		return e.Field() + " must be a non-negative decimal amount"
	default:
		return e.Field() + " is invalid"
	}
}
