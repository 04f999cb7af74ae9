package utils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the struct's validate tags.
func ValidateStruct(s any) error {
	return validate.Struct(s)
}

// GetValidationErrors flattens validator errors into field -> message pairs
// for the API error envelope.
func GetValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["error"] = err.Error()
		return out
	}

	for _, fieldErr := range validationErrs {
		switch fieldErr.Tag() {
		case "required":
			out[fieldErr.Field()] = "This field is required"
		case "oneof":
			out[fieldErr.Field()] = fmt.Sprintf("Must be one of: %s", fieldErr.Param())
		case "gte":
			out[fieldErr.Field()] = fmt.Sprintf("Must be at least %s", fieldErr.Param())
		case "lt":
			out[fieldErr.Field()] = fmt.Sprintf("Must be less than %s", fieldErr.Param())
		case "max":
			out[fieldErr.Field()] = fmt.Sprintf("Must be at most %s", fieldErr.Param())
		default:
			out[fieldErr.Field()] = fmt.Sprintf("Failed validation: %s", fieldErr.Tag())
		}
	}
	return out
}
