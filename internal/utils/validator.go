// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/clubhub/internal/i18n"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	validate.RegisterValidation("notblank", validateNotBlank)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// Field names in errors follow the JSON tags clients send.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimFunc(fl.Field().String(), unicode.IsSpace) != ""
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error, lang string) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e, lang),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError, lang string) string {
	switch e.Tag() {
	case "required", "notblank":
		return i18n.T(lang, i18n.KeyValidationRequired, e.Field())
	case "min":
		return i18n.T(lang, i18n.KeyValidationTooShort, e.Field(), e.Param())
	case "max":
		return i18n.T(lang, i18n.KeyValidationTooLong, e.Field(), e.Param())
	default:
		return i18n.T(lang, i18n.KeyValidationInvalid, e.Field())
	}
}
