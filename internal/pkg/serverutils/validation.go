package serverutils

import (
	"errors"
	"strings"

	"cert-evaluator-be/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRequest runs struct-tag validation and reports the first failing
// field as an *apperr.ValidationError.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return apperr.Validation("", "%s", err.Error())
	}

	fe := fieldErrors[0]
	field := toSnakeCase(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperr.Validation(field, "is required")
	case "oneof":
		return apperr.Validation(field, "must be one of [%s]", fe.Param())
	case "min", "gte":
		return apperr.Validation(field, "must be at least %s", fe.Param())
	case "max", "lte":
		return apperr.Validation(field, "must be at most %s", fe.Param())
	case "uuid", "uuid4":
		return apperr.Validation(field, "must be a valid UUID")
	default:
		return apperr.Validation(field, "failed %s validation", fe.Tag())
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
