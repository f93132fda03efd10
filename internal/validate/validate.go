// Package validate wraps go-playground/validator for API payloads.
package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report field names as they appear in JSON, not as Go identifiers.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return v
}

// Struct runs struct-level validation using validator tags.
func Struct(s any) error {
	return validate.Struct(s)
}

// Errors converts validator.ValidationErrors into a field → message map
// suitable for a JSON error response.
func Errors(err error) map[string]string {
	fields := make(map[string]string)
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return fields
	}
	for _, e := range ve {
		fields[e.Field()] = fieldMessage(e)
	}
	return fields
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "required_if":
		return "this field is required for materials"
	case "excluded_if":
		return "this field is not allowed for costumes"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(e.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	default:
		return fmt.Sprintf("failed %q validation", e.Tag())
	}
}
