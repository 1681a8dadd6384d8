package shared

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field name to a human readable message. An empty
// map means the form passed validation; there is no partial success.
type FieldErrors map[string]string

// HasErrors reports whether any field failed validation.
func (fe FieldErrors) HasErrors() bool { return len(fe) > 0 }

// Add records a message for a field, keeping the first message per field.
func (fe FieldErrors) Add(field, message string) {
	if _, ok := fe[field]; !ok {
		fe[field] = message
	}
}

// CollectFieldErrors converts validator errors into FieldErrors. The labels
// map translates struct field names to form field names; unlisted fields keep
// the struct name.
func CollectFieldErrors(err error, labels map[string]string) FieldErrors {
	fe := FieldErrors{}
	if err == nil {
		return fe
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fe.Add("general", "invalid input")
		return fe
	}
	for _, v := range verrs {
		field := v.Field()
		if label, ok := labels[field]; ok {
			field = label
		}
		fe.Add(field, messageFor(field, v))
	}
	return fe
}

func messageFor(field string, v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, v.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, v.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
