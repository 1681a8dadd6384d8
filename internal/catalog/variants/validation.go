package variants

import (
	"github.com/go-playground/validator/v10"

	"github.com/kamrul-pu/product-catalog/internal/catalog/shared"
)

// VariantForm carries the user-editable variant fields.
type VariantForm struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

var variantFieldLabels = map[string]string{
	"Title":       "title",
	"Description": "description",
	"Active":      "active",
}

// ValidateVariantForm checks the variant fields. Returns an empty
// FieldErrors on success.
func ValidateVariantForm(v *validator.Validate, form VariantForm) shared.FieldErrors {
	if err := v.Struct(form); err != nil {
		return shared.CollectFieldErrors(err, variantFieldLabels)
	}
	return shared.FieldErrors{}
}
