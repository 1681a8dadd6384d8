package products

import (
	"github.com/go-playground/validator/v10"

	"github.com/kamrul-pu/product-catalog/internal/catalog/shared"
)

var productFieldLabels = map[string]string{
	"Title":       "title",
	"SKU":         "sku",
	"Description": "description",
	"Price":       "price",
	"Stock":       "stock",
}

// ValidateProductForm checks the product fields. Returns an empty FieldErrors
// on success.
func ValidateProductForm(v *validator.Validate, form ProductForm) shared.FieldErrors {
	if err := v.Struct(form); err != nil {
		return shared.CollectFieldErrors(err, productFieldLabels)
	}
	return shared.FieldErrors{}
}

// ValidatePriceForm checks one price/stock field set. Price and stock must be
// non-negative.
func ValidatePriceForm(v *validator.Validate, form PriceForm) shared.FieldErrors {
	if err := v.Struct(form); err != nil {
		return shared.CollectFieldErrors(err, productFieldLabels)
	}
	return shared.FieldErrors{}
}
