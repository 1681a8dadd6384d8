package products

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestValidateProductForm(t *testing.T) {
	v := validator.New()

	fe := ValidateProductForm(v, ProductForm{Title: "Tee", SKU: "TEE-1"})
	assert.False(t, fe.HasErrors())

	fe = ValidateProductForm(v, ProductForm{})
	assert.Contains(t, fe, "title")
	assert.Contains(t, fe, "sku")

	fe = ValidateProductForm(v, ProductForm{Title: strings.Repeat("x", 300), SKU: "TEE-1"})
	assert.Contains(t, fe, "title")
}

func TestValidatePriceForm(t *testing.T) {
	v := validator.New()

	fe := ValidatePriceForm(v, PriceForm{Price: 10, Stock: 0})
	assert.False(t, fe.HasErrors())

	fe = ValidatePriceForm(v, PriceForm{Price: -1, Stock: -2})
	assert.Contains(t, fe, "price")
	assert.Contains(t, fe, "stock")
}
