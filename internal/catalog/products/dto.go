package products

// VariantSelection is one {tags, option} pair submitted by the create form:
// a free-text tag value bound to a variant dimension id.
type VariantSelection struct {
	Tags   string `json:"tags"`
	Option int64  `json:"option"`
}

// ProductForm carries the user-editable product fields.
type ProductForm struct {
	Title       string `json:"title" validate:"required,max=255"`
	SKU         string `json:"sku" validate:"required,max=255"`
	Description string `json:"description"`
}

// PriceForm carries one price/stock field set bound to an existing price row
// on update, or to the optional seed row on create.
type PriceForm struct {
	ID    int64   `json:"id"`
	Price float64 `json:"price" validate:"gte=0"`
	Stock int     `json:"stock" validate:"gte=0"`
}

// CreateProductInput is the parsed create request.
type CreateProductInput struct {
	Form       ProductForm
	Selections []VariantSelection
	SeedPrice  *PriceForm
}

// UpdateProductInput is the parsed update request: product fields plus one
// price form per existing price row.
type UpdateProductInput struct {
	Form   ProductForm
	Prices []PriceForm
}
