package products

import "time"

// Product is a sellable item identified by SKU.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	SKU         string    `json:"sku" db:"sku"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProductVariant binds a product to a variant dimension with a concrete tag
// value, e.g. product "T-Shirt" + variant "Color" -> tag "Red".
type ProductVariant struct {
	ID           int64  `json:"id" db:"id"`
	VariantTitle string `json:"variant_title" db:"variant_title"`
	VariantID    int64  `json:"variant_id" db:"variant_id"`
	ProductID    int64  `json:"product_id" db:"product_id"`
}

// ProductVariantPrice is a priced, stocked line belonging to a product.
type ProductVariantPrice struct {
	ID        int64   `json:"id" db:"id"`
	Price     float64 `json:"price" db:"price"`
	Stock     int     `json:"stock" db:"stock"`
	ProductID int64   `json:"product_id" db:"product_id"`
}

// ProductImage references a stored image file owned by a product.
type ProductImage struct {
	ID        int64  `json:"id" db:"id"`
	ProductID int64  `json:"product_id" db:"product_id"`
	FilePath  string `json:"file_path" db:"file_path"`
}

// ProductDetail is a product with its eagerly loaded children, as rendered
// on list and update pages.
type ProductDetail struct {
	Product
	Variants []ProductVariant      `json:"variants"`
	Prices   []ProductVariantPrice `json:"prices"`
}
