package variants

// Variant is a product attribute dimension, e.g. Color or Size. Inactive
// variants stay readable for already-created products but are excluded from
// the option lists offered during creation and filtering.
type Variant struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Active      bool   `json:"active" db:"active"`
}

// Option is the (id, title) pair rendered in variant dropdowns.
type Option struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
