package shared

const (
	// DefaultPage is the first page of any listing.
	DefaultPage = 1
	// DefaultLimit applies to admin tables; product listings use the
	// configured LIST_PAGE_SIZE instead.
	DefaultLimit = 10
)
