package domain

// Product is the stable, always-populated card shape handed to the
// presentation layer regardless of how complete the raw catalog data was.
// DisplayPrice, ImageURL and Description always carry a value (possibly a
// documented fallback); ID, SKU and Name are passed through verbatim and
// stay nil when the backend omitted them.
type Product struct {
	ID           *int64  `json:"id"`
	SKU          *string `json:"sku"`
	Name         *string `json:"name"`
	DisplayPrice string  `json:"price"`
	ImageURL     string  `json:"image_url"`
	Description  string  `json:"description"`
}

// QueryResult is the canonical outcome of a catalog query. For count-only
// queries Items is nil and only TotalCount is meaningful.
type QueryResult struct {
	Items      []Product `json:"items,omitempty"`
	TotalCount int       `json:"total_count"`
}
