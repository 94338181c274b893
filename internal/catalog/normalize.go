package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"catalog-assistant-service/internal/domain"
)

// Fallback texts for data the backend did not provide. These exact literals
// are part of the presentation contract.
const (
	fallbackDescription = "No description available."
	fallbackPrice       = "Price not available."
)

// mediaBasePath is the fixed path segment between the store base URL and a
// media gallery file path.
const mediaBasePath = "/media/catalog/product"

var (
	markupTagPattern  = regexp.MustCompile(`<[^<]+?>`)
	htmlEntityPattern = regexp.MustCompile(`&[a-zA-Z0-9]+;`)
)

// Normalize converts raw catalog items into the stable product shape. Items
// that are not JSON objects at all are skipped; within an item, every field
// degrades independently to its fallback, so one malformed value never drops
// the item or the request.
func Normalize(rawItems []any, creds domain.Credentials) []domain.Product {
	products := make([]domain.Product, 0, len(rawItems))
	for _, raw := range rawItems {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		products = append(products, domain.Product{
			ID:           intField(item, "id"),
			SKU:          stringField(item, "sku"),
			Name:         stringField(item, "name"),
			DisplayPrice: displayPrice(item),
			ImageURL:     imageURL(item, creds),
			Description:  description(item),
		})
	}
	return products
}

// description pulls short_description (preferred) or description from the
// item's custom attributes, strips markup and entity sequences, and falls
// back when nothing readable remains.
func description(item map[string]any) string {
	var short, long string
	attrs, _ := item["custom_attributes"].([]any)
	for _, a := range attrs {
		attr, ok := a.(map[string]any)
		if !ok {
			continue
		}
		code, _ := attr["attribute_code"].(string)
		value, _ := attr["value"].(string)
		switch code {
		case "short_description":
			short = value
		case "description":
			long = value
		}
	}

	html := short
	if html == "" {
		html = long
	}
	if html == "" {
		return fallbackDescription
	}

	clean := markupTagPattern.ReplaceAllString(html, "")
	clean = htmlEntityPattern.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return fallbackDescription
	}
	return clean
}

// imageURL picks the first gallery entry tagged "image", else the first
// entry's file, and composes an absolute URL only when a path exists.
func imageURL(item map[string]any, creds domain.Credentials) string {
	gallery, _ := item["media_gallery_entries"].([]any)
	var path string
	for _, g := range gallery {
		entry, ok := g.(map[string]any)
		if !ok {
			continue
		}
		if hasImageType(entry) {
			path, _ = entry["file"].(string)
			break
		}
	}
	if path == "" && len(gallery) > 0 {
		if entry, ok := gallery[0].(map[string]any); ok {
			path, _ = entry["file"].(string)
		}
	}
	if path == "" {
		return ""
	}
	return creds.BaseURL() + mediaBasePath + path
}

func hasImageType(entry map[string]any) bool {
	types, _ := entry["types"].([]any)
	for _, t := range types {
		if s, ok := t.(string); ok && s == "image" {
			return true
		}
	}
	return false
}

// displayPrice renders the sale price struck through against the regular
// price when the sale price is strictly lower; otherwise the regular price
// alone. Any parse failure falls back to the "not available" text.
func displayPrice(item map[string]any) string {
	price, priceOK := parsePrice(item["price"])
	special, specialOK := parsePrice(item["special_price"])

	switch {
	case specialOK && priceOK && special < price:
		return fmt.Sprintf("<del>$%.2f</del> <strong>$%.2f</strong>", price, special)
	case priceOK:
		return fmt.Sprintf("$%.2f", price)
	default:
		return fallbackPrice
	}
}

// parsePrice accepts the number and string forms the backend emits.
func parsePrice(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func intField(item map[string]any, key string) *int64 {
	f, ok := item[key].(float64)
	if !ok {
		return nil
	}
	n := int64(f)
	return &n
}

func stringField(item map[string]any, key string) *string {
	s, ok := item[key].(string)
	if !ok {
		return nil
	}
	return &s
}
