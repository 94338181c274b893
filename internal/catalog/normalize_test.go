package catalog

import (
	"testing"

	"catalog-assistant-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = domain.Credentials{StoreURL: "https://shop.example.com/"}

func TestNormalize_FullyBlankItemGetsAllFallbacks(t *testing.T) {
	products := Normalize([]any{map[string]any{}}, testCreds)

	require.Len(t, products, 1)
	p := products[0]
	assert.Nil(t, p.ID)
	assert.Nil(t, p.SKU)
	assert.Nil(t, p.Name)
	assert.Equal(t, "No description available.", p.Description)
	assert.Equal(t, "Price not available.", p.DisplayPrice)
	assert.Equal(t, "", p.ImageURL)
}

func TestNormalize_SkipsNonObjectItems(t *testing.T) {
	products := Normalize([]any{"not an object", 42, nil, map[string]any{"sku": "RL-1"}}, testCreds)

	require.Len(t, products, 1)
	require.NotNil(t, products[0].SKU)
	assert.Equal(t, "RL-1", *products[0].SKU)
}

func TestNormalize_PassesIdentityFieldsThrough(t *testing.T) {
	products := Normalize([]any{map[string]any{
		"id":   float64(1234),
		"sku":  "RL-1001",
		"name": "Recessed Light",
	}}, testCreds)

	require.Len(t, products, 1)
	p := products[0]
	require.NotNil(t, p.ID)
	assert.Equal(t, int64(1234), *p.ID)
	assert.Equal(t, "RL-1001", *p.SKU)
	assert.Equal(t, "Recessed Light", *p.Name)
}

func TestNormalize_DescriptionPrefersShortAndStripsMarkup(t *testing.T) {
	t.Run("short description wins", func(t *testing.T) {
		products := Normalize([]any{map[string]any{
			"custom_attributes": []any{
				map[string]any{"attribute_code": "description", "value": "long text"},
				map[string]any{"attribute_code": "short_description", "value": "<p>Bright&nbsp;4-inch light</p>"},
			},
		}}, testCreds)
		require.Len(t, products, 1)
		assert.Equal(t, "Bright 4-inch light", products[0].Description)
	})

	t.Run("falls back to description", func(t *testing.T) {
		products := Normalize([]any{map[string]any{
			"custom_attributes": []any{
				map[string]any{"attribute_code": "description", "value": "<b>long</b> text"},
			},
		}}, testCreds)
		require.Len(t, products, 1)
		assert.Equal(t, "long text", products[0].Description)
	})

	t.Run("markup-only text falls back", func(t *testing.T) {
		products := Normalize([]any{map[string]any{
			"custom_attributes": []any{
				map[string]any{"attribute_code": "short_description", "value": "<p>&nbsp;</p>"},
			},
		}}, testCreds)
		require.Len(t, products, 1)
		assert.Equal(t, "No description available.", products[0].Description)
	})

	t.Run("malformed attribute entries are ignored", func(t *testing.T) {
		products := Normalize([]any{map[string]any{
			"custom_attributes": []any{
				"garbage",
				map[string]any{"attribute_code": "short_description", "value": float64(7)},
			},
		}}, testCreds)
		require.Len(t, products, 1)
		assert.Equal(t, "No description available.", products[0].Description)
	})
}

func TestNormalize_ImageSelection(t *testing.T) {
	t.Run("first image-typed entry wins", func(t *testing.T) {
		products := Normalize([]any{map[string]any{
			"media_gallery_entries": []any{
				map[string]any{"file": "/t/h/thumb.jpg", "types": []any{"thumbnail"}},
				map[string]any{"file": "/m/a/main.jpg", "types": []any{"image", "small_image"}},
			},
		}}, testCreds)
		require.Len(t, products, 1)
		assert.Equal(t, "https://shop.example.com/media/catalog/product/m/a/main.jpg", products[0].ImageURL)
	})

	t.Run("no tagged entry falls back to first file", func(t *testing.T) {
		products := Normalize([]any{map[string]any{
			"media_gallery_entries": []any{
				map[string]any{"file": "/f/i/first.jpg", "types": []any{"thumbnail"}},
			},
		}}, testCreds)
		require.Len(t, products, 1)
		assert.Equal(t, "https://shop.example.com/media/catalog/product/f/i/first.jpg", products[0].ImageURL)
	})

	t.Run("empty gallery yields empty URL, never a partial one", func(t *testing.T) {
		products := Normalize([]any{map[string]any{"media_gallery_entries": []any{}}}, testCreds)
		require.Len(t, products, 1)
		assert.Equal(t, "", products[0].ImageURL)
	})
}

func TestNormalize_PriceRendering(t *testing.T) {
	cases := []struct {
		name    string
		price   any
		special any
		want    string
	}{
		{"sale below regular", float64(19.99), float64(14.99), "<del>$19.99</del> <strong>$14.99</strong>"},
		{"no sale price", float64(19.99), nil, "$19.99"},
		{"sale not lower", float64(19.99), float64(19.99), "$19.99"},
		{"string prices parse", "19.99", "14.99", "<del>$19.99</del> <strong>$14.99</strong>"},
		{"both missing", nil, nil, "Price not available."},
		{"unparseable falls back", "n/a", "also n/a", "Price not available."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := map[string]any{}
			if tc.price != nil {
				item["price"] = tc.price
			}
			if tc.special != nil {
				item["special_price"] = tc.special
			}
			products := Normalize([]any{item}, testCreds)
			require.Len(t, products, 1)
			assert.Equal(t, tc.want, products[0].DisplayPrice)
		})
	}
}
