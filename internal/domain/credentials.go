package domain

import "strings"

// Credentials is the opaque per-request credential bundle for one storefront.
// It is passed by value through every layer; nothing in this service caches
// or mutates it. The json tags match the connect/chat request payloads.
type Credentials struct {
	StoreURL          string `json:"store_url" validate:"required,url"`
	ConsumerKey       string `json:"consumer_key" validate:"required"`
	ConsumerSecret    string `json:"consumer_secret" validate:"required"`
	AccessToken       string `json:"access_token" validate:"required"`
	AccessTokenSecret string `json:"access_token_secret" validate:"required"`
}

// BaseURL returns the store URL without a trailing slash, suitable for
// composing REST endpoints and media URLs.
func (c Credentials) BaseURL() string {
	return strings.TrimRight(c.StoreURL, "/")
}
