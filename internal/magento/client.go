package magento

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"catalog-assistant-service/internal/domain"

	"github.com/dghubble/oauth1"
)

// restBasePath is the Magento REST entry point. The index.php form works on
// stores with and without URL rewrites enabled.
const restBasePath = "/index.php/rest/V1"

// APIError is a non-2xx response from the storefront backend. The message is
// the backend's own "message" field when the body carried one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("magento: API error: %d - %s", e.StatusCode, e.Message)
}

// Client performs single-shot, OAuth1-signed requests against a storefront
// REST API. It holds no per-store state: credentials arrive with every call.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Client. The passed http.Client supplies the timeout
// policy; nil falls back to http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

// Fetch performs one signed request and returns the raw JSON body.
// endpoint is the REST path below /V1 (e.g. "/products"); query is the
// pre-encoded query string including its leading "?" or empty.
// Non-2xx responses are returned as *APIError. No retries.
func (c *Client) Fetch(ctx context.Context, method, endpoint string, creds domain.Credentials, query string) (json.RawMessage, error) {
	fullURL := creds.BaseURL() + restBasePath + endpoint + query

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("magento: building request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.signingClient(ctx, creds).Do(req)
	if err != nil {
		return nil, fmt.Errorf("magento: request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("magento: reading response from %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.Status)}
	}

	return json.RawMessage(body), nil
}

// TestConnection verifies a credential bundle against the live store and
// returns the store view name, mirroring what an operator sees when pairing
// the assistant with a storefront.
func (c *Client) TestConnection(ctx context.Context, creds domain.Credentials) (string, error) {
	if _, err := c.Fetch(ctx, http.MethodGet, "/products", creds, "?searchCriteria[pageSize]=1"); err != nil {
		return "", err
	}

	raw, err := c.Fetch(ctx, http.MethodGet, "/store/storeViews", creds, "")
	if err != nil {
		return "", err
	}

	var views []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &views); err != nil || len(views) == 0 || views[0].Name == "" {
		return "Unknown Store", nil
	}
	return views[0].Name, nil
}

// signingClient wraps the base http.Client with an OAuth1 signing transport
// for one credential bundle. Magento integrations sign with HMAC-SHA256.
func (c *Client) signingClient(ctx context.Context, creds domain.Credentials) *http.Client {
	config := oauth1.Config{
		ConsumerKey:    creds.ConsumerKey,
		ConsumerSecret: creds.ConsumerSecret,
		Signer:         &oauth1.HMAC256Signer{ConsumerSecret: creds.ConsumerSecret},
	}
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	ctx = context.WithValue(ctx, oauth1.HTTPClient, c.httpClient)
	return config.Client(ctx, token)
}

// errorMessage extracts the backend's message from an error body, falling
// back to the HTTP status line.
func errorMessage(body []byte, status string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return status
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// EscapePathSegment encodes one path segment (e.g. a SKU in /products/{sku})
// so slashes and spaces cannot change the route.
func EscapePathSegment(s string) string {
	return url.PathEscape(s)
}
