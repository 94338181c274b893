package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"catalog-assistant-service/internal/domain"
	"catalog-assistant-service/internal/magento"
)

// ErrBrandNotFound is returned by ResolveBrandID when no attribute option
// label matches the requested brand name, or the options fetch itself failed.
// Both cases degrade the search rather than failing it.
var ErrBrandNotFound = errors.New("catalog: no matching brand option")

// Fetcher is the transport collaborator contract: one signed request, raw
// JSON back, typed failure on non-2xx. Implemented by magento.Client.
type Fetcher interface {
	Fetch(ctx context.Context, method, endpoint string, creds domain.Credentials, query string) (json.RawMessage, error)
}

// Service orchestrates filter compilation, the catalog fetch, and result
// normalization. One Service is shared across requests; it holds no mutable
// state beyond its collaborators.
type Service struct {
	client   Fetcher
	compiler *Compiler
}

// NewService creates a Service over the given transport. The Service itself
// acts as the compiler's brand resolver.
func NewService(client Fetcher) *Service {
	s := &Service{client: client}
	s.compiler = NewCompiler(s)
	return s
}

// Query compiles the intent, runs the catalog fetch, and normalizes the
// response. A brand that resolves to nothing returns an empty result without
// touching the product endpoint. Transport failures surface unwrapped so the
// caller can inspect the *magento.APIError.
func (s *Service) Query(ctx context.Context, intent domain.Intent, creds domain.Credentials) (*domain.QueryResult, error) {
	desc, err := s.compiler.Compile(ctx, intent, creds)
	if err != nil {
		if errors.Is(err, ErrBrandUnresolved) {
			return &domain.QueryResult{Items: []domain.Product{}, TotalCount: 0}, nil
		}
		return nil, err
	}

	raw, err := s.client.Fetch(ctx, http.MethodGet, "/products", creds, desc.Encode())
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Items      []any `json:"items"`
		TotalCount int   `json:"total_count"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("catalog: malformed product response: %w", err)
	}

	if intent.Task == domain.TaskCount {
		return &domain.QueryResult{TotalCount: envelope.TotalCount}, nil
	}

	return &domain.QueryResult{
		Items:      Normalize(envelope.Items, creds),
		TotalCount: envelope.TotalCount,
	}, nil
}

// ResolveBrandID fetches the full option set for the brand attribute and
// matches the name against option labels, case-insensitively and ignoring
// surrounding whitespace. A fetch failure is logged and treated the same as
// no match: the caller sees ErrBrandNotFound either way.
func (s *Service) ResolveBrandID(ctx context.Context, name string, creds domain.Credentials) (string, error) {
	endpoint := "/products/attributes/" + brandAttributeCode + "/options"
	raw, err := s.client.Fetch(ctx, http.MethodGet, endpoint, creds, "")
	if err != nil {
		log.Printf("INFO: brand option lookup for %q failed, treating as unknown brand: %v", name, err)
		return "", ErrBrandNotFound
	}

	var options []struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &options); err != nil {
		log.Printf("INFO: brand option payload for %q malformed, treating as unknown brand: %v", name, err)
		return "", ErrBrandNotFound
	}

	want := strings.TrimSpace(name)
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt.Label), want) && opt.Value != "" {
			return opt.Value, nil
		}
	}
	return "", ErrBrandNotFound
}

// ProductBySKU fetches the full raw record for one product, for answering
// detail questions. The SKU is path-escaped, not query-escaped.
func (s *Service) ProductBySKU(ctx context.Context, sku string, creds domain.Credentials) (json.RawMessage, error) {
	return s.client.Fetch(ctx, http.MethodGet, "/products/"+magento.EscapePathSegment(sku), creds, "")
}
