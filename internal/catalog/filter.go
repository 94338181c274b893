package catalog

import (
	"context"
	"errors"
	"net/url"
	"sort"

	"catalog-assistant-service/internal/domain"
)

// Condition types understood by the storefront's searchCriteria grammar.
const (
	ConditionEquals  = "eq"
	ConditionLike    = "like"
	ConditionNotNull = "notnull"
)

// brandAttributeCode is the catalog attribute holding the brand.
const brandAttributeCode = "manufacturer"

// DefaultPageSize applies when a search intent carries no limit.
const DefaultPageSize = 10

// Field projections requested from the backend. Counting needs no item data.
const (
	countProjection   = "total_count"
	displayProjection = "items[id,sku,name,price,special_price,custom_attributes,media_gallery_entries[id,file,types]],total_count"
)

// searchableFields are the fields a free-text term fans out across. The
// predicates land in one group so the backend ORs them: "term appears in at
// least one of these".
var searchableFields = [...]string{"name", "sku", "short_description"}

// ErrBrandUnresolved signals that a brand named in the intent has no matching
// catalog ID. Callers must treat the whole query as yielding zero results;
// the brand name is deliberately never retried as a text search.
var ErrBrandUnresolved = errors.New("catalog: brand not found in catalog")

// Predicate is a single field/value/condition comparison.
type Predicate struct {
	Field     string
	Value     string
	Condition string
}

// FilterGroup is one AND-combined unit of the compiled query. Predicates
// within a group are OR-combined by the backend, so each semantic dimension
// (text term, brand, sale flag, each attribute) must keep its own group.
type FilterGroup struct {
	Filters []Predicate
}

// QueryDescriptor is the compiled query: ordered filter groups plus paging
// and field projection. PageSize 0 means "count only, return no items".
type QueryDescriptor struct {
	Groups   []FilterGroup
	PageSize int
	Fields   string
}

// BrandResolver maps a brand display name to its backend-internal attribute
// option ID.
type BrandResolver interface {
	ResolveBrandID(ctx context.Context, name string, creds domain.Credentials) (string, error)
}

// Compiler translates intent records into query descriptors. It is stateless;
// the only collaboration is brand-name resolution.
type Compiler struct {
	brands BrandResolver
}

// NewCompiler creates a Compiler using the given brand resolver.
func NewCompiler(brands BrandResolver) *Compiler {
	return &Compiler{brands: brands}
}

// Compile maps an intent to a query descriptor. An empty intent compiles to
// a descriptor with zero filter groups, meaning "fetch unfiltered results".
// If the intent names a brand that cannot be resolved, Compile returns
// ErrBrandUnresolved and the caller must report zero results without issuing
// a catalog fetch.
func (c *Compiler) Compile(ctx context.Context, intent domain.Intent, creds domain.Credentials) (*QueryDescriptor, error) {
	desc := &QueryDescriptor{}

	if term := intent.SearchTerm(); term != "" {
		group := FilterGroup{Filters: make([]Predicate, 0, len(searchableFields))}
		value := wildcardWrap(term)
		for _, field := range searchableFields {
			group.Filters = append(group.Filters, Predicate{Field: field, Value: value, Condition: ConditionLike})
		}
		desc.Groups = append(desc.Groups, group)
	}

	if intent.Brand != "" {
		brandID, err := c.brands.ResolveBrandID(ctx, intent.Brand, creds)
		if err != nil {
			return nil, ErrBrandUnresolved
		}
		desc.Groups = append(desc.Groups, FilterGroup{Filters: []Predicate{
			{Field: brandAttributeCode, Value: brandID, Condition: ConditionEquals},
		}})
	}

	if intent.OnSale {
		desc.Groups = append(desc.Groups, FilterGroup{Filters: []Predicate{
			{Field: "special_price", Condition: ConditionNotNull},
		}})
	}

	// One group per attribute so they AND with everything else. Codes are
	// emitted in sorted order to keep descriptors deterministic.
	for _, code := range sortedKeys(intent.Attributes) {
		desc.Groups = append(desc.Groups, FilterGroup{Filters: []Predicate{
			{Field: code, Value: wildcardWrap(intent.Attributes[code]), Condition: ConditionLike},
		}})
	}

	if intent.Task == domain.TaskCount {
		desc.PageSize = 0
		desc.Fields = countProjection
	} else {
		desc.PageSize = intent.Limit
		if desc.PageSize <= 0 {
			desc.PageSize = DefaultPageSize
		}
		desc.Fields = displayProjection
	}

	return desc, nil
}

// wildcardWrap URL-escapes a search term and wraps it in SQL-style wildcard
// markers. Escaping first keeps the markers literal and the term content
// transport-safe; the encoder must not escape the value again.
func wildcardWrap(term string) string {
	return "%" + url.QueryEscape(term) + "%"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
