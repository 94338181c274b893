package catalog

import (
	"strconv"
	"strings"
)

// Encode serializes the descriptor into the storefront's searchCriteria
// query-string grammar:
//
//	searchCriteria[filter_groups][<g>][filters][<f>][field|value|condition_type]
//	searchCriteria[pageSize]
//	fields=<projection>
//
// Group and filter indices are zero-based and contiguous in emission order.
// Predicate values arrive pre-encoded from the compiler and are inserted
// verbatim; re-encoding here would corrupt the wildcard markers. The result
// includes the leading "?".
func (d *QueryDescriptor) Encode() string {
	var parts []string

	for g, group := range d.Groups {
		for f, p := range group.Filters {
			prefix := "searchCriteria[filter_groups][" + strconv.Itoa(g) + "][filters][" + strconv.Itoa(f) + "]"
			parts = append(parts, prefix+"[field]="+p.Field)
			if p.Value != "" {
				parts = append(parts, prefix+"[value]="+p.Value)
			}
			parts = append(parts, prefix+"[condition_type]="+p.Condition)
		}
	}

	parts = append(parts, "searchCriteria[pageSize]="+strconv.Itoa(d.PageSize))
	if d.Fields != "" {
		parts = append(parts, "fields="+d.Fields)
	}

	return "?" + strings.Join(parts, "&")
}
