package dataprocessing

import (
	"slices"
	"strings"
)

// Selection is the set of chosen values for each facet. A nil or empty
// facet matches nothing.
type Selection struct {
	Products []string `json:"products"`
	Cities   []string `json:"cities"`
	Months   []string `json:"months"`
}

// Key returns a canonical representation of the selection: each facet is
// sorted and deduplicated, so selections that filter identically share a
// key.
func (s Selection) Key() string {
	var b strings.Builder
	writeFacet(&b, "p", s.Products)
	writeFacet(&b, "c", s.Cities)
	writeFacet(&b, "m", s.Months)
	return b.String()
}

func writeFacet(b *strings.Builder, name string, values []string) {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	b.WriteString(name)
	b.WriteByte('[')
	for i, v := range sorted {
		if i > 0 {
			b.WriteByte(0)
		}
		b.WriteString(v)
	}
	b.WriteByte(']')
}

// IsEmpty reports whether any facet has no selected value.
func (s Selection) IsEmpty() bool {
	return len(s.Products) == 0 || len(s.Cities) == 0 || len(s.Months) == 0
}

type facetSet map[string]struct{}

func newFacetSet(values []string) facetSet {
	set := make(facetSet, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func (f facetSet) has(v string) bool {
	_, ok := f[v]
	return ok
}

// Filter returns the rows whose product, city and month are all selected.
// Rows with no city or month match the Unknown option. The table is not
// modified, and filtering the same selection twice yields the same rows.
func Filter(t *Table, sel Selection) View {
	if sel.IsEmpty() {
		return View{table: t}
	}
	products := newFacetSet(sel.Products)
	cities := newFacetSet(sel.Cities)
	months := newFacetSet(sel.Months)

	var idx []int
	for i := range t.records {
		r := &t.records[i]
		if products.has(r.Product) && cities.has(r.CityFacet()) && months.has(r.MonthFacet()) {
			idx = append(idx, i)
		}
	}
	return View{table: t, idx: idx}
}
