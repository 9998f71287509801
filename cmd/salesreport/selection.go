package main

import (
	"flag"
	"strings"

	"salesdash/internal/middleware"
	api "salesdash/pkg/contracts/api/v1"
	"salesdash/pkg/contracts/domain"
)

// facetFlag collects a repeatable facet flag. An unset flag selects every
// value; a flag given only empty values ("-city=") selects nothing.
type facetFlag struct {
	values []string
	set    bool
}

func (f *facetFlag) String() string {
	return strings.Join(f.values, ",")
}

func (f *facetFlag) Set(s string) error {
	if !f.set {
		f.values = []string{}
		f.set = true
	}
	if s != "" {
		f.values = append(f.values, s)
	}
	return nil
}

// Values returns nil when the flag was never given.
func (f *facetFlag) Values() []string {
	if !f.set {
		return nil
	}
	return f.values
}

// selectionFlags registers -product, -city and -month.
type selectionFlags struct {
	products facetFlag
	cities   facetFlag
	months   facetFlag
}

func (s *selectionFlags) register(f *flag.FlagSet) {
	f.Var(&s.products, "product", "Product to include; repeat for several. Omit for all.")
	f.Var(&s.cities, "city", "City to include; repeat for several. Omit for all.")
	f.Var(&s.months, "month", "Month name to include, e.g. April; repeat for several. Omit for all.")
}

// selection validates the flags with the same rules as the HTTP API.
func (s *selectionFlags) selection() (domain.Selection, error) {
	req := api.SelectionRequest{
		Products: s.products.Values(),
		Cities:   s.cities.Values(),
		Months:   s.months.Values(),
	}
	if err := middleware.NewValidator().Struct(req); err != nil {
		return domain.Selection{}, err
	}
	return req.Selection(), nil
}
