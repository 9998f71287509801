package dataprocessing

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// KPIs are the headline numbers of a filtered view.
type KPIs struct {
	Products     int
	Cities       int
	QuantitySold int64
	Revenue      decimal.Decimal
}

// DayAmount is the revenue of one weekday.
type DayAmount struct {
	Day    string
	Amount decimal.Decimal
}

// ProductPerformance is the revenue and volume of one product.
type ProductPerformance struct {
	Product  string
	Amount   decimal.Decimal
	Quantity int64
}

// CityRevenue is the revenue of one city.
type CityRevenue struct {
	City    string
	Revenue decimal.Decimal
}

// ProductCityMatrix is revenue pivoted by city (rows) and product
// (columns). Combinations without sales have no cell.
type ProductCityMatrix struct {
	Cities   []string
	Products []string
	cells    map[matrixKey]decimal.Decimal
}

type matrixKey struct {
	city    string
	product string
}

// Value returns the revenue of product in city, and false when no row in
// the view sold that product there.
func (m ProductCityMatrix) Value(city, product string) (decimal.Decimal, bool) {
	v, ok := m.cells[matrixKey{city: city, product: product}]
	return v, ok
}

// Cells returns the number of populated cells.
func (m ProductCityMatrix) Cells() int { return len(m.cells) }

// Summary holds every aggregate shown on the dashboard.
type Summary struct {
	Rows               int
	KPIs               KPIs
	WeeklyTrend        []DayAmount
	ProductPerformance []ProductPerformance
	CityRevenue        []CityRevenue
	ProductByCity      ProductCityMatrix
}

// Aggregate computes the KPIs and chart data of a view in a single pass.
// An empty view produces zero KPIs, seven zero weekdays and empty series.
// Rows without a city are left out of the city count and every city chart.
func Aggregate(v View) Summary {
	var (
		kpis       = KPIs{Revenue: decimal.Zero}
		byDay      = make(map[string]decimal.Decimal, len(Weekdays))
		byProduct  = make(map[string]*ProductPerformance)
		byCity     = make(map[string]decimal.Decimal)
		cells      = make(map[matrixKey]decimal.Decimal)
		products   = make(map[string]struct{})
		cellsProds = make(map[string]struct{})
	)

	v.Each(func(r *Record) bool {
		kpis.QuantitySold += r.QuantityOrdered
		kpis.Revenue = kpis.Revenue.Add(r.Amount)
		products[r.Product] = struct{}{}

		if r.Day != "" {
			byDay[r.Day] = byDay[r.Day].Add(r.Amount)
		}

		p, ok := byProduct[r.Product]
		if !ok {
			p = &ProductPerformance{Product: r.Product, Amount: decimal.Zero}
			byProduct[r.Product] = p
		}
		p.Amount = p.Amount.Add(r.Amount)
		p.Quantity += r.QuantityOrdered

		if r.City != "" {
			byCity[r.City] = byCity[r.City].Add(r.Amount)
			k := matrixKey{city: r.City, product: r.Product}
			cells[k] = cells[k].Add(r.Amount)
			cellsProds[r.Product] = struct{}{}
		}
		return true
	})

	kpis.Products = len(products)
	kpis.Cities = len(byCity)

	weekly := make([]DayAmount, len(Weekdays))
	for i, day := range Weekdays {
		weekly[i] = DayAmount{Day: day, Amount: byDay[day]}
	}

	perf := make([]ProductPerformance, 0, len(byProduct))
	for _, p := range byProduct {
		perf = append(perf, *p)
	}
	slices.SortFunc(perf, func(a, b ProductPerformance) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.Product, b.Product)
	})

	cities := make([]CityRevenue, 0, len(byCity))
	for city, rev := range byCity {
		cities = append(cities, CityRevenue{City: city, Revenue: rev})
	}
	slices.SortFunc(cities, func(a, b CityRevenue) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.City, b.City)
	})

	matrix := ProductCityMatrix{
		Cities:   make([]string, 0, len(byCity)),
		Products: make([]string, 0, len(cellsProds)),
		cells:    cells,
	}
	for city := range byCity {
		matrix.Cities = append(matrix.Cities, city)
	}
	for p := range cellsProds {
		matrix.Products = append(matrix.Products, p)
	}
	slices.Sort(matrix.Cities)
	slices.Sort(matrix.Products)

	return Summary{
		Rows:               v.Len(),
		KPIs:               kpis,
		WeeklyTrend:        weekly,
		ProductPerformance: perf,
		CityRevenue:        cities,
		ProductByCity:      matrix,
	}
}
