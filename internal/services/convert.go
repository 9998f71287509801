package services

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"salesdash/internal/dataprocessing"
	"salesdash/pkg/contracts/domain"
)

// RevenueCurrency is the currency the source prices are quoted in.
const RevenueCurrency = money.USD

var hundred = decimal.NewFromInt(100)

// FormatRevenue renders an amount for display, e.g. "$1,234.56".
func FormatRevenue(amount decimal.Decimal) string {
	cents := amount.Mul(hundred).Round(0).IntPart()
	return money.New(cents, RevenueCurrency).Display()
}

func toFilterOptions(o dataprocessing.FacetOptions) domain.FilterOptions {
	return domain.FilterOptions{
		Products: append([]string{}, o.Products...),
		Cities:   append([]string{}, o.Cities...),
		Months:   append([]string{}, o.Months...),
	}
}

func toDashboard(sum dataprocessing.Summary, sel dataprocessing.Selection, t *dataprocessing.Table) *domain.Dashboard {
	d := &domain.Dashboard{
		Selection: domain.Selection{
			Products: append([]string{}, sel.Products...),
			Cities:   append([]string{}, sel.Cities...),
			Months:   append([]string{}, sel.Months...),
		},
		Options: toFilterOptions(t.Options()),
		KPIs: domain.KPIs{
			TotalProducts:   sum.KPIs.Products,
			Cities:          sum.KPIs.Cities,
			QuantityOrdered: sum.KPIs.QuantitySold,
			Revenue:         sum.KPIs.Revenue,
			RevenueDisplay:  FormatRevenue(sum.KPIs.Revenue),
		},
		WeeklyTrend:        make([]domain.WeeklyPoint, 0, len(sum.WeeklyTrend)),
		ProductPerformance: make([]domain.ProductPoint, 0, len(sum.ProductPerformance)),
		CityRevenue:        make([]domain.CityPoint, 0, len(sum.CityRevenue)),
		RowCount:           sum.Rows,
		Empty:              sum.Rows == 0,
		DatasetVersion:     t.Version(),
	}

	for _, p := range sum.WeeklyTrend {
		d.WeeklyTrend = append(d.WeeklyTrend, domain.WeeklyPoint{Day: p.Day, Amount: p.Amount.InexactFloat64()})
	}
	for _, p := range sum.ProductPerformance {
		d.ProductPerformance = append(d.ProductPerformance, domain.ProductPoint{
			Product:  p.Product,
			Amount:   p.Amount.InexactFloat64(),
			Quantity: p.Quantity,
		})
	}
	for _, c := range sum.CityRevenue {
		d.CityRevenue = append(d.CityRevenue, domain.CityPoint{City: c.City, Revenue: c.Revenue.InexactFloat64()})
	}
	d.ProductByCity = toProductByCity(sum.ProductByCity)

	return d
}

func toProductByCity(m dataprocessing.ProductCityMatrix) domain.ProductByCity {
	out := domain.ProductByCity{
		Cities:   append([]string{}, m.Cities...),
		Products: append([]string{}, m.Products...),
		Values:   make([][]*float64, len(m.Cities)),
	}
	for i, city := range m.Cities {
		row := make([]*float64, len(m.Products))
		for j, product := range m.Products {
			if v, ok := m.Value(city, product); ok {
				f := v.InexactFloat64()
				row[j] = &f
			}
		}
		out.Values[i] = row
	}
	return out
}

func toSalesRow(r *dataprocessing.Record) domain.SalesRow {
	return domain.SalesRow{
		OrderID:         r.OrderID,
		Product:         r.Product,
		QuantityOrdered: r.QuantityOrdered,
		PriceEach:       r.PriceEach.StringFixed(2),
		OrderDate:       r.OrderDate,
		PurchaseAddress: r.PurchaseAddress,
		Month:           r.Month,
		Day:             r.Day,
		OrderTime:       r.OrderTime,
		Amount:          r.Amount.StringFixed(2),
		City:            r.City,
	}
}

func datasetInfo(t *dataprocessing.Table) domain.DatasetInfo {
	report := t.Report()
	sources := make([]domain.SourceFile, 0, len(t.Files()))
	for _, f := range t.Files() {
		sources = append(sources, domain.SourceFile{Name: f.Name, Rows: f.Rows})
	}
	return domain.DatasetInfo{
		Version:     t.Version(),
		BuiltAt:     t.BuiltAt(),
		PricePolicy: string(t.PricePolicy()),
		RawRows:     t.RawRows(),
		Rows:        t.Len(),
		Sources:     sources,
		Cleaning: domain.CleanStats{
			EmptyRows:       report.EmptyRows,
			DuplicateRows:   report.DuplicateRows,
			InvalidQuantity: report.InvalidQuantity,
			InvalidPrice:    report.InvalidPrice,
			InvalidOrderID:  report.InvalidOrderID,
			UnparsedDates:   report.UnparsedDates,
		},
	}
}
