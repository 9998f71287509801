// Package domain contains the data contracts handed to the presentation
// layer of the sales dashboard.
package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Selection is the chosen values of each facet. An empty facet selects
// nothing.
type Selection struct {
	Products []string `json:"products"`
	Cities   []string `json:"cities"`
	Months   []string `json:"months"`
}

// FilterOptions lists the values available for each facet, in order of
// first appearance in the dataset.
type FilterOptions struct {
	Products []string `json:"products"`
	Cities   []string `json:"cities"`
	Months   []string `json:"months"`
}

// KPIs are the four headline figures of the dashboard.
type KPIs struct {
	TotalProducts   int             `json:"total_products"`
	Cities          int             `json:"cities"`
	QuantityOrdered int64           `json:"quantity_ordered"`
	Revenue         decimal.Decimal `json:"revenue"`
	RevenueDisplay  string          `json:"revenue_display"`
}

// MarshalJSON writes Revenue as an exact decimal string with two places.
func (k KPIs) MarshalJSON() ([]byte, error) {
	type plain KPIs
	return json.Marshal(struct {
		plain
		Revenue string `json:"revenue"`
	}{plain: plain(k), Revenue: k.Revenue.StringFixed(2)})
}

// WeeklyPoint is the revenue of one weekday.
type WeeklyPoint struct {
	Day    string  `json:"day"`
	Amount float64 `json:"amount"`
}

// ProductPoint is one bar of the product performance chart.
type ProductPoint struct {
	Product  string  `json:"product"`
	Amount   float64 `json:"amount"`
	Quantity int64   `json:"quantity"`
}

// CityPoint is one slice of the city revenue chart.
type CityPoint struct {
	City    string  `json:"city"`
	Revenue float64 `json:"revenue"`
}

// ProductByCity is a city by product revenue matrix. Values[i][j] is the
// revenue of Products[j] in Cities[i], or null when nothing was sold.
type ProductByCity struct {
	Cities   []string     `json:"cities"`
	Products []string     `json:"products"`
	Values   [][]*float64 `json:"values"`
}

// ChartTitles are the captions of the four charts.
type ChartTitles struct {
	WeeklyTrend        string `json:"weekly_trend"`
	ProductPerformance string `json:"product_performance"`
	CityRevenue        string `json:"city_revenue"`
	ProductByCity      string `json:"product_by_city"`
}

// Dashboard is everything the presentation layer renders for a selection.
type Dashboard struct {
	Title              string         `json:"title"`
	Header             string         `json:"header"`
	Footer             string         `json:"footer"`
	Charts             ChartTitles    `json:"charts"`
	Selection          Selection      `json:"selection"`
	Options            FilterOptions  `json:"options"`
	KPIs               KPIs           `json:"kpis"`
	WeeklyTrend        []WeeklyPoint  `json:"weekly_trend"`
	ProductPerformance []ProductPoint `json:"product_performance"`
	CityRevenue        []CityPoint    `json:"city_revenue"`
	ProductByCity      ProductByCity  `json:"product_by_city"`
	RowCount           int            `json:"row_count"`
	Empty              bool           `json:"empty"`
	GeneratedAt        time.Time      `json:"generated_at"`
	DatasetVersion     string         `json:"dataset_version"`
}

// SalesRow is one line of the raw data view.
type SalesRow struct {
	OrderID         int64      `json:"order_id"`
	Product         string     `json:"product"`
	QuantityOrdered int64      `json:"quantity_ordered"`
	PriceEach       string     `json:"price_each"`
	OrderDate       *time.Time `json:"order_date"`
	PurchaseAddress string     `json:"purchase_address"`
	Month           string     `json:"month,omitempty"`
	Day             string     `json:"day,omitempty"`
	OrderTime       string     `json:"order_time,omitempty"`
	Amount          string     `json:"amount"`
	City            string     `json:"city,omitempty"`
}

// RowsPage is a page of the filtered raw data.
type RowsPage struct {
	Rows   []SalesRow `json:"rows"`
	Total  int        `json:"total"`
	Offset int        `json:"offset"`
	Limit  int        `json:"limit"`
}

// SourceFile reports how many raw rows a source contributed.
type SourceFile struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// CleanStats counts the rows removed by each cleaning step.
type CleanStats struct {
	EmptyRows       int `json:"empty_rows"`
	DuplicateRows   int `json:"duplicate_rows"`
	InvalidQuantity int `json:"invalid_quantity"`
	InvalidPrice    int `json:"invalid_price"`
	InvalidOrderID  int `json:"invalid_order_id"`
	UnparsedDates   int `json:"unparsed_dates"`
}

// DatasetInfo describes the currently loaded dataset.
type DatasetInfo struct {
	Version     string       `json:"version"`
	BuiltAt     time.Time    `json:"built_at"`
	PricePolicy string       `json:"price_policy"`
	RawRows     int          `json:"raw_rows"`
	Rows        int          `json:"rows"`
	Sources     []SourceFile `json:"sources"`
	Cleaning    CleanStats   `json:"cleaning"`
}
