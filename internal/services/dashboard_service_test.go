package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/config"
	"salesdash/internal/dataprocessing"
	"salesdash/internal/infrastructure"
	"salesdash/pkg/contracts/domain"
)

const testHeader = "Order ID,Product,Quantity Ordered,Price Each,Order Date,Purchase Address"

var sampleLines = []string{
	`1,iPhone,1,700,04/19/19 08:46,"1 A St, Dallas, TX 75001"`,
	`2,Wired Headphones,3,11.99,05/07/19 22:30,"2 B St, Boston, MA 02215"`,
	`3,iPhone,1,700,05/12/19 14:38,"3 C St, Boston, MA 02215"`,
	`4,AA Batteries (4-pack),3,3.84,bad date,"4 D St, Dallas, TX 75001"`,
	`5,Wired Headphones,1,11.99,04/30/19 09:27,Warehouse`,
}

func writeSource(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := testHeader + "\n" + strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestService(t *testing.T, files ...string) *DashboardService {
	t.Helper()
	svc, err := NewDashboardService(DashboardServiceConfig{
		Files:   files,
		Metrics: infrastructure.NewNoopMetrics(),
		Logger:  infrastructure.NewDiscardLogger(),
	})
	require.NoError(t, err)
	return svc
}

func loadedService(t *testing.T) (*DashboardService, string) {
	t.Helper()
	path := writeSource(t, t.TempDir(), "Sales_April_2019.csv", sampleLines...)
	svc := newTestService(t, path)
	require.NoError(t, svc.Load(context.Background()))
	return svc, path
}

func TestDashboardService_NotLoaded(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.False(t, svc.Ready())

	_, err := svc.Build(ctx, domain.Selection{})
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)

	_, err = svc.Options(ctx)
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)

	_, err = svc.Rows(ctx, domain.Selection{}, 0, 10)
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)

	_, err = svc.DatasetInfo(ctx)
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
}

func TestDashboardService_LoadFailsOnMissingSource(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "missing.csv"))

	err := svc.Load(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, dataprocessing.ErrSourceUnreadable)
	assert.False(t, svc.Ready())
}

func TestDashboardService_BuildAll(t *testing.T) {
	svc, _ := loadedService(t)

	d, err := svc.Build(context.Background(), domain.Selection{})
	require.NoError(t, err)

	assert.Equal(t, config.DefaultTitle, d.Title)
	assert.Equal(t, config.DefaultHeader, d.Header)
	assert.Equal(t, config.DefaultFooter, d.Footer)
	assert.Equal(t, ChartWeeklyTrend, d.Charts.WeeklyTrend)

	assert.Equal(t, 5, d.RowCount)
	assert.False(t, d.Empty)
	assert.Equal(t, 3, d.KPIs.TotalProducts)
	assert.Equal(t, 2, d.KPIs.Cities)
	assert.Equal(t, int64(9), d.KPIs.QuantityOrdered)
	assert.Equal(t, "1459.48", d.KPIs.Revenue.StringFixed(2))
	assert.Equal(t, "$1,459.48", d.KPIs.RevenueDisplay)

	// The unparsable date still counts toward KPIs but not the weekly trend.
	require.Len(t, d.WeeklyTrend, 7)
	assert.Equal(t, "Monday", d.WeeklyTrend[0].Day)

	require.Len(t, d.CityRevenue, 2)
	assert.Equal(t, "Boston", d.CityRevenue[0].City)
	assert.InDelta(t, 735.97, d.CityRevenue[0].Revenue, 1e-9)
	assert.Equal(t, "Dallas", d.CityRevenue[1].City)

	assert.Equal(t, []string{"Boston", "Dallas"}, d.ProductByCity.Cities)
	require.Len(t, d.ProductByCity.Values, 2)
	for i, product := range d.ProductByCity.Products {
		if product == "AA Batteries (4-pack)" {
			assert.Nil(t, d.ProductByCity.Values[0][i], "no batteries sold in Boston")
			require.NotNil(t, d.ProductByCity.Values[1][i])
			assert.InDelta(t, 11.52, *d.ProductByCity.Values[1][i], 1e-9)
		}
	}

	assert.Contains(t, d.Options.Cities, dataprocessing.Unknown)
	assert.Contains(t, d.Selection.Cities, dataprocessing.Unknown)
	assert.NotEmpty(t, d.DatasetVersion)
}

func TestDashboardService_BuildSelections(t *testing.T) {
	svc, _ := loadedService(t)

	tests := []struct {
		name     string
		sel      domain.Selection
		wantRows int
	}{
		{name: "nil facets select everything", sel: domain.Selection{}, wantRows: 5},
		{name: "single product", sel: domain.Selection{Products: []string{"iPhone"}}, wantRows: 2},
		{name: "single city", sel: domain.Selection{Cities: []string{"Boston"}}, wantRows: 2},
		{name: "unknown city", sel: domain.Selection{Cities: []string{dataprocessing.Unknown}}, wantRows: 1},
		{name: "unknown month", sel: domain.Selection{Months: []string{dataprocessing.Unknown}}, wantRows: 1},
		{name: "conjunction", sel: domain.Selection{Products: []string{"iPhone"}, Months: []string{"May"}}, wantRows: 1},
		{name: "empty facet", sel: domain.Selection{Products: []string{}}, wantRows: 0},
		{name: "unmatched value", sel: domain.Selection{Cities: []string{"Atlantis"}}, wantRows: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := svc.Build(context.Background(), tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, d.RowCount)
			assert.Equal(t, tt.wantRows == 0, d.Empty)
		})
	}
}

func TestDashboardService_EmptyDashboard(t *testing.T) {
	svc, _ := loadedService(t)

	d, err := svc.Build(context.Background(), domain.Selection{Months: []string{}})
	require.NoError(t, err)

	assert.True(t, d.Empty)
	assert.Equal(t, 0, d.KPIs.TotalProducts)
	assert.True(t, d.KPIs.Revenue.IsZero())
	assert.Equal(t, "$0.00", d.KPIs.RevenueDisplay)
	require.Len(t, d.WeeklyTrend, 7)
	for _, p := range d.WeeklyTrend {
		assert.Zero(t, p.Amount)
	}
	assert.Empty(t, d.ProductPerformance)
	assert.Empty(t, d.CityRevenue)
	assert.Empty(t, d.ProductByCity.Cities)
}

func TestDashboardService_Cache(t *testing.T) {
	svc, _ := loadedService(t)
	ctx := context.Background()

	first, err := svc.Build(ctx, domain.Selection{Products: []string{"iPhone", "Wired Headphones"}})
	require.NoError(t, err)

	// Same facets in another order share the cache entry.
	second, err := svc.Build(ctx, domain.Selection{Products: []string{"Wired Headphones", "iPhone", "iPhone"}})
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := svc.Build(ctx, domain.Selection{Products: []string{"iPhone"}})
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestDashboardService_ConcurrentBuilds(t *testing.T) {
	svc, _ := loadedService(t)

	var wg sync.WaitGroup
	results := make([]*domain.Dashboard, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := svc.Build(context.Background(), domain.Selection{Cities: []string{"Dallas"}})
			assert.NoError(t, err)
			results[i] = d
		}(i)
	}
	wg.Wait()

	for _, d := range results {
		require.NotNil(t, d)
		assert.Equal(t, 2, d.RowCount)
	}
}

func TestDashboardService_BuildCanceled(t *testing.T) {
	svc, _ := loadedService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Build(ctx, domain.Selection{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDashboardService_Rows(t *testing.T) {
	svc, _ := loadedService(t)
	ctx := context.Background()

	page, err := svc.Rows(ctx, domain.Selection{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, int64(2), page.Rows[0].OrderID)
	assert.Equal(t, "11.99", page.Rows[0].PriceEach)
	assert.Equal(t, "35.97", page.Rows[0].Amount)
	assert.Equal(t, "Boston", page.Rows[0].City)
	assert.Equal(t, "Tuesday", page.Rows[0].Day)

	page, err = svc.Rows(ctx, domain.Selection{Products: []string{"AA Batteries (4-pack)"}}, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Nil(t, page.Rows[0].OrderDate)
	assert.Empty(t, page.Rows[0].Month)

	page, err = svc.Rows(ctx, domain.Selection{}, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 5, page.Total)

	_, err = svc.Rows(ctx, domain.Selection{}, -1, 10)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestDashboardService_Reload(t *testing.T) {
	svc, path := loadedService(t)
	ctx := context.Background()

	before, err := svc.DatasetInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, before.Rows)
	assert.Equal(t, "numeric", before.PricePolicy)
	require.Len(t, before.Sources, 1)
	assert.Equal(t, "Sales_April_2019.csv", before.Sources[0].Name)

	cached, err := svc.Build(ctx, domain.Selection{})
	require.NoError(t, err)

	var notified []domain.DatasetInfo
	svc.OnReload(func(info domain.DatasetInfo) { notified = append(notified, info) })
	svc.OnReload(func(domain.DatasetInfo) { panic("listener bug") })

	t.Run("success swaps table and purges cache", func(t *testing.T) {
		writeSource(t, filepath.Dir(path), filepath.Base(path), sampleLines[:2]...)

		info, err := svc.Reload(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, info.Rows)
		assert.NotEqual(t, before.Version, info.Version)
		require.Len(t, notified, 1)
		assert.Equal(t, info.Version, notified[0].Version)

		d, err := svc.Build(ctx, domain.Selection{})
		require.NoError(t, err)
		assert.NotSame(t, cached, d)
		assert.Equal(t, 2, d.RowCount)
	})

	t.Run("failure keeps previous table", func(t *testing.T) {
		current, err := svc.DatasetInfo(ctx)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("Order ID,Product\n1,iPhone\n"), 0o644))

		_, err = svc.Reload(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, dataprocessing.ErrMissingColumn)

		after, err := svc.DatasetInfo(ctx)
		require.NoError(t, err)
		assert.Equal(t, current.Version, after.Version)
		assert.Len(t, notified, 1)
	})

	t.Run("concurrent reload is rejected", func(t *testing.T) {
		svc.reloading.Lock()
		defer svc.reloading.Unlock()

		_, err := svc.Reload(ctx)
		assert.ErrorIs(t, err, ErrReloadInProgress)
	})
}

func TestDashboardService_DigitsPolicy(t *testing.T) {
	path := writeSource(t, t.TempDir(), "Sales_April_2019.csv", sampleLines...)
	svc, err := NewDashboardService(DashboardServiceConfig{
		Files:       []string{path},
		PricePolicy: dataprocessing.PriceDigits,
		Logger:      infrastructure.NewDiscardLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Load(context.Background()))

	info, err := svc.DatasetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "digits", info.PricePolicy)
	// "11.99" twice and "3.84" fail the digits test.
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, 3, info.Cleaning.InvalidPrice)
}

func TestResolveSelection(t *testing.T) {
	svc, _ := loadedService(t)
	table, err := svc.Table()
	require.NoError(t, err)

	resolved := ResolveSelection(table, domain.Selection{Cities: []string{}})

	assert.Equal(t, []string{"iPhone", "Wired Headphones", "AA Batteries (4-pack)"}, resolved.Products)
	assert.NotNil(t, resolved.Cities)
	assert.Empty(t, resolved.Cities)
	assert.Equal(t, []string{"April", "May", dataprocessing.Unknown}, resolved.Months)
}

func TestFormatRevenue(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "$0.00"},
		{"15", "$15.00"},
		{"1459.48", "$1,459.48"},
		{"34492035.97", "$34,492,035.97"},
		{"0.005", "$0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRevenue(decimalFrom(t, tt.amount)))
		})
	}
}
