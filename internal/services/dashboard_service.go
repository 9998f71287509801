package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"salesdash/internal/config"
	"salesdash/internal/dataprocessing"
	"salesdash/internal/infrastructure"
	"salesdash/pkg/contracts/domain"
)

// Chart captions shown above each dashboard chart.
const (
	ChartWeeklyTrend        = "Weekly Sales Trend for 2019"
	ChartProductPerformance = "Product Sales Performance"
	ChartCityRevenue        = "Revenue by City"
	ChartProductByCity      = "Average Product Sales by City"
)

// Presentation holds the static text of the dashboard page.
type Presentation struct {
	Title  string
	Header string
	Footer string
}

// DashboardServiceConfig configures a DashboardService.
type DashboardServiceConfig struct {
	// Files are the resolved paths of the source CSVs, in concatenation order.
	Files        []string
	PricePolicy  dataprocessing.PricePolicy
	CacheSize    int
	Presentation Presentation
	Metrics      *infrastructure.Metrics
	Logger       *slog.Logger
}

// ReloadListener is notified after every successful reload.
type ReloadListener func(info domain.DatasetInfo)

// DashboardService computes dashboards over the currently loaded dataset.
type DashboardService struct {
	files        []string
	policy       dataprocessing.PricePolicy
	presentation Presentation

	table atomic.Pointer[dataprocessing.Table]
	cache *lru.Cache[string, *domain.Dashboard]
	group singleflight.Group

	reloading sync.Mutex

	mu        sync.RWMutex
	listeners []ReloadListener

	metrics *infrastructure.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewDashboardService creates a service with no dataset loaded. Call Load
// (or SetTable) before serving requests.
func NewDashboardService(cfg DashboardServiceConfig) (*DashboardService, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = config.DefaultCacheSize
	}
	if cfg.PricePolicy == "" {
		cfg.PricePolicy = dataprocessing.PriceNumeric
	}
	if cfg.Presentation.Title == "" {
		cfg.Presentation.Title = config.DefaultTitle
	}
	if cfg.Presentation.Header == "" {
		cfg.Presentation.Header = config.DefaultHeader
	}
	if cfg.Presentation.Footer == "" {
		cfg.Presentation.Footer = config.DefaultFooter
	}
	if cfg.Metrics == nil {
		cfg.Metrics = infrastructure.NewNoopMetrics()
	}

	cache, err := lru.New[string, *domain.Dashboard](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create dashboard cache: %w", err)
	}

	return &DashboardService{
		files:        cfg.Files,
		policy:       cfg.PricePolicy,
		presentation: cfg.Presentation,
		cache:        cache,
		metrics:      cfg.Metrics,
		logger:       infrastructure.WithComponent(cfg.Logger, "dashboard_service"),
		now:          time.Now,
	}, nil
}

// Load builds the dataset from the configured sources. Ingestion errors are
// returned unchanged so callers can abort startup on them.
func (s *DashboardService) Load(ctx context.Context) error {
	_, err := s.Reload(ctx)
	return err
}

// Reload rebuilds the dataset and swaps it in. On failure the previously
// loaded dataset stays in service.
func (s *DashboardService) Reload(ctx context.Context) (*domain.DatasetInfo, error) {
	if !s.reloading.TryLock() {
		return nil, ErrReloadInProgress
	}
	defer s.reloading.Unlock()

	t, err := dataprocessing.BuildTable(ctx, dataprocessing.BuildOptions{
		Files:       s.files,
		PricePolicy: s.policy,
		Logger:      s.logger,
	})
	if err != nil {
		infrastructure.RecordDatasetReload(ctx, s.metrics, 0, err)
		s.logger.ErrorContext(ctx, "dataset reload failed",
			slog.String("error", err.Error()),
			slog.Bool("previous_kept", s.table.Load() != nil))
		return nil, fmt.Errorf("reload dataset: %w", err)
	}

	s.SetTable(t)
	infrastructure.RecordDatasetReload(ctx, s.metrics, t.Len(), nil)

	info := datasetInfo(t)
	s.notify(info)
	return &info, nil
}

// SetTable installs an already built table and drops cached dashboards.
func (s *DashboardService) SetTable(t *dataprocessing.Table) {
	old := s.table.Swap(t)
	s.cache.Purge()

	attrs := []any{slog.String("version", t.Version()), slog.Int("rows", t.Len())}
	if old != nil {
		attrs = append(attrs, slog.String("previous_version", old.Version()))
	}
	s.logger.Info("dataset installed", attrs...)
}

// OnReload registers a listener for successful reloads.
func (s *DashboardService) OnReload(fn ReloadListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *DashboardService) notify(info domain.DatasetInfo) {
	s.mu.RLock()
	listeners := make([]ReloadListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("reload listener panicked", slog.Any("panic", r))
				}
			}()
			fn(info)
		}()
	}
}

// Ready reports whether a dataset is loaded.
func (s *DashboardService) Ready() bool {
	return s.table.Load() != nil
}

// Table returns the loaded table.
func (s *DashboardService) Table() (*dataprocessing.Table, error) {
	t := s.table.Load()
	if t == nil {
		return nil, ErrDatasetNotLoaded
	}
	return t, nil
}

// Options returns the values available for each facet.
func (s *DashboardService) Options(ctx context.Context) (*domain.FilterOptions, error) {
	t, err := s.Table()
	if err != nil {
		return nil, err
	}
	opts := toFilterOptions(t.Options())
	return &opts, nil
}

// ResolveSelection expands nil facets to every observed value of t.
func ResolveSelection(t *dataprocessing.Table, sel domain.Selection) dataprocessing.Selection {
	all := t.Options().All()
	out := dataprocessing.Selection{
		Products: sel.Products,
		Cities:   sel.Cities,
		Months:   sel.Months,
	}
	if out.Products == nil {
		out.Products = all.Products
	}
	if out.Cities == nil {
		out.Cities = all.Cities
	}
	if out.Months == nil {
		out.Months = all.Months
	}
	return out
}

// Build returns the dashboard of sel. Results are cached per dataset
// version; the returned value is shared and must not be modified.
//
// If ctx ends first Build returns ctx.Err(), but the computation still
// completes and is cached for the next caller.
func (s *DashboardService) Build(ctx context.Context, sel domain.Selection) (*domain.Dashboard, error) {
	t, err := s.Table()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx = infrastructure.WithDatasetVersion(ctx, t.Version())
	resolved := ResolveSelection(t, sel)
	key := t.Version() + "|" + resolved.Key()

	if d, ok := s.cache.Get(key); ok {
		s.metrics.DashboardCacheHits.Add(ctx, 1)
		return d, nil
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		// Another flight may have finished between the miss and now.
		if d, ok := s.cache.Get(key); ok {
			return d, nil
		}
		s.metrics.DashboardCacheMisses.Add(ctx, 1)
		d := s.compute(context.WithoutCancel(ctx), t, resolved)
		s.cache.Add(key, d)
		return d, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Dashboard), nil
	}
}

func (s *DashboardService) compute(ctx context.Context, t *dataprocessing.Table, sel dataprocessing.Selection) *domain.Dashboard {
	start := time.Now()
	view := dataprocessing.Filter(t, sel)
	summary := dataprocessing.Aggregate(view)
	d := toDashboard(summary, sel, t)

	d.Title = s.presentation.Title
	d.Header = s.presentation.Header
	d.Footer = s.presentation.Footer
	d.Charts = domain.ChartTitles{
		WeeklyTrend:        ChartWeeklyTrend,
		ProductPerformance: ChartProductPerformance,
		CityRevenue:        ChartCityRevenue,
		ProductByCity:      ChartProductByCity,
	}
	d.GeneratedAt = s.now().UTC()

	elapsed := time.Since(start)
	infrastructure.RecordDashboardBuild(ctx, s.metrics, summary.Rows, elapsed, d.Empty)
	s.logger.DebugContext(ctx, "dashboard computed",
		slog.Int("rows", summary.Rows),
		slog.Bool("empty", d.Empty),
		slog.Duration("duration", elapsed))

	return d
}

// View returns the filtered rows of sel, for exports.
func (s *DashboardService) View(ctx context.Context, sel domain.Selection) (dataprocessing.View, error) {
	t, err := s.Table()
	if err != nil {
		return dataprocessing.View{}, err
	}
	if err := ctx.Err(); err != nil {
		return dataprocessing.View{}, err
	}
	return dataprocessing.Filter(t, ResolveSelection(t, sel)), nil
}

// Rows returns one page of the filtered raw data. A negative limit is
// rejected; the transports cap the page size.
func (s *DashboardService) Rows(ctx context.Context, sel domain.Selection, offset, limit int) (*domain.RowsPage, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset=%d limit=%d", ErrInvalidPage, offset, limit)
	}
	view, err := s.View(ctx, sel)
	if err != nil {
		return nil, err
	}

	page := view.Slice(offset, limit)
	rows := make([]domain.SalesRow, 0, page.Len())
	page.Each(func(r *dataprocessing.Record) bool {
		rows = append(rows, toSalesRow(r))
		return true
	})

	return &domain.RowsPage{
		Rows:   rows,
		Total:  view.Len(),
		Offset: offset,
		Limit:  limit,
	}, nil
}

// DatasetInfo describes the loaded dataset.
func (s *DashboardService) DatasetInfo(ctx context.Context) (*domain.DatasetInfo, error) {
	t, err := s.Table()
	if err != nil {
		return nil, err
	}
	info := datasetInfo(t)
	return &info, nil
}

// SourceFiles returns the configured source paths.
func (s *DashboardService) SourceFiles() []string {
	return append([]string(nil), s.files...)
}
