package http

import (
	"context"

	"salesdash/internal/dataprocessing"
	"salesdash/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations used by the handlers
type DashboardServiceInterface interface {
	Build(ctx context.Context, sel domain.Selection) (*domain.Dashboard, error)
	Options(ctx context.Context) (*domain.FilterOptions, error)
	Rows(ctx context.Context, sel domain.Selection, offset, limit int) (*domain.RowsPage, error)
	View(ctx context.Context, sel domain.Selection) (dataprocessing.View, error)
}

// DatasetServiceInterface defines the dataset lifecycle operations
type DatasetServiceInterface interface {
	DatasetInfo(ctx context.Context) (*domain.DatasetInfo, error)
	Reload(ctx context.Context) (*domain.DatasetInfo, error)
}
