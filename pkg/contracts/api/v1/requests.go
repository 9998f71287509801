// Package api contains the request contracts of the sales dashboard HTTP API.
// Version v1 represents the current stable API version.
package api

import (
	"salesdash/pkg/contracts/domain"
)

// Page size limits for the raw data view.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// SelectionRequest is the facet selection sent by a client. An omitted (or
// null) facet selects every value; an empty list selects nothing. A facet
// carries at most 512 values.
type SelectionRequest struct {
	Products []string `json:"products" validate:"omitempty,max=512,dive,facet"`
	Cities   []string `json:"cities" validate:"omitempty,max=512,dive,facet"`
	Months   []string `json:"months" validate:"omitempty,max=512,dive,facet"`
}

// Selection converts the request into the domain selection.
func (r SelectionRequest) Selection() domain.Selection {
	return domain.Selection{
		Products: r.Products,
		Cities:   r.Cities,
		Months:   r.Months,
	}
}

// DashboardRequest represents POST /api/dashboard
type DashboardRequest struct {
	SelectionRequest
}

// RowsRequest represents a request for one page of filtered rows
type RowsRequest struct {
	SelectionRequest
	Offset int `json:"offset" query:"offset" validate:"min=0"`
	Limit  int `json:"limit" query:"limit" validate:"omitempty,min=1,max=1000"`
}

// PageLimit returns the requested limit, or the default when none was given.
func (r RowsRequest) PageLimit() int {
	if r.Limit == 0 {
		return DefaultPageSize
	}
	return r.Limit
}

// ExportRequest represents a request to download the filtered rows
type ExportRequest struct {
	SelectionRequest
	Format string `json:"format" query:"format" validate:"required,oneof=csv xlsx"`
}

// ReloadResponse is returned by POST /api/dataset/reload
type ReloadResponse struct {
	Dataset    domain.DatasetInfo `json:"dataset"`
	DurationMS int64              `json:"duration_ms"`
}
