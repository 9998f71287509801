// Package services implements the application layer of the sales dashboard.
// It sits between the transports (HTTP, websocket, CLI) and the pure
// pipeline in internal/dataprocessing.
//
// # Services
//
//	- DashboardService: owns the loaded dataset, turns a facet selection
//	  into a domain.Dashboard, pages and exports raw rows, and reloads the
//	  dataset from its source files.
//	- HealthService: liveness, readiness probes and build reporting.
//	- DatasetWatcher: reloads the dataset when a source file changes.
//
// # Selections
//
// At this layer a nil facet means "every observed value" and an empty,
// non-nil facet means "nothing". The pipeline itself only knows the latter:
// ResolveSelection expands nil facets against the current options before
// filtering.
//
// # Concurrency
//
// The dataset is immutable once built and is swapped atomically on reload,
// so any number of requests may build dashboards concurrently. Identical
// concurrent requests are collapsed into one computation and results are
// cached per dataset version and canonical selection.
package services
