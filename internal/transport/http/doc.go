// Package http implements the HTTP handlers of the sales dashboard. It is a
// thin layer between the chi router and the dashboard service: handlers
// parse the facet selection, call the service and render JSON, files or
// RFC 7807 problems.
//
// # Routes
//
//	GET  /api/dashboard                 full dashboard for a selection
//	POST /api/dashboard                 same, selection as a JSON body
//	GET  /api/dashboard/options         facet options
//	GET  /api/dashboard/rows            filtered raw rows, paged
//	GET  /api/dashboard/export          filtered rows, ?format=csv|xlsx
//	GET  /api/dashboard/export.csv      filtered rows as CSV
//	GET  /api/dashboard/export.xlsx     filtered rows as XLSX
//	GET  /api/dataset                   build metadata of the loaded dataset
//	POST /api/dataset/reload            rebuild the dataset from its sources
//	GET  /api/health[/ready|/live|/stats]
//	GET  /api/version
//	POST /api/client-log                browser log lines
//
// # Selections
//
// Facets are passed as repeated query parameters:
//
//	/api/dashboard?product=iPhone&product=Google+Phone&month=April
//
// An absent parameter selects every observed value. A parameter present
// with no value ("city=") selects nothing, which yields the empty
// dashboard rather than an error.
//
// # Error Handling
//
// Service errors are mapped to API errors and written as problem details:
//
//	{
//	    "type": "/errors/dataset/not-loaded",
//	    "title": "Service Unavailable",
//	    "status": 503,
//	    "detail": "Sales dataset is not loaded yet",
//	    "instance": "/api/dashboard",
//	    "error_code": "DATASET_NOT_LOADED",
//	    "trace_id": "..."
//	}
package http
