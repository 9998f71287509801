package config

import "time"

// Application constants
const (
	// Dashboard text
	DefaultTitle  = "Electronics Gadget Sales Dashboard"
	DefaultHeader = "Electronics Gadget Sales Analysis"
	DefaultFooter = "Data Source: Blord Group Electronics Gadget Sales 2019"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// WebSocket
	WebSocketPingPeriod      = 54 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// File Paths (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultExportsDir = "exports"
	DefaultLogsDir    = "logs"
	DefaultWebDir     = "web"

	// Dataset
	DefaultCacheSize     = 256
	DefaultWatchDebounce = 2 * time.Second
	DefaultRowsPageSize  = 100
	MaxRowsPageSize      = 1000

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Endpoints
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)

// DefaultSourceFiles returns the twelve monthly extracts in the order they
// are concatenated.
func DefaultSourceFiles() []string {
	return []string{
		"Sales_April_2019.csv",
		"Sales_August_2019.csv",
		"Sales_December_2019.csv",
		"Sales_February_2019.csv",
		"Sales_January_2019.csv",
		"Sales_July_2019.csv",
		"Sales_June_2019.csv",
		"Sales_March_2019.csv",
		"Sales_May_2019.csv",
		"Sales_November_2019.csv",
		"Sales_October_2019.csv",
		"Sales_September_2019.csv",
	}
}
