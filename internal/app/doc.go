// Package app wires the sales dashboard server together: configuration,
// logging, telemetry, the dashboard service, the websocket hub and the
// HTTP router.
//
// # Startup
//
// New performs, in order:
//
//  1. Resolve and create the data, exports and logs directories
//  2. Initialize OpenTelemetry with a per-application Prometheus registry
//  3. Build the dashboard service and load the dataset (fatal on error)
//  4. Start the websocket hub and, when enabled, the source file watcher
//  5. Build the router and the HTTP server
//
// The websocket route is registered ahead of the middleware group so the
// upgrade is never wrapped by timeouts or response recorders.
//
// # Shutdown
//
// Run blocks until SIGINT or SIGTERM, then stops the HTTP server, the
// watcher, the hub and the telemetry providers. Errors are returned to the
// caller; the package never calls os.Exit.
package app
