// Package middleware provides observability middleware for the inspector.
//
// This package includes:
//   - Prometheus metrics for HTTP requests, client events and frames
//   - OpenTelemetry tracing for HTTP requests
//
// Both are plain func(http.Handler) http.Handler values and plug into a chi
// router with Use.
//
// # Prometheus Metrics
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r.Use(m.Handler)
//
// The inspector also reports WebSocket activity through the same Metrics
// value: RecordEvent, RecordFrames, ClientConnected and ClientDisconnected.
//
// # OpenTelemetry
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/metrics"
//	    }),
//	))
package middleware
