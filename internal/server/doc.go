// Package server provides the HTTP API of feinstaubalarm watch mode.
//
// This package handles all HTTP concerns:
//
//   - REST API: "/api/readings" and "/api/decision" for the current state
//   - Server-Sent Events: Real-time readings and decisions at "/api/sse"
//   - Operations: "/healthz" and the Prometheus endpoint "/metrics"
//
// Routing uses chi. The server supports graceful shutdown via context
// cancellation, with a 5-second timeout for in-flight requests.
package server
