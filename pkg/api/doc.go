// Package api assembles and runs the telemetry daemon.
//
// Serve is the entry point used by cmd/telemd:
//
//	func main() {
//	    if err := api.Serve(); err != nil {
//	        log.Fatalf("server error: %v", err)
//	    }
//	}
//
// # Architecture
//
// New wires the components from a config.Config:
//   - device inventory (file, URL or cm://namespace/name)
//   - handler manager aggregating every collected sample set
//   - sqlite history store when persistence.dsn is set
//   - one replay source per configured sample script, driven by the
//     collector runner
//   - query service and its HTTP handlers
//   - websocket hub and publisher at GET /v1/stream
//   - Prometheus exporter of latest device metrics on GET /metrics
//
// The pkg/server package handles middleware (request ids, auth, rate
// limiting, logging, metrics, panic recovery), health endpoints and
// graceful shutdown.
//
// # Endpoints
//
// Application endpoints (with rate limiting and optional bearer auth):
//   - GET  /v1/devices
//   - GET  /v1/devices/{id}/statistics?session=N
//   - POST /v1/devices/{id}/statistics/reset?session=N&family=device|engine|fabric
//   - GET  /v1/devices/{id}/metrics
//   - GET  /v1/devices/{id}/engines/statistics?session=N
//   - GET  /v1/devices/{id}/engines/utilization
//   - GET  /v1/devices/{id}/fabric/statistics?session=N
//   - GET  /v1/devices/{id}/fabric/throughput
//   - GET  /v1/devices/{id}/fabric/links
//   - GET  /v1/devices/{id}/history?type=power&since=15m&limit=100
//   - GET  /v1/stream
//
// System endpoints (no rate limiting):
//   - GET /health  - Health check (liveness probe)
//   - GET /ready   - Readiness check
//   - GET /metrics - Prometheus metrics
//
// # Configuration
//
// The config file path comes from TELEM_CONFIG; TELEM_* variables
// override individual settings and a .env file in the working directory
// is honoured. PORT sets the listen port.
package api
