// Package cli implements telemctl, the command line client of the telemd
// daemon.
//
// # Commands
//
//	telemctl devices
//	telemctl stats <device-id> [--session N]
//	telemctl metrics <device-id>
//	telemctl reset <device-id> [--session N] [--family device|engine|fabric]
//	telemctl engines stats|utilization <device-id>
//	telemctl fabric stats|throughput|links <device-id>
//	telemctl history <device-id> --type power [--since 15m] [--limit N]
//	telemctl export <device-id> --type power --file power.parquet
//	telemctl chart <device-id> --type power --type temperature --file history.html
//	telemctl token --secret S [--issuer I] [--ttl 1h]
//
// # Global Flags
//
//	--server       telemd base URL (env TELEM_SERVER, default http://localhost:8080)
//	--token        bearer token (env TELEM_TOKEN)
//	--insecure     skip TLS verification
//	--log-level    debug, info, warn, error (env LOG_LEVEL)
//
// Report commands accept --output/-o (file path or cm://namespace/name,
// stdout by default) and --format/-t (yaml, json, table).
//
// # Exit Codes
//
//	0  Success
//	1  Any error; daemon errors print their result code, e.g.
//	   [DEVICE_NOT_FOUND] device "7" not found
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/fleet-telemetry/pkg/cli.version=1.0.0'"
package cli
