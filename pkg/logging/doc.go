// Package logging configures structured logging for the telemetry daemon
// and CLI on top of log/slog.
//
// All output is JSON on stderr. Every record carries the module name and
// version; debug records also carry their source location.
//
// # Log Levels
//
// Supported levels (case-insensitive): debug, info (default), warn or
// warning, error. The LOG_LEVEL environment variable selects the level
// when no explicit level is given:
//
//	LOG_LEVEL=debug telemd
//
// # Usage
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("telemd", version)
//	    slog.Info("collector started", "interval", interval)
//	}
//
// Explicit level, typically from a CLI flag:
//
//	logging.SetDefaultStructuredLoggerWithLevel("telemctl", version, "warn")
//
// Bridging libraries that want a *log.Logger:
//
//	srv.ErrorLog = logging.NewLogLogger(slog.LevelError, false)
package logging
