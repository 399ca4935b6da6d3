// Package logging provides structured logging for the inventory node server.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Runtime debug switch (SetDebug), toggled from the host's debug_enable
//     custom parameter
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("cycle complete", "nodes", 42)
//	logger.SetDebug(true)
//	logger.Debug("raw response", "body", string(body))
//
// # Security
//
// Never log the ISY password. Custom parameters are logged with the
// password field redacted.
package logging
