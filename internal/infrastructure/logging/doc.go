// Package logging provides structured logging for dbaccess.
//
// Two loggers live here:
//
//   - Logger wraps Go's log/slog package for process-level, structured
//     logs (JSON for production, text for development).
//   - FileSink writes channelized diagnostic files, one directory per day,
//     for records such as slow queries and reconnect notices.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//	  file:
//	    path: "/var/log/dbaccess"
//	    level: "info"
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("database connected", "driver", "mysql")
//
//	sink := logging.NewFileSink(cfg.Logging.File)
//	_ = sink.Write(logging.SeverityWarning, record, "db-slow.log")
//
// # Security
//
// Never log passwords or tokens. Slow-query records include bound
// parameters; avoid enabling the file sink where parameters carry secrets.
package logging
