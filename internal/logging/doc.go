// Package logging provides structured logging for multistair runs.
//
// This package wraps Go's log/slog to write JSON lines, one object per log
// call, so a run's trial-by-trial trace can be filtered after the fact.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (session ID, coordinator name)
//   - Size-based log rotation with numbered backups
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/run", "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	runLogger := logger.WithSession(sessionID).WithCoordinator("contrast")
//	runLogger.Debug("trial selected", "trial", 3, "label", "A")
//
// [Logger] satisfies the staircase.Logger interface, so it can be handed
// directly to the coordinator for per-trial debug traces.
package logging
