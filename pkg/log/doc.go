// Package log provides structured, leveled logging for Courier components.
//
// The logger fronts log/slog through a bridge handler so that standard
// library consumers (and anything redirected via RedirectStdLog) flow
// through the same formatter and outputs as Courier's own log calls.
//
// Example:
//
//	logger := log.NewLogger(
//	    log.WithLevel(log.DebugLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	logger = logger.With(log.Component("spool"))
//	logger.Debug("messages.post", log.Str("room", "general"), log.Int("bytes", 42))
//
// Level and format default from COURIER_LOG_LEVEL and COURIER_LOG_FORMAT
// in the CLI entrypoint; library code receives a Logger by injection and
// never consults the environment.
package log
