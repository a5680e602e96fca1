package main

import (
	"os"

	clientcmd "github.com/filedrop-io/courier/internal/cmd/client"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

func main() {
	// Respect COURIER_LOG_LEVEL / COURIER_LOG_FORMAT for all commands.
	level := os.Getenv("COURIER_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	var formatter logpkg.Formatter = &logpkg.TextFormatter{}
	if os.Getenv("COURIER_LOG_FORMAT") == "json" {
		formatter = &logpkg.JSONFormatter{}
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(formatter),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Route standard library logs through our logger.
	logpkg.RedirectStdLog(logger)

	rootCmd := clientcmd.NewRoot(logger)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
