package shared

import (
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger configures the process logger. Debug wins over the configured
// level string.
func SetupLogger(level string, debug bool) *log.Logger {
	logLevel := log.InfoLevel
	if parsed, err := log.ParseLevel(level); err == nil {
		logLevel = parsed
	}
	if debug {
		logLevel = log.DebugLevel
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           logLevel,
		ReportTimestamp: true,
	})
}
