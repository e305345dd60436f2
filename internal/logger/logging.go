// Package logger builds charmbracelet/log loggers with a shared look.
// Everything goes to stderr so stdout stays free for the IPC stream.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a timestamped logger for a long running component.
func New(prefix string) *log.Logger {
	return NewWithConfig(prefix, log.GetLevel(), false, true, log.TextFormatter)
}

// Default creates a plain logger that follows the global level.
func Default(prefix string) *log.Logger {
	return NewWithConfig(prefix, log.GetLevel(), false, false, log.TextFormatter)
}

// NewWithConfig creates a new charm log with custom config
func NewWithConfig(prefix string, level log.Level, caller bool, showTimestamp bool, fmt log.Formatter) *log.Logger {
	return NewTo(os.Stderr, prefix, level, caller, showTimestamp, fmt)
}

// NewTo is NewWithConfig with an explicit destination.
func NewTo(w io.Writer, prefix string, level log.Level, caller bool, showTimestamp bool, fmt log.Formatter) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    caller,
		ReportTimestamp: showTimestamp,
		Formatter:       fmt,
	})
}

// Setup points the global logger at stderr and applies level and format.
// Unknown levels fall back to info.
func Setup(level string, jsonOutput bool) {
	log.SetOutput(os.Stderr)
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	if jsonOutput {
		log.SetFormatter(log.JSONFormatter)
	}
}
