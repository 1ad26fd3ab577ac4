// Package logger provides modifications to charmbracelet/log's default logger to be used in various files/packages.
//
// Every logger writes to stderr: stdout belongs to the IPC stream in server mode.
package logger

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.Mutex
	derived []*log.Logger
)

// New creates a prefixed charm log. It follows later Setup calls, so
// package-level loggers can be built at init time.
func New(prefix string) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: log.GetLevel() == log.DebugLevel,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
	mu.Lock()
	derived = append(derived, l)
	mu.Unlock()
	return l
}

// NewWithConfig creates a new charm log with custom config
func NewWithConfig(prefix string, level log.Level, caller bool, showTimestamp bool, fmt log.Formatter) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    caller,
		ReportTimestamp: showTimestamp,
		Formatter:       fmt,
	})
}
