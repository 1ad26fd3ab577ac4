package logger

import (
	"github.com/charmbracelet/log"
)

// Setup configures the package-level logger and every logger made by New.
// Debug mode logs everything with timestamps; otherwise only warnings and
// errors are shown.
func Setup(debug bool) {
	if debug {
		SetLevel(log.DebugLevel)
		return
	}
	SetLevel(log.WarnLevel)
}

// SetLevel applies level to the package-level logger and every logger made by New.
func SetLevel(level log.Level) {
	timestamps := level == log.DebugLevel
	log.SetLevel(level)
	log.SetReportTimestamp(timestamps)

	mu.Lock()
	defer mu.Unlock()
	for _, l := range derived {
		l.SetLevel(level)
		l.SetReportTimestamp(timestamps)
	}
}

// ParseLevel maps a config level name to a log level, falling back to warn.
func ParseLevel(name string) log.Level {
	level, err := log.ParseLevel(name)
	if err != nil {
		log.Warnf("Unknown log level %q, using warn", name)
		return log.WarnLevel
	}
	return level
}
