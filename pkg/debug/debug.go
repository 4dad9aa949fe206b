// Package debug provides conditional trace logging for expandable.
//
// Tracing is enabled by setting EXPANDABLE_DEBUG:
//
//	EXPANDABLE_DEBUG=1 expandable -items tasks.yaml
//
// Messages go to stderr with a timestamp. When disabled every function
// returns immediately.
package debug

import (
	"io"
	"log"
	"os"
	"time"
)

const prefix = "[EXPANDABLE_DEBUG] "

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("EXPANDABLE_DEBUG") != "" {
		SetEnabled(true)
	}
}

// Enabled returns whether tracing is on.
func Enabled() bool {
	return enabled
}

// SetEnabled turns tracing on or off at runtime.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects trace output, mainly for tests.
func SetOutput(w io.Writer) {
	if logger == nil {
		logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
		return
	}
	logger.SetOutput(w)
}

// Log writes a printf-style trace message.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogIf writes a trace message only when cond holds.
func LogIf(cond bool, format string, args ...any) {
	if !enabled || !cond {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes how long name took.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// Section writes a separator line.
func Section(name string) {
	if !enabled {
		return
	}
	logger.Printf("=== %s ===", name)
}
