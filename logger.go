package viewtree

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// logger is the package logger. viewtree is single-threaded; SetLogger must
// be called from the same goroutine that mutates trees.
var logger = newLogger(os.Stderr, log.WarnLevel)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix: "viewtree",
		Level:  level,
	})
}

// SetLogger replaces the package logger. Pass nil to restore the default
// stderr logger at warn level. The logger is shared by all stages;
// NewStage adjusts its level when Options.LogLevel or Options.Debug is set.
//
// Levels used:
//   - debug: tree depth/child count diagnostics, load dispatch
//   - warn: ignored assignments (wrong value types, patches without target)
//   - error: resource failures that are also delivered as events
func SetLogger(l *log.Logger) {
	if l == nil {
		l = newLogger(os.Stderr, log.WarnLevel)
	}
	logger = l
}

// Logger returns the current package logger.
func Logger() *log.Logger {
	return logger
}
