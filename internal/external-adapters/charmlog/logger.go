// Package charmlog adapts charmbracelet/log to the domain Logger interface.
package charmlog

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ochairo/modulescanner/internal/domain/interfaces"
)

// Logger implements interfaces.Logger on top of a charm logger
type Logger struct {
	logger *log.Logger
}

// New creates a logger writing to w at the named level
// (debug, info, warn or error)
func New(w io.Writer, level string) (*Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "modulescanner",
		Level:           lvl,
		ReportTimestamp: true,
	})
	return &Logger{logger: logger}, nil
}

// Debug logs debug-level messages
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	l.logger.Debug(msg, keyvals(fields)...)
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.logger.Info(msg, keyvals(fields)...)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.logger.Warn(msg, keyvals(fields)...)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	l.logger.Error(msg, keyvals(fields)...)
}

func keyvals(fields []interfaces.Field) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}
