package gateways

import (
	"context"
	"errors"
)

// ErrAnalyzerUnavailable is returned when the analyzer cannot be resolved
var ErrAnalyzerUnavailable = errors.New("internal API analyzer not available")

// AnalyzerOutput is the raw result of one analyzer invocation
type AnalyzerOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// AnalyzerRunner runs the internal API analyzer against one archive.
// Implementations return ErrAnalyzerUnavailable when the tool is missing.
type AnalyzerRunner interface {
	Run(ctx context.Context, archivePath string) (*AnalyzerOutput, error)
}
