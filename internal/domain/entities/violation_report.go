package entities

// ViolationReport is the reduced output of the internal API analyzer
type ViolationReport struct {
	ToolErrored bool
	Violations  []string
	Skipped     bool // detection was intentionally not run
}

// ToolErrorReport is returned when the analyzer is unavailable or reported an error
func ToolErrorReport() ViolationReport {
	return ViolationReport{ToolErrored: true, Violations: []string{}}
}

// SkippedReport is returned when the caller bypasses detection
func SkippedReport() ViolationReport {
	return ViolationReport{Violations: []string{}, Skipped: true}
}

// NewViolationReport wraps a clean analyzer result
func NewViolationReport(violations []string) ViolationReport {
	if violations == nil {
		violations = []string{}
	}
	return ViolationReport{Violations: violations}
}

// HasViolations reports whether any internal API usage was found
func (r ViolationReport) HasViolations() bool {
	return !r.ToolErrored && len(r.Violations) > 0
}
