package services

import (
	"regexp"
	"strings"

	"github.com/ochairo/modulescanner/internal/domain/entities"
	"github.com/ochairo/modulescanner/internal/domain/interfaces/gateways"
)

// ViolationSeparator is the underline jdeps prints above the replacement table
var ViolationSeparator = strings.Repeat("-", 21)

var lineBreak = regexp.MustCompile(`\r\n|\n|\r`)

// ReduceAnalyzerOutput turns raw analyzer output into a report.
// Any stderr output or a non-zero exit marks the run as errored and discards
// whatever stdout contained.
func ReduceAnalyzerOutput(output *gateways.AnalyzerOutput) entities.ViolationReport {
	if output == nil || output.ExitCode != 0 || output.Stderr != "" {
		return entities.ToolErrorReport()
	}
	return entities.NewViolationReport(ParseViolations(output.Stdout))
}

// ParseViolations returns the non-blank lines following the last separator.
// Output without a separator means no internal API usage was found.
func ParseViolations(stdout string) []string {
	idx := strings.LastIndex(stdout, ViolationSeparator)
	if idx < 0 {
		return []string{}
	}

	violations := []string{}
	for _, line := range lineBreak.Split(stdout[idx+len(ViolationSeparator):], -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		violations = append(violations, line)
	}
	return violations
}
