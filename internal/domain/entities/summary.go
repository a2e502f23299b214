package entities

import "time"

// ScanSummary describes a finished scan run
type ScanSummary struct {
	RowsWritten      int
	MetadataSkipped  int
	ArchivesSkipped  int
	ExplicitModules  int
	AutomaticModules int
	PlainArchives    int
	ToolErrors       int
	WithViolations   int
	Duration         time.Duration
}

// Record counts a written row
func (s *ScanSummary) Record(row ReportRow) {
	s.RowsWritten++
	switch row.Classification.Kind() {
	case ExplicitModule:
		s.ExplicitModules++
	case AutomaticModule:
		s.AutomaticModules++
	default:
		s.PlainArchives++
	}
	if row.Violations.ToolErrored {
		s.ToolErrors++
	}
	if row.Violations.HasViolations() {
		s.WithViolations++
	}
}
