package entities

// ReportRow joins one artifact with its inspection results
type ReportRow struct {
	Artifact       Artifact
	Classification ModuleClassification
	Violations     ViolationReport
}
