// Package csvreport writes scan results as delimiter-separated text.
package csvreport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ochairo/modulescanner/internal/domain/entities"
)

const (
	// Placeholder replaces null or blank values
	Placeholder = "-"
	// ValueSeparator joins multi-valued columns
	ValueSeparator = " + "
)

// Column binds a header name to the value it renders, so header and rows
// always share order and count
type Column struct {
	Name  string
	Value func(entities.ReportRow) string
}

var moduleColumns = []Column{
	{Name: "groupId", Value: func(r entities.ReportRow) string { return r.Artifact.GroupID }},
	{Name: "artifactId", Value: func(r entities.ReportRow) string { return r.Artifact.ArtifactID }},
	{Name: "version", Value: func(r entities.ReportRow) string { return r.Artifact.Version }},
	{Name: "moduleName", Value: func(r entities.ReportRow) string {
		name, _ := r.Classification.Name()
		return name
	}},
	{Name: "moduleVersion", Value: func(r entities.ReportRow) string {
		version, _ := r.Classification.Version()
		return version
	}},
	{Name: "moduleMode", Value: func(r entities.ReportRow) string { return r.Classification.Kind().String() }},
	{Name: "moduleDependencies", Value: func(r entities.ReportRow) string {
		return strings.Join(r.Classification.Dependencies(), ValueSeparator)
	}},
}

var violationColumns = []Column{
	{Name: "jdepsToolError", Value: func(r entities.ReportRow) string { return strconv.FormatBool(r.Violations.ToolErrored) }},
	{Name: "jdepsViolations", Value: func(r entities.ReportRow) string {
		return strings.Join(r.Violations.Violations, ValueSeparator)
	}},
}

// Columns returns the report schema. The analyzer columns are left out
// when violation detection is disabled.
func Columns(includeViolations bool) []Column {
	columns := append([]Column{}, moduleColumns...)
	if includeViolations {
		columns = append(columns, violationColumns...)
	}
	return columns
}

// ReportWriter renders report rows through a column schema
type ReportWriter struct {
	out     *csv.Writer
	columns []Column
	rows    int
}

// NewReportWriter creates a writer using a single-character delimiter
func NewReportWriter(w io.Writer, delimiter string, includeViolations bool) (*ReportWriter, error) {
	comma, size := utf8.DecodeRuneInString(delimiter)
	if comma == utf8.RuneError || size != len(delimiter) {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
	}

	out := csv.NewWriter(w)
	out.Comma = comma
	if !validDelimiter(out) {
		return nil, fmt.Errorf("invalid delimiter %q", delimiter)
	}

	return &ReportWriter{out: out, columns: Columns(includeViolations)}, nil
}

// validDelimiter mirrors the checks encoding/csv applies on write
func validDelimiter(w *csv.Writer) bool {
	c := w.Comma
	return c != 0 && c != '"' && c != '\r' && c != '\n' && c != utf8.RuneError
}

// WriteHeader writes the column names
func (w *ReportWriter) WriteHeader() error {
	header := make([]string, len(w.columns))
	for i, c := range w.columns {
		header[i] = c.Name
	}
	if err := w.out.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// WriteRow renders one row; blank values become the placeholder
func (w *ReportWriter) WriteRow(row entities.ReportRow) error {
	record := make([]string, len(w.columns))
	for i, c := range w.columns {
		record[i] = orPlaceholder(c.Value(row))
	}
	if err := w.out.Write(record); err != nil {
		return fmt.Errorf("failed to write row for %s: %w", row.Artifact, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written
func (w *ReportWriter) Rows() int {
	return w.rows
}

// Flush writes buffered data to the underlying writer
func (w *ReportWriter) Flush() error {
	w.out.Flush()
	if err := w.out.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return Placeholder
	}
	return value
}
