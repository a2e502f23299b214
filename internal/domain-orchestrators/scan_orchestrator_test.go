package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ochairo/modulescanner/internal/domain/entities"
	"github.com/ochairo/modulescanner/internal/domain/interfaces/gateways"
)

// Mock implementations for testing
type mockSource struct {
	artifacts []entities.Artifact
	skipped   int
}

func (m *mockSource) Artifacts(_ context.Context) iter.Seq[entities.Artifact] {
	return func(yield func(entities.Artifact) bool) {
		for _, a := range m.artifacts {
			if !yield(a) {
				return
			}
		}
	}
}

func (m *mockSource) SkippedMetadata() int { return m.skipped }

type mockArchive struct {
	path   string
	closed atomic.Bool
}

func (m *mockArchive) Path() string { return m.path }
func (m *mockArchive) Entries() []string { return nil }
func (m *mockArchive) ReadEntry(_ string) ([]byte, error) { return nil, errors.New("not implemented") }
func (m *mockArchive) Manifest() (map[string]string, error) { return map[string]string{}, nil }
func (m *mockArchive) Close() error {
	m.closed.Store(true)
	return nil
}

type mockOpener struct {
	missing map[string]bool
	mu      sync.Mutex
	opened  []*mockArchive
}

func (m *mockOpener) Open(_ context.Context, path string) (gateways.Archive, error) {
	if m.missing[path] {
		return nil, fmt.Errorf("open %s: file does not exist", path)
	}
	archive := &mockArchive{path: path}
	m.mu.Lock()
	m.opened = append(m.opened, archive)
	m.mu.Unlock()
	return archive, nil
}

type mockModules struct {
	classifications map[string]entities.ModuleClassification
	classifyErr     map[string]error
	delay           map[string]time.Duration
	violations      []string
	detectCalls     atomic.Int32
}

func (m *mockModules) Classify(_ context.Context, archive gateways.Archive) (entities.ModuleClassification, error) {
	if d := m.delay[archive.Path()]; d > 0 {
		time.Sleep(d)
	}
	if err := m.classifyErr[archive.Path()]; err != nil {
		return entities.ModuleClassification{}, err
	}
	if c, ok := m.classifications[archive.Path()]; ok {
		return c, nil
	}
	return entities.NotModular(), nil
}

func (m *mockModules) DetectViolations(_ context.Context, _ string) entities.ViolationReport {
	m.detectCalls.Add(1)
	return entities.NewViolationReport(m.violations)
}

type mockWriter struct {
	header  bool
	rows    []entities.ReportRow
	flushes int
	rowErr  error
}

func (m *mockWriter) WriteHeader() error {
	m.header = true
	return nil
}

func (m *mockWriter) WriteRow(row entities.ReportRow) error {
	if m.rowErr != nil {
		return m.rowErr
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *mockWriter) Rows() int { return len(m.rows) }
func (m *mockWriter) Flush() error {
	m.flushes++
	return nil
}

func artifact(name string) entities.Artifact {
	return entities.Artifact{
		GroupID:    "org.example",
		ArtifactID: name,
		Version:    "1.0",
		Path:       "/repo/org/example/" + name + "/1.0/" + name + "-1.0.jar",
	}
}

func artifactIDs(rows []entities.ReportRow) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Artifact.ArtifactID)
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScanOrchestrator_Scan(t *testing.T) {
	explicit := artifact("explicit")
	automatic := artifact("automatic")
	missing := artifact("missing")
	plain := artifact("plain")

	source := &mockSource{artifacts: []entities.Artifact{explicit, automatic, missing, plain}, skipped: 2}
	opener := &mockOpener{missing: map[string]bool{missing.Path: true}}
	modules := &mockModules{
		classifications: map[string]entities.ModuleClassification{
			explicit.Path:  entities.Explicit(entities.ModuleDescriptor{Name: "org.example.explicit"}),
			automatic.Path: entities.Automatic("org.example.automatic"),
		},
		violations: []string{"sun.misc.Unsafe"},
	}
	writer := &mockWriter{}

	orch := NewScanOrchestrator(source, opener, modules, nil, ScanOrchestratorConfig{
		DetectViolations: true,
		SkipExplicit:     true,
	})

	summary, err := orch.Scan(context.Background(), writer)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if !writer.header {
		t.Error("Scan() should write the header")
	}
	if writer.flushes != 1 {
		t.Errorf("Flush() called %d times, want 1", writer.flushes)
	}
	if got, want := artifactIDs(writer.rows), []string{"explicit", "automatic", "plain"}; !equalStrings(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
	if !writer.rows[0].Violations.Skipped {
		t.Error("explicit module should not be analyzed")
	}
	if !writer.rows[1].Violations.HasViolations() {
		t.Error("automatic module should carry analyzer violations")
	}
	if got := modules.detectCalls.Load(); got != 2 {
		t.Errorf("DetectViolations() called %d times, want 2", got)
	}

	if summary.RowsWritten != 3 || summary.ArchivesSkipped != 1 || summary.MetadataSkipped != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.ExplicitModules != 1 || summary.AutomaticModules != 1 || summary.PlainArchives != 1 {
		t.Errorf("summary module counts = %+v", summary)
	}
	if summary.WithViolations != 2 {
		t.Errorf("summary.WithViolations = %d, want 2", summary.WithViolations)
	}

	for _, a := range opener.opened {
		if !a.closed.Load() {
			t.Errorf("archive %s was not closed", a.path)
		}
	}
}

func TestScanOrchestrator_AnalyzerPolicy(t *testing.T) {
	explicit := artifact("explicit")
	tests := []struct {
		name      string
		config    ScanOrchestratorConfig
		wantCalls int32
	}{
		{name: "skip explicit", config: ScanOrchestratorConfig{DetectViolations: true, SkipExplicit: true}, wantCalls: 0},
		{name: "analyze explicit", config: ScanOrchestratorConfig{DetectViolations: true}, wantCalls: 1},
		{name: "detection disabled", config: ScanOrchestratorConfig{}, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modules := &mockModules{classifications: map[string]entities.ModuleClassification{
				explicit.Path: entities.Explicit(entities.ModuleDescriptor{Name: "x"}),
			}}
			writer := &mockWriter{}
			orch := NewScanOrchestrator(&mockSource{artifacts: []entities.Artifact{explicit}}, &mockOpener{}, modules, nil, tt.config)

			if _, err := orch.Scan(context.Background(), writer); err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if got := modules.detectCalls.Load(); got != tt.wantCalls {
				t.Errorf("DetectViolations() called %d times, want %d", got, tt.wantCalls)
			}
			if tt.wantCalls == 0 && !writer.rows[0].Violations.Skipped {
				t.Error("row should carry a skipped violation report")
			}
		})
	}
}

func TestScanOrchestrator_ClassifyErrorAborts(t *testing.T) {
	first, broken, last := artifact("first"), artifact("broken"), artifact("last")
	errMalformed := errors.New("malformed descriptor")

	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			modules := &mockModules{classifyErr: map[string]error{broken.Path: errMalformed}}
			writer := &mockWriter{}
			orch := NewScanOrchestrator(
				&mockSource{artifacts: []entities.Artifact{first, broken, last}},
				&mockOpener{}, modules, nil,
				ScanOrchestratorConfig{Workers: workers},
			)

			_, err := orch.Scan(context.Background(), writer)
			if !errors.Is(err, errMalformed) {
				t.Fatalf("Scan() error = %v, want %v", err, errMalformed)
			}
			if writer.flushes != 1 {
				t.Errorf("writer should be flushed on failure, got %d flushes", writer.flushes)
			}
			for _, row := range writer.rows {
				if row.Artifact.ArtifactID != "first" {
					t.Errorf("unexpected row for %s after failure", row.Artifact.ArtifactID)
				}
			}
		})
	}
}

func TestScanOrchestrator_WorkersKeepTraversalOrder(t *testing.T) {
	var artifacts []entities.Artifact
	delay := make(map[string]time.Duration)
	var want []string
	for i := range 8 {
		a := artifact(fmt.Sprintf("lib%d", i))
		artifacts = append(artifacts, a)
		// earlier artifacts finish last
		delay[a.Path] = time.Duration(8-i) * 5 * time.Millisecond
		want = append(want, a.ArtifactID)
	}
	missing := artifact("missing")
	artifacts = append(artifacts, missing)

	writer := &mockWriter{}
	orch := NewScanOrchestrator(
		&mockSource{artifacts: artifacts},
		&mockOpener{missing: map[string]bool{missing.Path: true}},
		&mockModules{delay: delay},
		nil,
		ScanOrchestratorConfig{DetectViolations: true, Workers: 4},
	)

	summary, err := orch.Scan(context.Background(), writer)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := artifactIDs(writer.rows); !equalStrings(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
	if summary.RowsWritten != 8 || summary.ArchivesSkipped != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestScanOrchestrator_WriteErrorAborts(t *testing.T) {
	errDisk := errors.New("disk full")
	writer := &mockWriter{rowErr: errDisk}
	orch := NewScanOrchestrator(
		&mockSource{artifacts: []entities.Artifact{artifact("a"), artifact("b")}},
		&mockOpener{}, &mockModules{}, nil, ScanOrchestratorConfig{},
	)

	if _, err := orch.Scan(context.Background(), writer); !errors.Is(err, errDisk) {
		t.Errorf("Scan() error = %v, want %v", err, errDisk)
	}
}

func TestScanOrchestrator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 2} {
		writer := &mockWriter{}
		orch := NewScanOrchestrator(
			&mockSource{artifacts: []entities.Artifact{artifact("a")}},
			&mockOpener{}, &mockModules{}, nil, ScanOrchestratorConfig{Workers: workers},
		)

		if _, err := orch.Scan(ctx, writer); !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: Scan() error = %v, want context.Canceled", workers, err)
		}
		if !writer.header {
			t.Errorf("workers=%d: header should be written before the scan starts", workers)
		}
		if len(writer.rows) != 0 {
			t.Errorf("workers=%d: no rows expected, got %d", workers, len(writer.rows))
		}
	}
}
