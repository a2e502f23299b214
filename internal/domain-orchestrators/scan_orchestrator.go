// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/modulescanner/internal/domain/entities"
	"github.com/ochairo/modulescanner/internal/domain/interfaces"
	"github.com/ochairo/modulescanner/internal/domain/interfaces/gateways"
	"github.com/ochairo/modulescanner/internal/domain/interfaces/services"
)

// ScanOrchestrator coordinates the complete repository scan workflow:
// walk, classify, detect violations and emit one report row per artifact
type ScanOrchestrator struct {
	source           gateways.ArtifactSource
	opener           gateways.ArchiveOpener
	modules          services.ModuleService
	logger           interfaces.Logger
	detectViolations bool
	skipExplicit     bool
	workers          int
}

// ScanOrchestratorConfig holds configuration for the orchestrator
type ScanOrchestratorConfig struct {
	DetectViolations bool
	SkipExplicit     bool // explicit modules are not analyzed
	Workers          int  // values above one inspect archives concurrently
}

// NewScanOrchestrator creates a new scan orchestrator
func NewScanOrchestrator(
	source gateways.ArtifactSource,
	opener gateways.ArchiveOpener,
	modules services.ModuleService,
	logger interfaces.Logger,
	config ScanOrchestratorConfig,
) *ScanOrchestrator {
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}

	return &ScanOrchestrator{
		source:           source,
		opener:           opener,
		modules:          modules,
		logger:           interfaces.LoggerOrNoOp(logger),
		detectViolations: config.DetectViolations,
		skipExplicit:     config.SkipExplicit,
		workers:          workers,
	}
}

// inspection is the result for one artifact; a nil row means the archive
// could not be opened
type inspection struct {
	artifact entities.Artifact
	row      *entities.ReportRow
}

// Scan writes the header, then one row per artifact in traversal order.
// The writer is flushed on every exit path.
func (o *ScanOrchestrator) Scan(ctx context.Context, writer gateways.ReportWriter) (summary *entities.ScanSummary, err error) {
	startTime := time.Now()
	summary = &entities.ScanSummary{}

	defer func() {
		if flushErr := writer.Flush(); flushErr != nil && err == nil {
			err = flushErr
		}
		if counter, ok := o.source.(gateways.SkipCounter); ok {
			summary.MetadataSkipped = counter.SkippedMetadata()
		}
		summary.Duration = time.Since(startTime)
	}()

	if err := writer.WriteHeader(); err != nil {
		return summary, err
	}

	o.logger.Info("scan started", interfaces.F("workers", o.workers))

	if o.workers == 1 {
		err = o.scanSequential(ctx, writer, summary)
	} else {
		err = o.scanConcurrent(ctx, writer, summary)
	}
	if err != nil {
		return summary, err
	}

	o.logger.Info("scan finished",
		interfaces.F("rows", summary.RowsWritten),
		interfaces.F("archives_skipped", summary.ArchivesSkipped))
	return summary, nil
}

func (o *ScanOrchestrator) scanSequential(ctx context.Context, writer gateways.ReportWriter, summary *entities.ScanSummary) error {
	for artifact := range o.source.Artifacts(ctx) {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := o.inspect(ctx, artifact)
		if err != nil {
			return err
		}
		if err := o.emit(writer, result, summary); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// scanConcurrent inspects up to o.workers archives at once. Finished
// results wait in pending until every earlier artifact has been written.
func (o *ScanOrchestrator) scanConcurrent(ctx context.Context, writer gateways.ReportWriter, summary *entities.ScanSummary) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	var (
		mu      sync.Mutex
		pending = make(map[int]inspection)
		next    int
	)
	flush := func() error {
		for {
			result, ok := pending[next]
			if !ok {
				return nil
			}
			delete(pending, next)
			next++
			if err := o.emit(writer, result, summary); err != nil {
				return err
			}
		}
	}

	index := 0
	for artifact := range o.source.Artifacts(gctx) {
		if gctx.Err() != nil {
			break
		}
		position := index
		index++

		g.Go(func() error {
			result, err := o.inspect(gctx, artifact)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			pending[position] = result
			return flush()
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// inspect classifies one artifact and runs violation detection. An archive
// that cannot be opened is logged and reported back without a row.
func (o *ScanOrchestrator) inspect(ctx context.Context, artifact entities.Artifact) (inspection, error) {
	result := inspection{artifact: artifact}

	archive, err := o.opener.Open(ctx, artifact.Path)
	if err != nil {
		o.logger.Warn("skipping archive",
			interfaces.F("artifact", artifact.Coordinates()),
			interfaces.F("path", artifact.Path),
			interfaces.Err(err))
		return result, nil
	}
	defer func() {
		if closeErr := archive.Close(); closeErr != nil {
			o.logger.Warn("failed to close archive", interfaces.F("path", artifact.Path), interfaces.Err(closeErr))
		}
	}()

	classification, err := o.modules.Classify(ctx, archive)
	if err != nil {
		return result, fmt.Errorf("failed to classify %s: %w", artifact.Coordinates(), err)
	}

	violations := entities.SkippedReport()
	if o.detectViolations && !(o.skipExplicit && classification.IsExplicit()) {
		violations = o.modules.DetectViolations(ctx, artifact.Path)
	}

	result.row = &entities.ReportRow{
		Artifact:       artifact,
		Classification: classification,
		Violations:     violations,
	}
	return result, nil
}

func (o *ScanOrchestrator) emit(writer gateways.ReportWriter, result inspection, summary *entities.ScanSummary) error {
	if result.row == nil {
		summary.ArchivesSkipped++
		return nil
	}

	if err := writer.WriteRow(*result.row); err != nil {
		return err
	}
	summary.Record(*result.row)

	o.logger.Debug("artifact inspected",
		interfaces.F("artifact", result.artifact.Coordinates()),
		interfaces.F("mode", result.row.Classification.Kind().String()),
		interfaces.F("violations", len(result.row.Violations.Violations)),
		interfaces.F("rows", writer.Rows()))
	return nil
}
