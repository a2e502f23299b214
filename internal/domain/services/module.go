// Package services implements domain business logic and use cases.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ochairo/modulescanner/internal/domain/entities"
	"github.com/ochairo/modulescanner/internal/domain/interfaces"
	"github.com/ochairo/modulescanner/internal/domain/interfaces/gateways"
	"github.com/ochairo/modulescanner/internal/domain/interfaces/services"
)

const (
	// DescriptorMarker is matched as a substring so that module-info.java,
	// module-info.class and META-INF/versions/N/module-info.class all qualify
	DescriptorMarker = "module-info"

	// AutomaticModuleNameKey is the manifest main attribute of automatic modules
	AutomaticModuleNameKey = "Automatic-Module-Name"
)

// moduleService implements ModuleService
type moduleService struct {
	parser   gateways.DescriptorParser
	analyzer gateways.AnalyzerRunner
	logger   interfaces.Logger
}

// NewModuleService creates a new module service with dependency injection
func NewModuleService(parser gateways.DescriptorParser, analyzer gateways.AnalyzerRunner, logger interfaces.Logger) services.ModuleService {
	return &moduleService{
		parser:   parser,
		analyzer: analyzer,
		logger:   interfaces.LoggerOrNoOp(logger),
	}
}

// Classify determines the module kind of an opened archive
func (s *moduleService) Classify(_ context.Context, archive gateways.Archive) (entities.ModuleClassification, error) {
	descriptor, err := s.readDescriptor(archive)
	if err != nil {
		return entities.ModuleClassification{}, err
	}

	return ClassifySignals(descriptor, s.automaticModuleName(archive)), nil
}

// readDescriptor parses the first entry, in enumeration order, whose name
// contains DescriptorMarker. It returns nil when no such entry exists.
func (s *moduleService) readDescriptor(archive gateways.Archive) (*entities.ModuleDescriptor, error) {
	for _, entry := range archive.Entries() {
		if !strings.Contains(entry, DescriptorMarker) {
			continue
		}

		data, err := archive.ReadEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s in %s: %w", entry, archive.Path(), err)
		}

		descriptor, err := s.parser.Parse(entry, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s in %s: %w", entry, archive.Path(), err)
		}
		return descriptor, nil
	}
	return nil, nil
}

// automaticModuleName returns the manifest attribute, or "" when it is absent
// or the manifest cannot be read
func (s *moduleService) automaticModuleName(archive gateways.Archive) string {
	manifest, err := archive.Manifest()
	if err != nil {
		s.logger.Warn("failed to read manifest",
			interfaces.F("archive", archive.Path()),
			interfaces.Err(err))
		return ""
	}
	return strings.TrimSpace(lookupAttribute(manifest, AutomaticModuleNameKey))
}

// lookupAttribute finds a manifest attribute; names are case-insensitive
func lookupAttribute(manifest map[string]string, key string) string {
	if v, ok := manifest[key]; ok {
		return v
	}
	for k, v := range manifest {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// ClassifySignals reconciles the descriptor and manifest signals.
// A descriptor always wins; the automatic name only counts without one.
// Pure business logic - no I/O
func ClassifySignals(descriptor *entities.ModuleDescriptor, automaticName string) entities.ModuleClassification {
	switch {
	case descriptor != nil:
		return entities.Explicit(*descriptor)
	case automaticName != "":
		return entities.Automatic(automaticName)
	default:
		return entities.NotModular()
	}
}

// DetectViolations runs the analyzer and reduces its output
func (s *moduleService) DetectViolations(ctx context.Context, archivePath string) entities.ViolationReport {
	if s.analyzer == nil {
		return entities.ToolErrorReport()
	}

	output, err := s.analyzer.Run(ctx, archivePath)
	if err != nil {
		if errors.Is(err, gateways.ErrAnalyzerUnavailable) {
			s.logger.Debug("analyzer unavailable", interfaces.F("archive", archivePath))
		} else {
			s.logger.Warn("analyzer invocation failed",
				interfaces.F("archive", archivePath),
				interfaces.Err(err))
		}
		return entities.ToolErrorReport()
	}

	report := ReduceAnalyzerOutput(output)
	if report.ToolErrored {
		s.logger.Debug("analyzer reported an error",
			interfaces.F("archive", archivePath),
			interfaces.F("exit_code", output.ExitCode),
			interfaces.F("stderr", strings.TrimSpace(output.Stderr)))
	}
	return report
}
