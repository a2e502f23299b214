// Package services defines interfaces for domain service contracts.
package services

import (
	"context"

	"github.com/ochairo/modulescanner/internal/domain/entities"
	"github.com/ochairo/modulescanner/internal/domain/interfaces/gateways"
)

// ModuleService defines the module inspection operations
type ModuleService interface {
	// Classify determines the module kind of an opened archive.
	// A descriptor that is present but unparseable is returned as an error.
	Classify(ctx context.Context, archive gateways.Archive) (entities.ModuleClassification, error)

	// DetectViolations runs the internal API analyzer. It never fails;
	// tool problems are reduced to a tool-errored report.
	DetectViolations(ctx context.Context, archivePath string) entities.ViolationReport
}
