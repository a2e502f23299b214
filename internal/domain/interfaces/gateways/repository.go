package gateways

import (
	"context"
	"iter"

	"github.com/ochairo/modulescanner/internal/domain/entities"
)

// ArtifactSource yields the artifacts selected for inspection
type ArtifactSource interface {
	Artifacts(ctx context.Context) iter.Seq[entities.Artifact]
}

// SkipCounter is implemented by sources that drop unreadable metadata
type SkipCounter interface {
	SkippedMetadata() int
}
