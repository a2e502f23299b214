package gateways

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/ochairo/modulescanner/internal/domain/entities"
	"github.com/ochairo/modulescanner/internal/domain/interfaces"
	"github.com/ochairo/modulescanner/internal/domain/services"
)

const (
	// MetadataFileName is the per-artifact metadata file of a Maven repository
	MetadataFileName = "maven-metadata.xml"

	// ArchiveExtension is the extension of the resolved artifact archive
	ArchiveExtension = "jar"
)

var errStopWalk = errors.New("walk stopped by consumer")

// OutcomeStatus tells what happened to one metadata file
type OutcomeStatus int

const (
	// Resolved metadata yields an artifact newer than the cutoff
	Resolved OutcomeStatus = iota
	// BeforeCutoff metadata was readable but not updated after the cutoff
	BeforeCutoff
	// Skipped metadata could not be read or parsed
	Skipped
)

func (s OutcomeStatus) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case BeforeCutoff:
		return "before-cutoff"
	default:
		return "skipped"
	}
}

// MetadataOutcome is the result of resolving one metadata file
type MetadataOutcome struct {
	MetadataPath string
	Status       OutcomeStatus
	Artifact     entities.Artifact // set unless Status is Skipped
	Reason       error             // set when Status is Skipped
}

// WalkerConfig contains the repository walk settings
type WalkerConfig struct {
	Root     string
	MaxDepth int
	Cutoff   string
}

// RepositoryWalker discovers the latest artifacts of a mirrored Maven repository
type RepositoryWalker struct {
	fs      billy.Filesystem
	config  WalkerConfig
	logger  interfaces.Logger
	skipped atomic.Int64
}

// NewRepositoryWalker creates a walker over fs
func NewRepositoryWalker(fs billy.Filesystem, config WalkerConfig, logger interfaces.Logger) *RepositoryWalker {
	if config.Root == "" {
		config.Root = "."
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = entities.DefaultMaxDepth
	}
	return &RepositoryWalker{
		fs:     fs,
		config: config,
		logger: interfaces.LoggerOrNoOp(logger),
	}
}

// Artifacts lazily yields the artifacts updated after the cutoff.
// Traversal order follows the filesystem's directory listing.
func (w *RepositoryWalker) Artifacts(ctx context.Context) iter.Seq[entities.Artifact] {
	return func(yield func(entities.Artifact) bool) {
		for outcome := range w.Outcomes(ctx) {
			switch outcome.Status {
			case Skipped:
				w.skipped.Add(1)
				w.logger.Warn("could not process metadata",
					interfaces.F("path", outcome.MetadataPath),
					interfaces.Err(outcome.Reason))
			case BeforeCutoff:
				w.logger.Debug("artifact not updated after cutoff",
					interfaces.F("artifact", outcome.Artifact.Coordinates()),
					interfaces.F("cutoff", w.config.Cutoff))
			case Resolved:
				if !yield(outcome.Artifact) {
					return
				}
			}
		}
	}
}

// SkippedMetadata returns how many metadata files Artifacts has skipped
// since the walker was created
func (w *RepositoryWalker) SkippedMetadata() int {
	return int(w.skipped.Load())
}

// Outcomes lazily yields one outcome per discovered metadata file.
// Unreadable subtrees are logged and skipped; a root that cannot be walked
// yields nothing.
func (w *RepositoryWalker) Outcomes(ctx context.Context) iter.Seq[MetadataOutcome] {
	return func(yield func(MetadataOutcome) bool) {
		root := filepath.Clean(w.config.Root)

		err := util.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if path == root {
					return err
				}
				w.logger.Warn("skipping unreadable path", interfaces.F("path", path), interfaces.Err(err))
				return nil
			}

			depth := w.depth(root, path)
			if info.IsDir() {
				if depth >= w.config.MaxDepth {
					return filepath.SkipDir
				}
				return nil
			}
			if info.Name() != MetadataFileName || depth > w.config.MaxDepth {
				return nil
			}

			if !yield(w.resolve(path)) {
				return errStopWalk
			}
			return nil
		})

		switch {
		case err == nil, errors.Is(err, errStopWalk):
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			w.logger.Warn("repository walk interrupted", interfaces.Err(err))
		default:
			w.logger.Error("repository walk failed",
				interfaces.F("root", w.config.Root),
				interfaces.Err(err))
		}
	}
}

// resolve turns one metadata file into an outcome
func (w *RepositoryWalker) resolve(metadataPath string) MetadataOutcome {
	outcome := MetadataOutcome{MetadataPath: metadataPath, Status: Skipped}

	data, err := util.ReadFile(w.fs, metadataPath)
	if err != nil {
		outcome.Reason = fmt.Errorf("failed to read metadata: %w", err)
		return outcome
	}

	record, err := services.ExtractMetadata(services.SplitLines(string(data)))
	if err != nil {
		outcome.Reason = fmt.Errorf("failed to extract metadata: %w", err)
		return outcome
	}

	outcome.Artifact = entities.Artifact{
		GroupID:    record.GroupID,
		ArtifactID: record.ArtifactID,
		Version:    record.Latest,
		Path:       LatestArchivePath(metadataPath, record),
	}
	if record.UpdatedAfter(w.config.Cutoff) {
		outcome.Status = Resolved
	} else {
		outcome.Status = BeforeCutoff
	}
	return outcome
}

// depth returns the number of path elements below root
func (w *RepositoryWalker) depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// LatestArchivePath locates the archive of the latest version next to its
// metadata file: <dir>/<latest>/<artifactId>-<latest>.jar
func LatestArchivePath(metadataPath string, record entities.MetadataRecord) string {
	fileName := fmt.Sprintf("%s-%s.%s", record.ArtifactID, record.Latest, ArchiveExtension)
	return filepath.Join(filepath.Dir(metadataPath), record.Latest, fileName)
}
