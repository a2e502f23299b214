package gateways

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/modulescanner/internal/domain/entities"
	"github.com/ochairo/modulescanner/internal/domain/services"
)

const testRepoRoot = "/repo"

func metadataXML(groupID, artifactID, latest, lastUpdated string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>%s</groupId>
  <artifactId>%s</artifactId>
  <versioning>
    <latest>%s</latest>
    <release>%s</release>
    <lastUpdated>%s</lastUpdated>
  </versioning>
</metadata>
`, groupID, artifactID, latest, latest, lastUpdated)
}

func writeMetadata(t *testing.T, fs billy.Filesystem, groupID, artifactID, latest, lastUpdated string) string {
	t.Helper()
	dir := filepath.Join(testRepoRoot, strings.ReplaceAll(groupID, ".", "/"), artifactID)
	path := filepath.Join(dir, MetadataFileName)
	require.NoError(t, util.WriteFile(fs, path, []byte(metadataXML(groupID, artifactID, latest, lastUpdated)), 0o644))
	return path
}

func newTestRepo(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	writeMetadata(t, fs, "org.slf4j", "slf4j-api", "1.8.0-beta2", "20180320212426")
	writeMetadata(t, fs, "com.fasterxml.jackson.core", "jackson-core", "2.9.6", "20180612021716")
	writeMetadata(t, fs, "commons-lang", "commons-lang", "2.6", "20110117100000")
	return fs
}

func collect(seq func(func(entities.Artifact) bool)) []entities.Artifact {
	var out []entities.Artifact
	for a := range seq {
		out = append(out, a)
	}
	return out
}

func TestRepositoryWalker_Artifacts(t *testing.T) {
	walker := NewRepositoryWalker(newTestRepo(t), WalkerConfig{
		Root:   testRepoRoot,
		Cutoff: entities.DefaultCutoff,
	}, nil)

	artifacts := collect(walker.Artifacts(context.Background()))
	require.Len(t, artifacts, 2)

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		paths = append(paths, a.Path)
	}
	assert.Contains(t, paths, "/repo/org/slf4j/slf4j-api/1.8.0-beta2/slf4j-api-1.8.0-beta2.jar")
	assert.Contains(t, paths, "/repo/com/fasterxml/jackson/core/jackson-core/2.9.6/jackson-core-2.9.6.jar")

	idx := slices.IndexFunc(artifacts, func(a entities.Artifact) bool { return a.ArtifactID == "slf4j-api" })
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, entities.Artifact{
		GroupID:    "org.slf4j",
		ArtifactID: "slf4j-api",
		Version:    "1.8.0-beta2",
		Path:       "/repo/org/slf4j/slf4j-api/1.8.0-beta2/slf4j-api-1.8.0-beta2.jar",
	}, artifacts[idx])
}

func TestRepositoryWalker_Cutoff(t *testing.T) {
	tests := []struct {
		cutoff string
		want   int
	}{
		{cutoff: "20100101000000", want: 3},
		{cutoff: "20170101000000", want: 2},
		{cutoff: "20180501000000", want: 1},
		{cutoff: "20180612021716", want: 0}, // equal is excluded
	}

	for _, tt := range tests {
		t.Run(tt.cutoff, func(t *testing.T) {
			walker := NewRepositoryWalker(newTestRepo(t), WalkerConfig{Root: testRepoRoot, Cutoff: tt.cutoff}, nil)
			assert.Len(t, collect(walker.Artifacts(context.Background())), tt.want)
		})
	}
}

func TestRepositoryWalker_SkipsBadMetadata(t *testing.T) {
	fs := newTestRepo(t)
	broken := filepath.Join(testRepoRoot, "broken", "thing", MetadataFileName)
	require.NoError(t, util.WriteFile(fs, broken, []byte("<metadata><groupId>broken</groupId>\n<latest>1.0\n</latest>"), 0o644))
	// same basename check: these must be ignored entirely
	require.NoError(t, util.WriteFile(fs, filepath.Join(testRepoRoot, "x", "maven-metadata.xml.sha1"), []byte("abc"), 0o644))
	require.NoError(t, util.WriteFile(fs, filepath.Join(testRepoRoot, "y", "maven-metadata-central.xml"), []byte("<latest>9</latest>"), 0o644))

	walker := NewRepositoryWalker(fs, WalkerConfig{Root: testRepoRoot, Cutoff: entities.DefaultCutoff}, nil)

	var statuses []OutcomeStatus
	var skipped []MetadataOutcome
	for outcome := range walker.Outcomes(context.Background()) {
		statuses = append(statuses, outcome.Status)
		if outcome.Status == Skipped {
			skipped = append(skipped, outcome)
		}
	}

	assert.Len(t, statuses, 4)
	require.Len(t, skipped, 1)
	assert.Equal(t, broken, skipped[0].MetadataPath)
	assert.ErrorIs(t, skipped[0].Reason, services.ErrTagNotFound)

	assert.Len(t, collect(walker.Artifacts(context.Background())), 2)
	assert.Equal(t, 1, walker.SkippedMetadata())
}

func TestRepositoryWalker_MissingRoot(t *testing.T) {
	walker := NewRepositoryWalker(memfs.New(), WalkerConfig{Root: "/does/not/exist", Cutoff: entities.DefaultCutoff}, nil)
	assert.Empty(t, collect(walker.Artifacts(context.Background())))
}

func TestRepositoryWalker_MaxDepth(t *testing.T) {
	fs := memfs.New()
	// /repo/a/b/maven-metadata.xml sits at depth 3
	require.NoError(t, util.WriteFile(fs, "/repo/a/b/"+MetadataFileName,
		[]byte(metadataXML("a", "b", "1.0", "20200101000000")), 0o644))

	shallow := NewRepositoryWalker(fs, WalkerConfig{Root: testRepoRoot, MaxDepth: 2, Cutoff: entities.DefaultCutoff}, nil)
	assert.Empty(t, collect(shallow.Artifacts(context.Background())))

	exact := NewRepositoryWalker(fs, WalkerConfig{Root: testRepoRoot, MaxDepth: 3, Cutoff: entities.DefaultCutoff}, nil)
	assert.Len(t, collect(exact.Artifacts(context.Background())), 1)
}

func TestRepositoryWalker_StopsEarly(t *testing.T) {
	walker := NewRepositoryWalker(newTestRepo(t), WalkerConfig{Root: testRepoRoot, Cutoff: "20100101000000"}, nil)

	count := 0
	for range walker.Artifacts(context.Background()) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestRepositoryWalker_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	walker := NewRepositoryWalker(newTestRepo(t), WalkerConfig{Root: testRepoRoot, Cutoff: entities.DefaultCutoff}, nil)
	assert.Empty(t, collect(walker.Artifacts(ctx)))
}

func TestLatestArchivePath(t *testing.T) {
	got := LatestArchivePath("/m2/org/slf4j/slf4j-api/maven-metadata.xml", entities.MetadataRecord{
		ArtifactID: "slf4j-api",
		Latest:     "1.8.0-beta2",
	})
	assert.Equal(t, "/m2/org/slf4j/slf4j-api/1.8.0-beta2/slf4j-api-1.8.0-beta2.jar", got)
}
