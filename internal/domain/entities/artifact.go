// Package entities defines core domain models and data structures.
package entities

import "fmt"

// Artifact represents the latest release of a mirrored Maven artifact
type Artifact struct {
	GroupID    string
	ArtifactID string
	Version    string
	Path       string // archive location relative to the scanned filesystem
}

// Coordinates returns the groupId:artifactId:version identity of the artifact
func (a Artifact) Coordinates() string {
	return fmt.Sprintf("%s:%s:%s", a.GroupID, a.ArtifactID, a.Version)
}

func (a Artifact) String() string {
	return fmt.Sprintf("%s (%s)", a.Coordinates(), a.Path)
}
