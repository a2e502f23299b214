package gateways

import "context"

// Archive is an opened zip-like container
type Archive interface {
	// Path returns the location the archive was opened from
	Path() string

	// Entries lists entry names in the archive's enumeration order
	Entries() []string

	// ReadEntry returns the bytes of the named entry
	ReadEntry(name string) ([]byte, error)

	// Manifest returns the main attributes of the JAR manifest.
	// A missing manifest yields an empty map and no error.
	Manifest() (map[string]string, error)

	Close() error
}

// ArchiveOpener opens archives located by artifact paths
type ArchiveOpener interface {
	Open(ctx context.Context, path string) (Archive, error)
}
