package gateways

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/ochairo/modulescanner/internal/domain/interfaces/gateways"
)

// JarOpener opens JAR archives from a billy filesystem
type JarOpener struct {
	fs billy.Filesystem
}

// NewJarOpener creates a new archive opener over fs
func NewJarOpener(fs billy.Filesystem) *JarOpener {
	return &JarOpener{fs: fs}
}

// Open opens the archive at path
func (o *JarOpener) Open(_ context.Context, path string) (gateways.Archive, error) {
	info, err := o.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("archive path is a directory: %s", path)
	}

	f, err := o.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	reader, err := zip.NewReader(f, info.Size())
	if err != nil {
		//nolint:errcheck // Close on read-only file after failed open
		f.Close()
		return nil, fmt.Errorf("failed to read archive %s: %w", path, err)
	}

	return &jarArchive{path: path, file: f, reader: reader}, nil
}

// jarArchive implements gateways.Archive over a zip reader
type jarArchive struct {
	path     string
	file     billy.File
	reader   *zip.Reader
	manifest map[string]string
}

func (a *jarArchive) Path() string { return a.path }

// Entries lists entry names in central directory order
func (a *jarArchive) Entries() []string {
	names := make([]string, 0, len(a.reader.File))
	for _, f := range a.reader.File {
		names = append(names, f.Name)
	}
	return names
}

// ReadEntry returns the bytes of the first entry named name
func (a *jarArchive) ReadEntry(name string) ([]byte, error) {
	for _, f := range a.reader.File {
		if f.Name == name {
			return readZipFile(f)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", name, a.path)
}

// Manifest returns the main manifest attributes, looking the manifest up
// case-insensitively. Archives without a manifest return an empty map.
func (a *jarArchive) Manifest() (map[string]string, error) {
	if a.manifest != nil {
		return a.manifest, nil
	}

	var entry *zip.File
	for _, f := range a.reader.File {
		if f.Name == ManifestPath {
			entry = f
			break
		}
		if entry == nil && strings.EqualFold(f.Name, ManifestPath) {
			entry = f
		}
	}
	if entry == nil {
		a.manifest = map[string]string{}
		return a.manifest, nil
	}

	data, err := readZipFile(entry)
	if err != nil {
		return nil, err
	}
	attrs, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.path, err)
	}
	a.manifest = attrs
	return attrs, nil
}

// Close releases the underlying file
func (a *jarArchive) Close() error {
	if err := a.file.Close(); err != nil {
		return fmt.Errorf("failed to close archive %s: %w", a.path, err)
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	//nolint:errcheck // Defer close on read-only entry
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", f.Name, err)
	}
	return data, nil
}
