package gateways

import (
	"errors"

	"github.com/ochairo/modulescanner/internal/domain/entities"
)

// ErrMalformedDescriptor marks a module-info entry that could not be decoded
var ErrMalformedDescriptor = errors.New("malformed module descriptor")

// DescriptorParser turns a module-info entry into a descriptor
type DescriptorParser interface {
	// Parse decodes data read from the archive entry named entryName.
	// Malformed input returns an error wrapping ErrMalformedDescriptor.
	Parse(entryName string, data []byte) (*entities.ModuleDescriptor, error)
}
