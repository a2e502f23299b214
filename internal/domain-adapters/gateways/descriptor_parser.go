package gateways

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ochairo/modulescanner/internal/domain/entities"
	"github.com/ochairo/modulescanner/internal/domain/interfaces/gateways"
)

const (
	classMagic       = 0xCAFEBABE
	minModuleMajor   = 53
	accModule        = 0x8000
	moduleAttribute  = "Module"
	mandatedModule   = "java.base"
	sourceDescriptor = ".java"
)

// Constant pool tags
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// ModuleDescriptorParser reads module descriptors from archive entries.
// Entries ending in .java are parsed as source declarations, everything
// else as a compiled class file.
type ModuleDescriptorParser struct{}

// NewModuleDescriptorParser creates a new descriptor parser
func NewModuleDescriptorParser() *ModuleDescriptorParser {
	return &ModuleDescriptorParser{}
}

// Parse decodes the descriptor stored in entryName
func (p *ModuleDescriptorParser) Parse(entryName string, data []byte) (*entities.ModuleDescriptor, error) {
	var (
		descriptor *entities.ModuleDescriptor
		err        error
	)
	if strings.HasSuffix(entryName, sourceDescriptor) {
		descriptor, err = ParseModuleSource(data)
	} else {
		descriptor, err = ParseModuleClass(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", gateways.ErrMalformedDescriptor, entryName, err)
	}
	return descriptor, nil
}

// ParseModuleClass decodes the Module attribute of a module-info.class file
func ParseModuleClass(data []byte) (*entities.ModuleDescriptor, error) {
	r := &classReader{r: bytes.NewReader(data)}

	if magic := r.u4(); magic != classMagic {
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("bad magic number 0x%X", magic)
	}
	r.u2() // minor
	major := r.u2()
	if r.err == nil && major < minModuleMajor {
		return nil, fmt.Errorf("class file version %d does not support modules", major)
	}

	pool, err := r.constantPool()
	if err != nil {
		return nil, err
	}

	if flags := r.u2(); r.err == nil && flags&accModule == 0 {
		return nil, errors.New("ACC_MODULE flag not set")
	}
	r.u2() // this_class
	r.u2() // super_class
	r.skip(int64(r.u2()) * 2)

	// module-info has no fields or methods, but skip them if present
	for range 2 {
		count := r.u2()
		for i := uint16(0); i < count && r.err == nil; i++ {
			r.skip(6)
			r.skipAttributes()
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	attrCount := r.u2()
	for i := uint16(0); i < attrCount && r.err == nil; i++ {
		name, nameErr := pool.utf8(r.u2())
		length := r.u4()
		if r.err != nil {
			break
		}
		if nameErr != nil {
			return nil, nameErr
		}
		if name != moduleAttribute {
			r.skip(int64(length))
			continue
		}
		body := make([]byte, length)
		r.read(body)
		if r.err != nil {
			break
		}
		return parseModuleAttribute(body, pool)
	}
	if r.err != nil {
		return nil, r.err
	}

	return nil, errors.New("module attribute not found")
}

func parseModuleAttribute(body []byte, pool constantPool) (*entities.ModuleDescriptor, error) {
	r := &classReader{r: bytes.NewReader(body)}

	nameIndex := r.u2()
	r.u2() // module_flags
	versionIndex := r.u2()
	requiresCount := r.u2()
	if r.err != nil {
		return nil, r.err
	}

	name, err := pool.moduleName(nameIndex)
	if err != nil {
		return nil, err
	}

	descriptor := &entities.ModuleDescriptor{Name: name}
	if versionIndex != 0 {
		if descriptor.Version, err = pool.utf8(versionIndex); err != nil {
			return nil, err
		}
	}

	for i := uint16(0); i < requiresCount; i++ {
		index := r.u2()
		r.u2() // requires_flags
		r.u2() // requires_version_index
		if r.err != nil {
			return nil, r.err
		}
		required, err := pool.moduleName(index)
		if err != nil {
			return nil, err
		}
		descriptor.Requires = append(descriptor.Requires, required)
	}

	return withMandatedBase(descriptor), nil
}

type constantEntry struct {
	tag   byte
	text  string
	index uint16
}

type constantPool []constantEntry

func (p constantPool) entry(index uint16) (constantEntry, error) {
	if index == 0 || int(index) >= len(p) {
		return constantEntry{}, fmt.Errorf("constant pool index %d out of range", index)
	}
	return p[index], nil
}

func (p constantPool) utf8(index uint16) (string, error) {
	e, err := p.entry(index)
	if err != nil {
		return "", err
	}
	if e.tag != tagUtf8 {
		return "", fmt.Errorf("constant pool entry %d is not Utf8", index)
	}
	return e.text, nil
}

func (p constantPool) moduleName(index uint16) (string, error) {
	e, err := p.entry(index)
	if err != nil {
		return "", err
	}
	if e.tag != tagModule {
		return "", fmt.Errorf("constant pool entry %d is not a Module", index)
	}
	return p.utf8(e.index)
}

// classReader reads big-endian class file data and keeps the first error
type classReader struct {
	r   *bytes.Reader
	err error
}

func (c *classReader) read(buf []byte) {
	if c.err != nil {
		return
	}
	if _, err := io.ReadFull(c.r, buf); err != nil {
		c.err = fmt.Errorf("truncated class file: %w", err)
	}
}

func (c *classReader) u2() uint16 {
	var buf [2]byte
	c.read(buf[:])
	return binary.BigEndian.Uint16(buf[:])
}

func (c *classReader) u4() uint32 {
	var buf [4]byte
	c.read(buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

func (c *classReader) skip(n int64) {
	if c.err != nil || n == 0 {
		return
	}
	if int64(c.r.Len()) < n {
		c.err = fmt.Errorf("truncated class file: %w", io.ErrUnexpectedEOF)
		return
	}
	//nolint:errcheck // Bounds checked above
	c.r.Seek(n, io.SeekCurrent)
}

func (c *classReader) skipAttributes() {
	count := c.u2()
	for i := uint16(0); i < count && c.err == nil; i++ {
		c.u2()
		c.skip(int64(c.u4()))
	}
}

func (c *classReader) constantPool() (constantPool, error) {
	count := c.u2()
	if c.err != nil {
		return nil, c.err
	}

	pool := make(constantPool, count)
	for i := uint16(1); i < count; i++ {
		var tag [1]byte
		c.read(tag[:])
		if c.err != nil {
			return nil, c.err
		}

		entry := constantEntry{tag: tag[0]}
		switch tag[0] {
		case tagUtf8:
			buf := make([]byte, c.u2())
			c.read(buf)
			entry.text = string(buf)
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			entry.index = c.u2()
		case tagMethodHandle:
			c.skip(3)
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			c.skip(4)
		case tagLong, tagDouble:
			c.skip(8)
			pool[i] = entry
			// eight-byte constants take two slots
			i++
			continue
		default:
			return nil, fmt.Errorf("unknown constant pool tag %d at index %d", tag[0], i)
		}
		pool[i] = entry
	}

	return pool, c.err
}

var (
	blockComment     = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment      = regexp.MustCompile(`//[^\n]*`)
	moduleHeader     = regexp.MustCompile(`^\s*(?:@[\w.]+(?:\([^)]*\))?\s*)*(?:open\s+)?module\s+([\w.]+)\s*\{`)
	requiresClause   = regexp.MustCompile(`\brequires\s+((?:(?:transitive|static)\s+)*)([\w.]+)\s*;`)
	javaModuleName   = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*$`)
)

// ParseModuleSource parses a module-info.java declaration. Source
// descriptors carry no version.
func ParseModuleSource(data []byte) (*entities.ModuleDescriptor, error) {
	source := blockComment.ReplaceAllString(string(data), " ")
	source = lineComment.ReplaceAllString(source, "")
	source = stripImports(source)

	header := moduleHeader.FindStringSubmatch(source)
	if header == nil {
		return nil, errors.New("no module declaration")
	}
	if !javaModuleName.MatchString(header[1]) {
		return nil, fmt.Errorf("invalid module name %q", header[1])
	}
	if !strings.Contains(source, "}") {
		return nil, errors.New("unterminated module declaration")
	}

	descriptor := &entities.ModuleDescriptor{Name: header[1]}
	for _, m := range requiresClause.FindAllStringSubmatch(source, -1) {
		descriptor.Requires = append(descriptor.Requires, m[2])
	}

	return withMandatedBase(descriptor), nil
}

func stripImports(source string) string {
	var b strings.Builder
	for _, line := range strings.Split(source, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "import ") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// withMandatedBase adds the implicit java.base dependency
func withMandatedBase(d *entities.ModuleDescriptor) *entities.ModuleDescriptor {
	if d.Name == mandatedModule {
		return d
	}
	for _, r := range d.Requires {
		if r == mandatedModule {
			return d
		}
	}
	d.Requires = append([]string{mandatedModule}, d.Requires...)
	return d
}
