package entities

import "strings"

// ModuleKind identifies how an archive participates in the module system
type ModuleKind int

const (
	// NotAModule is a plain archive with neither descriptor nor manifest name
	NotAModule ModuleKind = iota
	// AutomaticModule declares Automatic-Module-Name and has no descriptor
	AutomaticModule
	// ExplicitModule ships a module-info descriptor
	ExplicitModule
)

// String returns the report token for the kind
func (k ModuleKind) String() string {
	switch k {
	case AutomaticModule:
		return "automatic"
	case ExplicitModule:
		return "explicit"
	default:
		return "?"
	}
}

// ModuleDescriptor is the parsed content of a module-info entry
type ModuleDescriptor struct {
	Name     string
	Version  string // empty when the descriptor carries no version
	Requires []string
}

// ModuleClassification is the outcome of inspecting one archive.
// Fields are unexported so the three cases stay consistent: only an explicit
// module has a version or dependencies, and a plain archive has no name.
type ModuleClassification struct {
	kind         ModuleKind
	name         string
	version      string
	dependencies []string
}

// NotModular returns the classification of a plain archive
func NotModular() ModuleClassification {
	return ModuleClassification{kind: NotAModule}
}

// Automatic returns the classification of an automatic module
func Automatic(name string) ModuleClassification {
	return ModuleClassification{kind: AutomaticModule, name: name}
}

// Explicit returns the classification of an archive with a descriptor
func Explicit(d ModuleDescriptor) ModuleClassification {
	deps := make([]string, len(d.Requires))
	copy(deps, d.Requires)
	return ModuleClassification{
		kind:         ExplicitModule,
		name:         d.Name,
		version:      d.Version,
		dependencies: deps,
	}
}

// Kind returns the module kind
func (c ModuleClassification) Kind() ModuleKind { return c.kind }

// IsAutomatic reports whether the archive is an automatic module
func (c ModuleClassification) IsAutomatic() bool { return c.kind == AutomaticModule }

// IsExplicit reports whether the archive is an explicit module
func (c ModuleClassification) IsExplicit() bool { return c.kind == ExplicitModule }

// Name returns the module name, if any
func (c ModuleClassification) Name() (string, bool) {
	return c.name, c.kind != NotAModule && c.name != ""
}

// Version returns the descriptor version, if any
func (c ModuleClassification) Version() (string, bool) {
	return c.version, c.kind == ExplicitModule && c.version != ""
}

// Dependencies returns the required module names in declaration order
func (c ModuleClassification) Dependencies() []string {
	deps := make([]string, len(c.dependencies))
	copy(deps, c.dependencies)
	return deps
}

func (c ModuleClassification) String() string {
	var b strings.Builder
	b.WriteString(c.kind.String())
	if name, ok := c.Name(); ok {
		b.WriteString(" " + name)
	}
	if version, ok := c.Version(); ok {
		b.WriteString("@" + version)
	}
	if len(c.dependencies) > 0 {
		b.WriteString(" requires [" + strings.Join(c.dependencies, ", ") + "]")
	}
	return b.String()
}
