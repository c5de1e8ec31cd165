package surface

import "sort"

// DependencySpec is one dependency declaration as written. It is one of
// [SimpleDependency], [*DetailedDependency] or [*WorkspaceDependency].
type DependencySpec interface {
	isDependencySpec()
}

// SimpleDependency is the bare version form: `serde = "1.0"`.
type SimpleDependency string

// DetailedDependency is the table form: `serde = { version = "1.0" }`.
// Pointer fields and nil slices mark keys that were not written.
type DetailedDependency struct {
	Version          *string
	Registry         *string
	RegistryIndex    *string
	Path             *string
	Git              *string
	Branch           *string
	Tag              *string
	Rev              *string
	Features         []string
	Optional         *bool
	DefaultFeatures  *bool
	DefaultFeatures2 *bool // default_features
	Package          *string
	Public           *bool
	Artifact         []string
	Lib              *bool
	Target           *string
}

// WorkspaceDependency is `serde = { workspace = true, ... }`: the base
// declaration lives in the workspace root's [workspace.dependencies].
type WorkspaceDependency struct {
	Features []string
	Optional *bool
}

func (SimpleDependency) isDependencySpec()     {}
func (*DetailedDependency) isDependencySpec()  {}
func (*WorkspaceDependency) isDependencySpec() {}

// Clone returns a deep copy.
func (d *DetailedDependency) Clone() *DetailedDependency {
	c := *d
	if d.Features != nil {
		c.Features = append([]string{}, d.Features...)
	}
	if d.Artifact != nil {
		c.Artifact = append([]string{}, d.Artifact...)
	}
	return &c
}

// VersionSpecified reports whether the declaration carries a version
// requirement.
func VersionSpecified(spec DependencySpec) bool {
	switch s := spec.(type) {
	case SimpleDependency:
		return true
	case *DetailedDependency:
		return s.Version != nil
	default:
		return false
	}
}

// IsOptional reports whether the declaration is marked optional.
func IsOptional(spec DependencySpec) bool {
	switch s := spec.(type) {
	case *DetailedDependency:
		return s.Optional != nil && *s.Optional
	case *WorkspaceDependency:
		return s.Optional != nil && *s.Optional
	default:
		return false
	}
}

// DependencyTable maps the name a dependency is declared under to its
// declaration.
type DependencyTable map[string]DependencySpec

// Names returns the declared names in lexicographic order.
func (t DependencyTable) Names() []string {
	names := make([]string, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
