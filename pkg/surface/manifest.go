package surface

// Manifest is the as-written package manifest.
type Manifest struct {
	CargoFeatures []string
	Package       *Package
	Project       *Package // Legacy spelling of [package]
	Profiles      map[string]Profile

	Lib      *Target
	Bins     []Target
	Examples []Target
	Tests    []Target
	Benches  []Target

	Dependencies       DependencyTable
	DevDependencies    DependencyTable
	DevDependencies2   DependencyTable // dev_dependencies
	BuildDependencies  DependencyTable
	BuildDependencies2 DependencyTable // build_dependencies

	Features map[string][]string
	Targets  map[string]Platform // [target.'cfg(...)'] tables
	Replace  DependencyTable
	Patch    map[string]DependencyTable
	Badges   *MaybeInherited[map[string]map[string]string]

	Workspace *Workspace

	sections map[string]bool
}

// Declares reports whether the document contains the named top-level
// section, using its spelling in the document (e.g. "dev_dependencies").
func (m *Manifest) Declares(section string) bool {
	return m.sections[section]
}

// PackageSection returns [package], falling back to the legacy [project].
func (m *Manifest) PackageSection() *Package {
	if m.Package != nil {
		return m.Package
	}
	return m.Project
}

// Package is the [package] section.
type Package struct {
	Name          string
	Version       MaybeInherited[string]
	Edition       *MaybeInherited[string]
	RustVersion   *MaybeInherited[string]
	Authors       *MaybeInherited[[]string]
	Build         *StringOrBool
	Metabuild     []string
	DefaultTarget *string
	ForcedTarget  *string
	Links         *string
	Exclude       *MaybeInherited[[]string]
	Include       *MaybeInherited[[]string]
	Publish       *MaybeInherited[VecStringOrBool]
	Workspace     *string
	ImATeapot     *bool
	Autobins      *bool
	Autoexamples  *bool
	Autotests     *bool
	Autobenches   *bool
	DefaultRun    *string

	Description   *MaybeInherited[string]
	Homepage      *MaybeInherited[string]
	Documentation *MaybeInherited[string]
	Readme        *MaybeInherited[StringOrBool]
	Keywords      *MaybeInherited[[]string]
	Categories    *MaybeInherited[[]string]
	License       *MaybeInherited[string]
	LicenseFile   *MaybeInherited[string]
	Repository    *MaybeInherited[string]
	Resolver      *string

	Metadata any
}

// Workspace is the [workspace] section.
type Workspace struct {
	Members        []string
	DefaultMembers []string
	Exclude        []string
	Resolver       *string
	Package        *WorkspacePackage
	Dependencies   DependencyTable
	Metadata       any
}

// WorkspacePackage is [workspace.package]: the values members may inherit.
// Slices are nil when the key is absent.
type WorkspacePackage struct {
	Version       *string
	Authors       []string
	Description   *string
	Homepage      *string
	Documentation *string
	Readme        *StringOrBool
	Keywords      []string
	Categories    []string
	License       *string
	LicenseFile   *string
	Repository    *string
	Publish       *VecStringOrBool
	Edition       *string
	Badges        map[string]map[string]string
	Exclude       []string
	Include       []string
	RustVersion   *string
}

// Target is a [lib], [[bin]], [[example]], [[test]] or [[bench]] entry.
type Target struct {
	Name             *string
	CrateType        []string
	CrateType2       []string // crate_type
	Path             *string
	Filename         *string
	Test             *bool
	Doctest          *bool
	Bench            *bool
	Doc              *bool
	Plugin           *bool
	ProcMacro        *bool
	ProcMacro2       *bool // proc_macro
	Harness          *bool
	RequiredFeatures []string
	Edition          *string
}

// CrateTypes returns crate-type, falling back to the legacy crate_type.
func (t *Target) CrateTypes() []string {
	if t.CrateType != nil {
		return t.CrateType
	}
	return t.CrateType2
}

// IsProcMacro reports whether the target is declared as a procedural macro.
func (t *Target) IsProcMacro() bool {
	switch {
	case t.ProcMacro != nil:
		return *t.ProcMacro
	case t.ProcMacro2 != nil:
		return *t.ProcMacro2
	}
	for _, ct := range t.CrateTypes() {
		if ct == "proc-macro" {
			return true
		}
	}
	return false
}

// Platform holds the dependency tables of one [target.<platform>] section.
type Platform struct {
	Dependencies       DependencyTable
	BuildDependencies  DependencyTable
	BuildDependencies2 DependencyTable // build_dependencies
	DevDependencies    DependencyTable
	DevDependencies2   DependencyTable // dev_dependencies
}
