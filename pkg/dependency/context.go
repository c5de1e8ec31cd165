package dependency

import (
	"fmt"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/source"
	"github.com/matzehuels/crateman/pkg/surface"
	"github.com/matzehuels/crateman/pkg/workspace"
)

// Registries looks up alternative registries by name.
type Registries interface {
	RegistryIndex(name string) (string, error)
}

// Context carries the state of one package's dependency resolution. It is
// owned by a single resolution pass and must not be shared.
type Context struct {
	Root       string             // Package root directory
	SourceID   source.ID          // Source of the document being resolved
	Features   *features.Features // Enabled capabilities
	Registries Registries         // Registry name lookup
	Workspace  *workspace.Resolver
	Platform   *Platform // Platform filter of the table being processed
	// Strict turns a declaration without version, path or git into an
	// error instead of a warning.
	Strict bool

	Deps        []*Dependency
	NestedPaths []string
	Warnings    []string
}

func (cx *Context) warn(format string, args ...any) {
	cx.Warnings = append(cx.Warnings, fmt.Sprintf(format, args...))
}

// ResolveTable resolves every declaration of a dependency table, in
// lexicographic name order, and appends the results to cx.Deps.
func (cx *Context) ResolveTable(table surface.DependencyTable, kind Kind) error {
	for _, name := range table.Names() {
		dep, err := cx.Resolve(name, table[name], kind)
		if err != nil {
			return err
		}
		if err := errors.ValidatePackageName(dep.NameInToml(), "dependency name"); err != nil {
			return err
		}
		cx.Deps = append(cx.Deps, dep)
	}
	return nil
}

// CheckSources enforces that each dependency name resolves to a single
// source across every table, whatever order the tables were processed in.
func CheckSources(deps []*Dependency) error {
	seen := make(map[string]source.ID, len(deps))
	for _, d := range deps {
		name := d.NameInToml()
		if prev, ok := seen[name]; ok && prev != d.Source {
			return errors.New(errors.ErrCodeFieldConflict,
				"Dependency '%s' has different source paths depending on the build target. "+
					"Each dependency must have a single canonical source path irrespective of build target.", name)
		}
		seen[name] = d.Source
	}
	return nil
}

// DeprecatedAlias is the warning for a key spelled both with a dash and
// with its legacy underscore alias.
func DeprecatedAlias(newPath, name, kind string) string {
	oldPath := underscore(newPath)
	return fmt.Sprintf("conflicting between `%s` and `%s` in the `%s` %s.\n"+
		"`%s` is ignored and not recommended for use in the future", newPath, oldPath, name, kind, oldPath)
}

func underscore(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] == '-' {
			b[i] = '_'
		}
	}
	return string(b)
}
