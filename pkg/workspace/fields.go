package workspace

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/surface"
)

// InheritableFields are the values a workspace root offers its members:
// [workspace.package] plus [workspace.dependencies], keyed to the root
// directory.
type InheritableFields struct {
	pkg  surface.WorkspacePackage
	deps surface.DependencyTable
	root string
}

// NewInheritableFields builds the fields of the workspace rooted at dir.
// Workspace dependencies may be neither optional nor themselves inherited.
func NewInheritableFields(ws *surface.Workspace, dir string) (*InheritableFields, error) {
	f := &InheritableFields{root: dir}
	if ws == nil {
		return f, nil
	}
	if ws.Package != nil {
		f.pkg = *ws.Package
	}
	if err := ValidateDependencies(ws.Dependencies); err != nil {
		return nil, err
	}
	f.deps = ws.Dependencies
	return f, nil
}

// ValidateDependencies checks a [workspace.dependencies] table.
func ValidateDependencies(deps surface.DependencyTable) error {
	for _, name := range deps.Names() {
		spec := deps[name]
		if surface.IsOptional(spec) {
			return errors.New(errors.ErrCodeInvalidManifest,
				"%s is optional, but workspace dependencies cannot be optional", name)
		}
		if _, ok := spec.(*surface.WorkspaceDependency); ok {
			return errors.New(errors.ErrCodeInvalidManifest,
				"%s was specified as `workspace.dependencies.%s.workspace = true`, but "+
					"workspace dependencies cannot specify `workspace = true`", name, name)
		}
	}
	return nil
}

// Root returns the workspace root directory.
func (f *InheritableFields) Root() string { return f.root }

func notDefined(field string) error {
	return errors.New(errors.ErrCodeInheritance, "`workspace.package.%s` was not defined", field)
}

func str(v *string, field string) (string, error) {
	if v == nil {
		return "", notDefined(field)
	}
	return *v, nil
}

func list(v []string, field string) ([]string, error) {
	if v == nil {
		return nil, notDefined(field)
	}
	return append([]string(nil), v...), nil
}

// The accessors below return one [workspace.package] field each, or an
// INHERITANCE error when the root does not define it.

// Version returns the inherited package version.
func (f *InheritableFields) Version() (string, error) { return str(f.pkg.Version, "version") }

// Authors returns the inherited author list.
func (f *InheritableFields) Authors() ([]string, error) { return list(f.pkg.Authors, "authors") }

// Description returns the inherited description.
func (f *InheritableFields) Description() (string, error) {
	return str(f.pkg.Description, "description")
}

// Homepage returns the inherited homepage URL.
func (f *InheritableFields) Homepage() (string, error) { return str(f.pkg.Homepage, "homepage") }

// Documentation returns the inherited documentation URL.
func (f *InheritableFields) Documentation() (string, error) {
	return str(f.pkg.Documentation, "documentation")
}

// Keywords returns the inherited keywords.
func (f *InheritableFields) Keywords() ([]string, error) { return list(f.pkg.Keywords, "keywords") }

// Categories returns the inherited categories.
func (f *InheritableFields) Categories() ([]string, error) {
	return list(f.pkg.Categories, "categories")
}

// License returns the inherited license expression.
func (f *InheritableFields) License() (string, error) { return str(f.pkg.License, "license") }

// Repository returns the inherited repository URL.
func (f *InheritableFields) Repository() (string, error) { return str(f.pkg.Repository, "repository") }

// Edition returns the inherited edition.
func (f *InheritableFields) Edition() (string, error) { return str(f.pkg.Edition, "edition") }

// RustVersion returns the inherited minimum toolchain version.
func (f *InheritableFields) RustVersion() (string, error) {
	return str(f.pkg.RustVersion, "rust-version")
}

// Exclude returns the inherited exclude globs.
func (f *InheritableFields) Exclude() ([]string, error) { return list(f.pkg.Exclude, "exclude") }

// Include returns the inherited include globs.
func (f *InheritableFields) Include() ([]string, error) { return list(f.pkg.Include, "include") }

// Publish returns the publish policy.
func (f *InheritableFields) Publish() (surface.VecStringOrBool, error) {
	if f.pkg.Publish == nil {
		return surface.VecStringOrBool{}, notDefined("publish")
	}
	return *f.pkg.Publish, nil
}

// Badges returns the badge table.
func (f *InheritableFields) Badges() (map[string]map[string]string, error) {
	if f.pkg.Badges == nil {
		return nil, notDefined("badges")
	}
	return f.pkg.Badges, nil
}

// Readme returns the root's readme re-expressed relative to memberRoot.
func (f *InheritableFields) Readme(memberRoot string) (surface.StringOrBool, error) {
	readme, ok := ReadmeFor(f.root, f.pkg.Readme)
	if !ok {
		return surface.StringOrBool{}, notDefined("readme")
	}
	rel, err := ResolveRelativePath("readme", f.root, memberRoot, readme)
	if err != nil {
		return surface.StringOrBool{}, err
	}
	return surface.Strv(rel), nil
}

// LicenseFile returns the root's license file re-expressed relative to
// memberRoot.
func (f *InheritableFields) LicenseFile(memberRoot string) (string, error) {
	if f.pkg.LicenseFile == nil {
		return "", notDefined("license-file")
	}
	return ResolveRelativePath("license-file", f.root, memberRoot, *f.pkg.LicenseFile)
}

// Dependency returns the base declaration of a workspace dependency.
func (f *InheritableFields) Dependency(name string) (surface.DependencySpec, error) {
	if f.deps == nil {
		return nil, errors.New(errors.ErrCodeInheritance, "`workspace.dependencies` was not defined")
	}
	spec, ok := f.deps[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeInheritance,
			"`dependency.%s` was not found in `workspace.dependencies`", name)
	}
	return spec, nil
}

// Dependencies returns the [workspace.dependencies] table.
func (f *InheritableFields) Dependencies() (surface.DependencyTable, error) {
	if f.deps == nil {
		return nil, errors.New(errors.ErrCodeInheritance, "`workspace.dependencies` was not defined")
	}
	return f.deps, nil
}

var defaultReadmeFiles = []string{"README.md", "README.txt", "README"}

// ReadmeFor resolves a readme setting for the package rooted at dir:
// false disables it, true means README.md, a string is used as is, and an
// unset value picks the first default readme file present in dir.
func ReadmeFor(dir string, readme *surface.StringOrBool) (string, bool) {
	switch {
	case readme == nil:
		for _, name := range defaultReadmeFiles {
			if info, err := os.Stat(filepath.Join(dir, name)); err == nil && info.Mode().IsRegular() {
				return name, true
			}
		}
		return "", false
	case readme.IsBool && !readme.Bool:
		return "", false
	case readme.IsBool:
		return "README.md", true
	default:
		return readme.Str, true
	}
}

// ResolveRelativePath takes a path declared relative to the workspace root
// and re-expresses it relative to the member's root. An absolute path keeps
// pointing at the same location.
func ResolveRelativePath(label, wsRoot, memberRoot, rel string) (string, error) {
	if err := errors.ValidateRelativePath(rel, label); err != nil {
		return "", err
	}
	joined := rel
	if !filepath.IsAbs(rel) {
		joined = filepath.Join(wsRoot, rel)
	}
	joined = NormalizePath(joined)
	out, err := filepath.Rel(NormalizePath(memberRoot), joined)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "`%s` contains an invalid path", label)
	}
	return out, nil
}

// NormalizePath lexically removes `.` and `..` components without touching
// the filesystem, so symlinks are not resolved.
func NormalizePath(p string) string {
	return filepath.Clean(p)
}
