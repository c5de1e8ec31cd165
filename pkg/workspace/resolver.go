package workspace

import (
	"path/filepath"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/surface"
)

// Resolver provides the inheritable fields of one package's workspace for
// the duration of a single resolution pass.
type Resolver struct {
	linkage      Linkage
	manifestPath string
	loader       Loader
	finder       RootFinder
	cell         Cell[*InheritableFields]
}

// NewResolver returns a resolver for the package whose manifest lives at
// manifestPath. Nil collaborators default to the filesystem.
func NewResolver(linkage Linkage, manifestPath string, loader Loader, finder RootFinder) *Resolver {
	if loader == nil {
		loader = FileLoader{}
	}
	if finder == nil {
		finder = FSRootFinder{}
	}
	return &Resolver{
		linkage:      linkage,
		manifestPath: manifestPath,
		loader:       &memoLoader{inner: loader, seen: make(map[string]memoEntry)},
		finder:       finder,
	}
}

// Linkage returns the package's workspace linkage.
func (r *Resolver) Linkage() Linkage { return r.linkage }

// Fields returns the workspace's inheritable fields. The root document is
// loaded on first use only.
func (r *Resolver) Fields() (*InheritableFields, error) {
	return r.cell.Get(r.load)
}

func (r *Resolver) load() (*InheritableFields, error) {
	switch {
	case r.linkage.Root != nil:
		return r.linkage.Root.Fields, nil
	case r.linkage.RootPath != "":
		path := NormalizePath(filepath.Join(filepath.Dir(r.manifestPath), r.linkage.RootPath, ManifestName))
		return r.fromPath(path)
	default:
		path, ok, err := r.finder.FindRoot(r.manifestPath, r.loader)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New(errors.ErrCodeInheritance, "failed to find a workspace root")
		}
		return r.fromPath(path)
	}
}

func (r *Resolver) fromPath(path string) (*InheritableFields, error) {
	m, err := r.loader.Load(path)
	if err != nil {
		return nil, err
	}
	if m.Workspace == nil {
		return nil, errors.New(errors.ErrCodeInheritance,
			"root of a workspace inferred but wasn't a root: %s", path)
	}
	return NewInheritableFields(m.Workspace, filepath.Dir(path))
}

// memoLoader remembers every manifest loaded during a pass, so the root
// finder and the resolver share a single read of the root document.
type memoLoader struct {
	inner Loader
	seen  map[string]memoEntry
}

type memoEntry struct {
	m   *surface.Manifest
	err error
}

func (l *memoLoader) Load(path string) (*surface.Manifest, error) {
	if e, ok := l.seen[path]; ok {
		return e.m, e.err
	}
	m, err := l.inner.Load(path)
	l.seen[path] = memoEntry{m: m, err: err}
	return m, err
}

// Resolve returns the value of a possibly inherited field.
//
// It returns false when the field is absent. A concrete value is returned
// as is; an inherited one requires the workspace-inheritance capability and
// is fetched with get. `workspace = false` is always rejected.
func Resolve[T any](field *surface.MaybeInherited[T], label string, feats *features.Features, get func() (T, error)) (T, bool, error) {
	var zero T
	if field == nil {
		return zero, false, nil
	}
	if v, ok := field.Get(); ok {
		return v, true, nil
	}
	if field.IsOptOut() {
		return zero, false, errors.New(errors.ErrCodeInheritance,
			"`workspace=false` is unsupported for `package.%s`", label)
	}
	if err := feats.Require(features.WorkspaceInheritance); err != nil {
		return zero, false, err
	}
	v, err := get()
	if err != nil {
		return zero, false, errors.Wrap(errors.ErrCodeInheritance, err,
			"error inheriting `%s` from workspace root manifest's `workspace.package.%s`", label, label)
	}
	return v, true, nil
}

// From adapts an accessor of InheritableFields into a getter for Resolve.
func From[T any](r *Resolver, accessor func(*InheritableFields) (T, error)) func() (T, error) {
	return func() (T, error) {
		f, err := r.Fields()
		if err != nil {
			var zero T
			return zero, err
		}
		return accessor(f)
	}
}
