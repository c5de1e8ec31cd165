package dependency

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/source"
	"github.com/matzehuels/crateman/pkg/surface"
	"github.com/matzehuels/crateman/pkg/workspace"
)

// Resolve maps one declaration to its resolved dependency.
func (cx *Context) Resolve(name string, spec surface.DependencySpec, kind Kind) (*Dependency, error) {
	expanded, err := cx.Expand(name, spec)
	if err != nil {
		return nil, err
	}
	var detailed *surface.DetailedDependency
	switch s := expanded.(type) {
	case surface.SimpleDependency:
		version := string(s)
		detailed = &surface.DetailedDependency{Version: &version}
	case *surface.DetailedDependency:
		detailed = s
	default:
		return nil, errors.New(errors.ErrCodeInternal, "unexpected dependency form %T for `%s`", spec, name)
	}
	return cx.toDependency(name, detailed, kind)
}

// Expand replaces a `{ workspace = true }` declaration with its base in
// the workspace root. Local features are appended to the base features, a
// local optional flag replaces the base one, and a base path is
// re-expressed relative to this package. Other forms are returned as is.
func (cx *Context) Expand(name string, spec surface.DependencySpec) (surface.DependencySpec, error) {
	ws, ok := spec.(*surface.WorkspaceDependency)
	if !ok {
		return spec, nil
	}
	if err := cx.Features.Require(features.WorkspaceInheritance); err != nil {
		return nil, err
	}
	if cx.Workspace == nil {
		return nil, errors.New(errors.ErrCodeInheritance, "failed to find a workspace root")
	}
	fields, err := cx.Workspace.Fields()
	if err != nil {
		return nil, err
	}
	base, err := fields.Dependency(name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInheritance, err,
			"error reading `dependencies.%s` from workspace root manifest's `workspace.dependencies.%s`", name, name)
	}

	switch b := base.(type) {
	case surface.SimpleDependency:
		if ws.Optional == nil && ws.Features == nil {
			return b, nil
		}
		version := string(b)
		return &surface.DetailedDependency{Version: &version, Optional: ws.Optional, Features: ws.Features}, nil
	case *surface.DetailedDependency:
		d := b.Clone()
		if ws.Features != nil {
			d.Features = append(d.Features, ws.Features...)
		}
		d.Optional = ws.Optional
		if d.Path != nil {
			rel, err := workspace.ResolveRelativePath(name, fields.Root(), cx.Root, *d.Path)
			if err != nil {
				return nil, err
			}
			d.Path = &rel
		}
		return d, nil
	default:
		return nil, errors.New(errors.ErrCodeInternal,
			"workspace dependency `%s` cannot itself be inherited", name)
	}
}

func (cx *Context) toDependency(name string, d *surface.DetailedDependency, kind Kind) (*Dependency, error) {
	if d.Version == nil && d.Path == nil && d.Git == nil {
		if cx.Strict {
			return nil, errors.New(errors.ErrCodeMissingRequirement,
				"dependency (%s) specified without providing a local path, Git repository, or version to use", name)
		}
		cx.warn("dependency (%s) specified without providing a local path, Git repository, or "+
			"version to use. This will be considered an error in future versions", name)
	}

	if d.Version != nil && source.HasBuildMetadata(*d.Version) {
		cx.warn("version requirement `%s` for dependency `%s` includes semver metadata which will be "+
			"ignored, removing the metadata is recommended to avoid confusion", *d.Version, name)
	}

	if d.Git == nil {
		for _, key := range []struct {
			set  bool
			name string
		}{
			{d.Branch != nil, "branch"},
			{d.Tag != nil, "tag"},
			{d.Rev != nil, "rev"},
		} {
			if key.set {
				return nil, errors.New(errors.ErrCodeInvalidManifest,
					"key `%s` is ignored for dependency (%s).", key.name, name)
			}
		}
	}

	if err := validateFeatures(name, d.Features); err != nil {
		return nil, err
	}

	id, err := cx.sourceFor(name, d)
	if err != nil {
		return nil, err
	}

	pkgName := name
	explicit := ""
	if d.Package != nil {
		pkgName = *d.Package
		explicit = name
	}
	req := "*"
	if d.Version != nil {
		req = strings.TrimSpace(*d.Version)
		if req == "" {
			return nil, errors.New(errors.ErrCodeInvalidManifest,
				"failed to parse the version requirement `%s` for dependency `%s`", *d.Version, name)
		}
	}

	if d.DefaultFeatures != nil && d.DefaultFeatures2 != nil {
		cx.warn("%s", DeprecatedAlias("default-features", name, "dependency"))
	}
	defaultFeatures := true
	switch {
	case d.DefaultFeatures != nil:
		defaultFeatures = *d.DefaultFeatures
	case d.DefaultFeatures2 != nil:
		defaultFeatures = *d.DefaultFeatures2
	}

	dep := &Dependency{
		Name:               pkgName,
		ExplicitNameInToml: explicit,
		Source:             id,
		VersionReq:         req,
		Features:           append([]string{}, d.Features...),
		Optional:           d.Optional != nil && *d.Optional,
		DefaultFeatures:    defaultFeatures,
		Kind:               kind,
		Platform:           cx.Platform,
	}

	if d.Registry != nil {
		reg, err := cx.registry(*d.Registry)
		if err != nil {
			return nil, err
		}
		dep.Registry = &reg
	}
	if d.RegistryIndex != nil {
		reg, err := source.ForRegistry(*d.RegistryIndex)
		if err != nil {
			return nil, err
		}
		dep.Registry = &reg
	}

	if d.Public != nil {
		if err := cx.Features.Require(features.PublicDependency); err != nil {
			return nil, err
		}
		if kind != Normal {
			return nil, errors.New(errors.ErrCodeInvalidManifest,
				"'public' specifier can only be used on regular dependencies, not %s dependencies", kind.long())
		}
		dep.Public = *d.Public
	}

	switch {
	case d.Artifact != nil:
		artifact, err := ParseArtifact(d.Artifact, d.Lib != nil && *d.Lib, d.Target)
		if err != nil {
			return nil, errors.Context(err, "failed to parse the artifact of dependency `%s`", name)
		}
		if kind != Build && artifact.AssumesTarget() {
			return nil, errors.New(errors.ErrCodeInvalidManifest,
				"`target = \"target\"` in normal- or dev-dependencies has no effect (%s)", name)
		}
		dep.Artifact = artifact
	case d.Lib != nil:
		return nil, errors.New(errors.ErrCodeInvalidManifest,
			"'lib' specifier cannot be used without an 'artifact = …' value (%s)", name)
	case d.Target != nil:
		return nil, errors.New(errors.ErrCodeInvalidManifest,
			"'target' specifier cannot be used without an 'artifact = …' value (%s)", name)
	}

	return dep, nil
}

// sourceFor disambiguates the source keys of a declaration.
func (cx *Context) sourceFor(name string, d *surface.DetailedDependency) (source.ID, error) {
	switch {
	case d.Git != nil && (d.Registry != nil || d.RegistryIndex != nil):
		return source.ID{}, ambiguous(name, "Only one of `git` or `registry` is allowed.")
	case d.Registry != nil && d.RegistryIndex != nil:
		return source.ID{}, ambiguous(name, "Only one of `registry` or `registry-index` is allowed.")
	case d.Git != nil:
		if d.Path != nil {
			return source.ID{}, ambiguous(name, "Only one of `git` or `path` is allowed.")
		}
		return cx.gitSource(name, d)
	case d.Path != nil:
		return cx.pathSource(*d.Path)
	case d.Registry != nil:
		return cx.registry(*d.Registry)
	case d.RegistryIndex != nil:
		return source.ForRegistry(*d.RegistryIndex)
	default:
		return source.DefaultIndex(), nil
	}
}

func ambiguous(name, detail string) error {
	return errors.New(errors.ErrCodeFieldConflict,
		"dependency (%s) specification is ambiguous. %s", name, detail)
}

func (cx *Context) gitSource(name string, d *surface.DetailedDependency) (source.ID, error) {
	n := 0
	for _, v := range []*string{d.Branch, d.Tag, d.Rev} {
		if v != nil {
			n++
		}
	}
	if n > 1 {
		return source.ID{}, ambiguous(name, "Only one of `branch`, `tag` or `rev` is allowed.")
	}

	ref := source.DefaultBranch()
	switch {
	case d.Branch != nil:
		ref = source.Branch(*d.Branch)
	case d.Tag != nil:
		ref = source.Tag(*d.Tag)
	case d.Rev != nil:
		ref = source.Rev(*d.Rev)
	}

	if u, err := url.Parse(*d.Git); err == nil && u.Fragment != "" {
		cx.warn("URL fragment `#%s` in git URL is ignored for dependency (%s). "+
			"If you were trying to specify a specific git revision, use `rev = \"%s\"` in the dependency declaration.",
			u.Fragment, name, u.Fragment)
	}
	return source.ForGit(*d.Git, ref)
}

// pathSource records a path dependency and picks its source. Inside a path
// source the path is normalized to an absolute, `..`-free form so that
// equivalent spellings produce the same ID; otherwise the dependency
// shares the consuming document's source.
func (cx *Context) pathSource(path string) (source.ID, error) {
	cx.NestedPaths = append(cx.NestedPaths, path)
	if !cx.SourceID.IsPath() {
		return cx.SourceID, nil
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(cx.Root, path)
	}
	return source.ForPath(workspace.NormalizePath(abs))
}

func (cx *Context) registry(name string) (source.ID, error) {
	if err := errors.ValidatePackageName(name, "registry name"); err != nil {
		return source.ID{}, err
	}
	if name == source.CratesIORegistry {
		return source.DefaultIndex(), nil
	}
	if cx.Registries == nil {
		return source.ID{}, errors.New(errors.ErrCodeMissingRequirement,
			"registry `%s` not found in configuration", name)
	}
	index, err := cx.Registries.RegistryIndex(name)
	if err != nil {
		return source.ID{}, err
	}
	return source.ForRegistry(index)
}

func validateFeatures(name string, feats []string) error {
	for _, f := range feats {
		if strings.Contains(f, "/") {
			return errors.New(errors.ErrCodeInvalidManifest,
				"feature `%s` in dependency `%s` is not allowed to contain slashes\n"+
					"If you want to enable features of a transitive dependency, the direct dependency "+
					"needs to re-export those features from the `[features]` table.", f, name)
		}
		if strings.HasPrefix(f, "dep:") {
			return errors.New(errors.ErrCodeInvalidManifest,
				"feature `%s` in dependency `%s` is not allowed to use explicit `dep:` syntax\n"+
					"If you want to enable an optional dependency, specify the name of the optional "+
					"dependency without the `dep:` prefix, or specify a feature from the dependency's "+
					"`[features]` table that enables the optional dependency.", f, name)
		}
	}
	return nil
}
