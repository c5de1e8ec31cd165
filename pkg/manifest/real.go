package manifest

import (
	"sort"
	"strings"

	"github.com/matzehuels/crateman/pkg/dependency"
	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/surface"
	"github.com/matzehuels/crateman/pkg/targets"
	"github.com/matzehuels/crateman/pkg/workspace"
)

// real assembles a manifest that declares a package.
func (a *assembler) real() (*Package, error) {
	m := a.m
	if err := a.capabilities(); err != nil {
		return nil, err
	}
	if m.Package != nil && m.Project != nil {
		return nil, errors.New(errors.ErrCodeFieldConflict,
			"manifest at `%s` contains both `project` and `package`, this is unsupported", a.root)
	}
	if m.Package == nil {
		a.warn("manifest at `%s` contains `[project]` instead of `[package]`, "+
			"this could become a hard error in the future", a.root)
	}
	p := m.PackageSection()

	linkage, err := workspace.LinkageFor(m, a.root)
	if err != nil {
		return nil, err
	}
	a.ws = workspace.NewResolver(linkage, a.path, a.loader, a.opts.Finder)
	a.cx.Workspace = a.ws

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, errors.New(errors.ErrCodeInvalidPackage, "package name cannot be an empty string")
	}
	if err := errors.ValidatePackageName(name, "package name"); err != nil {
		return nil, err
	}

	version, _, err := workspace.Resolve(&p.Version, "version", a.cx.Features,
		workspace.From(a.ws, (*workspace.InheritableFields).Version))
	if err != nil {
		return nil, err
	}
	pkg := &Package{Name: name, Version: version, Source: a.id, Workspace: linkage}

	if err := a.editions(pkg, p); err != nil {
		return nil, err
	}
	if len(p.Metabuild) > 0 {
		if err := a.cx.Features.Require(features.Metabuild); err != nil {
			return nil, err
		}
		pkg.Metabuild = p.Metabuild
	}
	if pkg.Resolver, err = a.resolver(p); err != nil {
		return nil, err
	}

	if err := a.targets(pkg, p); err != nil {
		return nil, err
	}

	if err := a.dependencies(name); err != nil {
		return nil, err
	}
	if pkg.Replace, err = a.replace(); err != nil {
		return nil, err
	}
	if pkg.Patch, err = a.patch(); err != nil {
		return nil, err
	}
	if err := dependency.CheckSources(a.cx.Deps); err != nil {
		return nil, err
	}
	pkg.Dependencies = a.cx.Deps
	for _, d := range pkg.Dependencies {
		a.opts.Hooks.OnDependency(d.Kind.String(), d.Source.Kind().String())
	}
	a.log.Debug("resolved dependencies", "package", name, "count", len(pkg.Dependencies))

	if err := a.metadata(pkg, p); err != nil {
		return nil, err
	}
	if pkg.Profiles, err = a.profiles(); err != nil {
		return nil, err
	}
	if err := a.publish(pkg, p); err != nil {
		return nil, err
	}

	pkg.Features = m.Features
	if pkg.Features == nil {
		pkg.Features = map[string][]string{}
	}
	if _, ok := pkg.Features["default-features"]; ok {
		a.warn("`default-features = [\"..\"]` was found in [features]. " +
			"Did you mean to use `default = [\"..\"]`?")
	}

	if p.DefaultRun != nil {
		if err := checkDefaultRun(*p.DefaultRun, pkg.Targets); err != nil {
			return nil, err
		}
		pkg.DefaultRun = *p.DefaultRun
	}
	if pkg.DefaultTarget, err = compileTarget(p.DefaultTarget); err != nil {
		return nil, err
	}
	if pkg.ForcedTarget, err = compileTarget(p.ForcedTarget); err != nil {
		return nil, err
	}

	pkg.CustomMetadata = p.Metadata
	pkg.Capabilities = a.cx.Features.Activated()
	pkg.ImATeapot = p.ImATeapot
	if p.Links != nil {
		pkg.Links = *p.Links
	}

	if p.License != nil && p.LicenseFile != nil {
		a.warn("only one of `license` or `license-file` is necessary\n" +
			"`license` should be used if the package license can be expressed with a standard SPDX expression.\n" +
			"`license-file` should be used if the package uses a non-standard license.\n" +
			"See https://doc.rust-lang.org/cargo/reference/manifest.html#the-license-and-license-file-fields " +
			"for more information.")
	}
	return pkg, nil
}

// editions resolves the edition and the rust-version.
func (a *assembler) editions(pkg *Package, p *surface.Package) error {
	pkg.Edition = DefaultEdition
	if p.Edition != nil {
		edition, _, err := workspace.Resolve(p.Edition, "edition", a.cx.Features,
			workspace.From(a.ws, (*workspace.InheritableFields).Edition))
		if err != nil {
			return err
		}
		if pkg.Edition, err = parseEdition(edition); err != nil {
			return errors.Context(err, "failed to parse the `edition` key")
		}
	}
	if p.RustVersion != nil {
		rv, _, err := workspace.Resolve(p.RustVersion, "rust-version", a.cx.Features,
			workspace.From(a.ws, (*workspace.InheritableFields).RustVersion))
		if err != nil {
			return err
		}
		if err := checkRustVersion(rv, pkg.Edition); err != nil {
			return err
		}
		pkg.RustVersion = rv
	}
	return nil
}

func (a *assembler) resolver(p *surface.Package) (string, error) {
	var ws *string
	if a.m.Workspace != nil {
		ws = a.m.Workspace.Resolver
	}
	switch {
	case p.Resolver != nil && ws != nil:
		return "", errors.New(errors.ErrCodeFieldConflict,
			"cannot specify `resolver` field in both `[workspace]` and `[package]`")
	case p.Resolver != nil:
		return parseResolver(*p.Resolver)
	case ws != nil:
		return parseResolver(*ws)
	}
	return "", nil
}

// targets infers the build targets and checks the settings that depend
// on them.
func (a *assembler) targets(pkg *Package, p *surface.Package) error {
	ts, err := a.opts.Inferrer.Infer(targets.Input{
		Manifest:    a.m,
		PackageName: pkg.Name,
		Root:        a.root,
		Edition:     pkg.Edition,
		Build:       p.Build,
		Metabuild:   p.Metabuild,
		Features:    a.cx.Features,
	}, &a.cx.Warnings, &a.critical)
	if err != nil {
		return err
	}
	if len(ts) == 0 {
		a.log.Debug("manifest has no build targets", "package", pkg.Name)
	}
	if dup, ok := targets.DuplicatePath(a.root, ts); ok {
		a.warn("file found to be present in multiple build targets: %s", dup)
	}
	if p.Links != nil {
		hasBuild := false
		for _, t := range ts {
			hasBuild = hasBuild || t.IsCustomBuild()
		}
		if !hasBuild {
			return errors.New(errors.ErrCodeMissingRequirement,
				"package `%s` specifies that it links to `%s` but does not have a custom build script",
				pkg.ID(), *p.Links)
		}
	}
	pkg.Targets = ts
	return nil
}

// dependencies resolves the base tables and then every per-platform table
// in key order.
func (a *assembler) dependencies(name string) error {
	m, cx := a.m, a.cx
	if err := cx.ResolveTable(m.Dependencies, dependency.Normal); err != nil {
		return err
	}
	dev := a.alias(m.DevDependencies, m.DevDependencies2, "dev-dependencies", name, "package")
	if err := cx.ResolveTable(dev, dependency.Development); err != nil {
		return err
	}
	build := a.alias(m.BuildDependencies, m.BuildDependencies2, "build-dependencies", name, "package")
	if err := cx.ResolveTable(build, dependency.Build); err != nil {
		return err
	}

	keys := make([]string, 0, len(m.Targets))
	for k := range m.Targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		platform, err := dependency.ParsePlatform(key)
		if err != nil {
			return err
		}
		platform.CheckCfgAttributes(&cx.Warnings)
		cx.Platform = platform

		tables := m.Targets[key]
		if err := cx.ResolveTable(tables.Dependencies, dependency.Normal); err != nil {
			return err
		}
		build := a.alias(tables.BuildDependencies, tables.BuildDependencies2, "build-dependencies", key, "platform target")
		if err := cx.ResolveTable(build, dependency.Build); err != nil {
			return err
		}
		dev := a.alias(tables.DevDependencies, tables.DevDependencies2, "dev-dependencies", key, "platform target")
		if err := cx.ResolveTable(dev, dependency.Development); err != nil {
			return err
		}
	}
	cx.Platform = nil
	return nil
}

// alias picks the dash spelling of a table over its underscore alias,
// warning when both are present.
func (a *assembler) alias(dash, underscore surface.DependencyTable, key, name, kind string) surface.DependencyTable {
	if dash != nil && underscore != nil {
		a.cx.Warnings = append(a.cx.Warnings, dependency.DeprecatedAlias(key, name, kind))
	}
	if dash != nil {
		return dash
	}
	return underscore
}

// metadata resolves the descriptive fields, inheriting from the workspace
// where requested.
func (a *assembler) metadata(pkg *Package, p *surface.Package) error {
	feats, ws := a.cx.Features, a.ws
	md := &pkg.Metadata
	var err error

	if pkg.Exclude, _, err = workspace.Resolve(p.Exclude, "exclude", feats,
		workspace.From(ws, (*workspace.InheritableFields).Exclude)); err != nil {
		return err
	}
	if pkg.Include, _, err = workspace.Resolve(p.Include, "include", feats,
		workspace.From(ws, (*workspace.InheritableFields).Include)); err != nil {
		return err
	}

	strs := []struct {
		field *surface.MaybeInherited[string]
		label string
		get   func(*workspace.InheritableFields) (string, error)
		dst   *string
	}{
		{p.Description, "description", (*workspace.InheritableFields).Description, &md.Description},
		{p.Homepage, "homepage", (*workspace.InheritableFields).Homepage, &md.Homepage},
		{p.Documentation, "documentation", (*workspace.InheritableFields).Documentation, &md.Documentation},
		{p.License, "license", (*workspace.InheritableFields).License, &md.License},
		{p.Repository, "repository", (*workspace.InheritableFields).Repository, &md.Repository},
		{p.LicenseFile, "license-file", func(f *workspace.InheritableFields) (string, error) {
			return f.LicenseFile(a.root)
		}, &md.LicenseFile},
	}
	for _, s := range strs {
		if *s.dst, _, err = workspace.Resolve(s.field, s.label, feats, workspace.From(ws, s.get)); err != nil {
			return err
		}
	}

	lists := []struct {
		field *surface.MaybeInherited[[]string]
		label string
		get   func(*workspace.InheritableFields) ([]string, error)
		dst   *[]string
	}{
		{p.Authors, "authors", (*workspace.InheritableFields).Authors, &md.Authors},
		{p.Keywords, "keywords", (*workspace.InheritableFields).Keywords, &md.Keywords},
		{p.Categories, "categories", (*workspace.InheritableFields).Categories, &md.Categories},
	}
	for _, l := range lists {
		if *l.dst, _, err = workspace.Resolve(l.field, l.label, feats, workspace.From(ws, l.get)); err != nil {
			return err
		}
	}

	readme, ok, err := workspace.Resolve(p.Readme, "readme", feats,
		workspace.From(ws, func(f *workspace.InheritableFields) (surface.StringOrBool, error) {
			return f.Readme(a.root)
		}))
	if err != nil {
		return err
	}
	if ok {
		md.Readme, _ = workspace.ReadmeFor(a.root, &readme)
	} else {
		md.Readme, _ = workspace.ReadmeFor(a.root, nil)
	}

	if md.Badges, _, err = workspace.Resolve(a.m.Badges, "badges", feats,
		workspace.From(ws, (*workspace.InheritableFields).Badges)); err != nil {
		return err
	}
	if p.Links != nil {
		md.Links = *p.Links
	}
	return nil
}

// publish resolves `package.publish`: a list restricts the registries,
// false forbids publishing and true or absent allows any registry.
func (a *assembler) publish(pkg *Package, p *surface.Package) error {
	v, ok, err := workspace.Resolve(p.Publish, "publish", a.cx.Features,
		workspace.From(a.ws, (*workspace.InheritableFields).Publish))
	if err != nil || !ok {
		return err
	}
	switch {
	case !v.IsBool:
		pkg.Publish = v.List
		if pkg.Publish == nil {
			pkg.Publish = []string{}
		}
	case !v.Bool:
		pkg.Publish = []string{}
	}
	return nil
}

func checkDefaultRun(run string, ts []targets.Target) error {
	var bins []string
	for _, t := range ts {
		if !t.IsBin() {
			continue
		}
		if t.Name == run {
			return nil
		}
		bins = append(bins, t.Name)
	}
	return errors.New(errors.ErrCodeInvalidManifest,
		"default-run target `%s` not found%s", run, closestMsg(run, bins))
}

func compileTarget(t *string) (string, error) {
	if t == nil {
		return "", nil
	}
	if strings.TrimSpace(*t) == "" {
		return "", errors.New(errors.ErrCodeInvalidManifest, "target was empty")
	}
	return *t, nil
}
