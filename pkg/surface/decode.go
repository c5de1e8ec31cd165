package surface

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/source"
)

// Decode converts a generic document tree into a [Manifest].
//
// The second result lists the keys the model does not know, as sorted,
// de-duplicated dotted paths.
func Decode(doc map[string]any) (*Manifest, []string, error) {
	d := &decoder{}
	m, err := d.manifest(doc)
	if err != nil {
		return nil, nil, err
	}
	return m, d.unusedKeys(), nil
}

// DecodeProfile decodes a single profile table rooted at path, as found in
// configuration files. Unknown keys are returned like [Decode] does.
func DecodeProfile(path string, raw map[string]any) (Profile, []string, error) {
	d := &decoder{}
	p, err := d.profile(d.table(path, raw))
	if err != nil {
		return Profile{}, nil, err
	}
	return p, d.unusedKeys(), nil
}

func (d *decoder) unusedKeys() []string {
	sort.Strings(d.unused)
	out := d.unused[:0]
	for i, k := range d.unused {
		if i == 0 || k != d.unused[i-1] {
			out = append(out, k)
		}
	}
	return out
}

func (d *decoder) manifest(doc map[string]any) (*Manifest, error) {
	root := d.table("", doc)
	m := &Manifest{sections: make(map[string]bool, len(doc))}
	for k := range doc {
		m.sections[k] = true
	}

	var err error
	m.CargoFeatures = root.strs("cargo-features")
	if t := root.sub("package"); t != nil {
		if m.Package, err = d.pkg(t); err != nil {
			return nil, err
		}
	}
	if t := root.sub("project"); t != nil {
		if m.Project, err = d.pkg(t); err != nil {
			return nil, err
		}
	}
	if t := root.sub("profile"); t != nil {
		if m.Profiles, err = d.profiles(t); err != nil {
			return nil, err
		}
	}

	if t := root.sub("lib"); t != nil {
		lib, err := d.target(t)
		if err != nil {
			return nil, err
		}
		m.Lib = &lib
	}
	for _, list := range []struct {
		key string
		dst *[]Target
	}{
		{"bin", &m.Bins},
		{"example", &m.Examples},
		{"test", &m.Tests},
		{"bench", &m.Benches},
	} {
		if *list.dst, err = d.targets(root.tables(list.key)); err != nil {
			return nil, err
		}
	}

	for _, tbl := range []struct {
		key string
		dst *DependencyTable
	}{
		{"dependencies", &m.Dependencies},
		{"dev-dependencies", &m.DevDependencies},
		{"dev_dependencies", &m.DevDependencies2},
		{"build-dependencies", &m.BuildDependencies},
		{"build_dependencies", &m.BuildDependencies2},
		{"replace", &m.Replace},
	} {
		if *tbl.dst, err = d.dependencies(root.sub(tbl.key)); err != nil {
			return nil, err
		}
	}

	if m.Features, err = d.features(root.sub("features")); err != nil {
		return nil, err
	}
	if m.Targets, err = d.platforms(root.sub("target")); err != nil {
		return nil, err
	}
	if m.Patch, err = d.patch(root.sub("patch")); err != nil {
		return nil, err
	}
	if t := root.sub("workspace"); t != nil {
		if m.Workspace, err = d.workspace(t); err != nil {
			return nil, err
		}
	}
	m.Badges = inherited(root, "badges", asBadges)

	if err := root.done(); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *decoder) pkg(t *table) (*Package, error) {
	p := &Package{}
	name := t.str("name")
	version := inherited(t, "version", asVersion)

	p.Edition = inherited(t, "edition", asString)
	p.RustVersion = inherited(t, "rust-version", asString)
	p.Authors = inherited(t, "authors", asStrings)
	p.Build = t.stringOrBool("build")
	p.Metabuild = t.stringOrVec("metabuild")
	p.DefaultTarget = t.str("default-target")
	p.ForcedTarget = t.str("forced-target")
	p.Links = t.str("links")
	p.Exclude = inherited(t, "exclude", asStrings)
	p.Include = inherited(t, "include", asStrings)
	p.Publish = inherited(t, "publish", asVecStringOrBool)
	p.Workspace = t.str("workspace")
	p.ImATeapot = t.boolean("im-a-teapot")
	p.Autobins = t.boolean("autobins")
	p.Autoexamples = t.boolean("autoexamples")
	p.Autotests = t.boolean("autotests")
	p.Autobenches = t.boolean("autobenches")
	p.DefaultRun = t.str("default-run")

	p.Description = inherited(t, "description", asString)
	p.Homepage = inherited(t, "homepage", asString)
	p.Documentation = inherited(t, "documentation", asString)
	p.Readme = inherited(t, "readme", asStringOrBool)
	p.Keywords = inherited(t, "keywords", asStrings)
	p.Categories = inherited(t, "categories", asStrings)
	p.License = inherited(t, "license", asString)
	p.LicenseFile = inherited(t, "license-file", asString)
	p.Repository = inherited(t, "repository", asString)
	p.Resolver = t.str("resolver")
	p.Metadata, _ = t.get("metadata")

	if t.err == nil && name == nil {
		t.fail(errors.New(errors.ErrCodeDocumentSyntax, "missing field `name` for key `%s`", t.path))
	}
	if t.err == nil && version == nil {
		t.fail(errors.New(errors.ErrCodeDocumentSyntax, "missing field `version` for key `%s`", t.path))
	}
	if err := t.done(); err != nil {
		return nil, err
	}
	p.Name = *name
	p.Version = *version
	return p, nil
}

func (d *decoder) workspace(t *table) (*Workspace, error) {
	ws := &Workspace{
		Members:        t.strs("members"),
		DefaultMembers: t.strs("default-members"),
		Exclude:        t.strs("exclude"),
		Resolver:       t.str("resolver"),
	}
	if pt := t.sub("package"); pt != nil {
		wp := &WorkspacePackage{
			Authors:       pt.strs("authors"),
			Description:   pt.str("description"),
			Homepage:      pt.str("homepage"),
			Documentation: pt.str("documentation"),
			Readme:        pt.stringOrBool("readme"),
			Keywords:      pt.strs("keywords"),
			Categories:    pt.strs("categories"),
			License:       pt.str("license"),
			LicenseFile:   pt.str("license-file"),
			Repository:    pt.str("repository"),
			Edition:       pt.str("edition"),
			Exclude:       pt.strs("exclude"),
			Include:       pt.strs("include"),
			RustVersion:   pt.str("rust-version"),
		}
		if v, ok := pt.get("version"); ok {
			version, err := asVersion(pt.key("version"), v)
			if err != nil {
				return nil, err
			}
			wp.Version = &version
		}
		if v, ok := pt.get("publish"); ok {
			publish, err := asVecStringOrBool(pt.key("publish"), v)
			if err != nil {
				return nil, err
			}
			wp.Publish = &publish
		}
		if v, ok := pt.get("badges"); ok {
			badges, err := asBadges(pt.key("badges"), v)
			if err != nil {
				return nil, err
			}
			wp.Badges = badges
		}
		if err := pt.done(); err != nil {
			return nil, err
		}
		ws.Package = wp
	}

	var err error
	if ws.Dependencies, err = d.dependencies(t.sub("dependencies")); err != nil {
		return nil, err
	}
	ws.Metadata, _ = t.get("metadata")
	return ws, t.done()
}

func (d *decoder) targets(tables []*table) ([]Target, error) {
	if tables == nil {
		return nil, nil
	}
	out := make([]Target, 0, len(tables))
	for _, t := range tables {
		target, err := d.target(t)
		if err != nil {
			return nil, err
		}
		out = append(out, target)
	}
	return out, nil
}

func (d *decoder) target(t *table) (Target, error) {
	target := Target{
		Name:             t.str("name"),
		CrateType:        t.strs("crate-type"),
		CrateType2:       t.strs("crate_type"),
		Path:             t.str("path"),
		Filename:         t.str("filename"),
		Test:             t.boolean("test"),
		Doctest:          t.boolean("doctest"),
		Bench:            t.boolean("bench"),
		Doc:              t.boolean("doc"),
		Plugin:           t.boolean("plugin"),
		ProcMacro:        t.boolean("proc-macro"),
		ProcMacro2:       t.boolean("proc_macro"),
		Harness:          t.boolean("harness"),
		RequiredFeatures: t.strs("required-features"),
		Edition:          t.str("edition"),
	}
	return target, t.done()
}

func (d *decoder) dependencies(t *table) (DependencyTable, error) {
	if t == nil {
		return nil, nil
	}
	out := make(DependencyTable, len(t.m))
	for _, name := range t.sortedKeys() {
		spec, err := d.dependency(t.key(name), t.m[name])
		if err != nil {
			return nil, err
		}
		out[name] = spec
	}
	return out, t.done()
}

func (d *decoder) dependency(key string, v any) (DependencySpec, error) {
	switch x := v.(type) {
	case string:
		return SimpleDependency(x), nil
	case map[string]any:
		t := d.table(key, x)
		if ws := t.boolean("workspace"); ws != nil {
			if !*ws {
				return nil, errors.New(errors.ErrCodeDocumentSyntax, "workspace cannot be false for key `%s`", key)
			}
			wd := &WorkspaceDependency{
				Features: t.strs("features"),
				Optional: t.boolean("optional"),
			}
			return wd, t.done()
		}
		dd := &DetailedDependency{
			Version:          t.str("version"),
			Registry:         t.str("registry"),
			RegistryIndex:    t.str("registry-index"),
			Path:             t.str("path"),
			Git:              t.str("git"),
			Branch:           t.str("branch"),
			Tag:              t.str("tag"),
			Rev:              t.str("rev"),
			Features:         t.strs("features"),
			Optional:         t.boolean("optional"),
			DefaultFeatures:  t.boolean("default-features"),
			DefaultFeatures2: t.boolean("default_features"),
			Package:          t.str("package"),
			Public:           t.boolean("public"),
			Artifact:         t.stringOrVec("artifact"),
			Lib:              t.boolean("lib"),
			Target:           t.str("target"),
		}
		return dd, t.done()
	}
	return nil, typeError(key, `a version string like "0.9.8" or a detailed dependency like { version = "0.9.8" }`, v)
}

func (d *decoder) features(t *table) (map[string][]string, error) {
	if t == nil {
		return nil, nil
	}
	out := make(map[string][]string, len(t.m))
	for _, name := range t.sortedKeys() {
		values, err := asStrings(t.key(name), t.m[name])
		if err != nil {
			return nil, err
		}
		out[name] = values
	}
	return out, t.done()
}

func (d *decoder) platforms(t *table) (map[string]Platform, error) {
	if t == nil {
		return nil, nil
	}
	out := make(map[string]Platform, len(t.m))
	for _, name := range t.sortedKeys() {
		pt := t.sub(name)
		if pt == nil {
			return nil, t.err
		}
		var p Platform
		for _, tbl := range []struct {
			key string
			dst *DependencyTable
		}{
			{"dependencies", &p.Dependencies},
			{"build-dependencies", &p.BuildDependencies},
			{"build_dependencies", &p.BuildDependencies2},
			{"dev-dependencies", &p.DevDependencies},
			{"dev_dependencies", &p.DevDependencies2},
		} {
			deps, err := d.dependencies(pt.sub(tbl.key))
			if err != nil {
				return nil, err
			}
			*tbl.dst = deps
		}
		if err := pt.done(); err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, t.done()
}

func (d *decoder) patch(t *table) (map[string]DependencyTable, error) {
	if t == nil {
		return nil, nil
	}
	out := make(map[string]DependencyTable, len(t.m))
	for _, registry := range t.sortedKeys() {
		sub := t.sub(registry)
		if sub == nil {
			return nil, t.err
		}
		deps, err := d.dependencies(sub)
		if err != nil {
			return nil, err
		}
		out[registry] = deps
	}
	return out, t.done()
}

func (d *decoder) profiles(t *table) (map[string]Profile, error) {
	out := make(map[string]Profile, len(t.m))
	for _, name := range t.sortedKeys() {
		pt := t.sub(name)
		if pt == nil {
			return nil, t.err
		}
		p, err := d.profile(pt)
		if err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, t.done()
}

func (d *decoder) profile(t *table) (Profile, error) {
	p := Profile{
		LTO:             t.stringOrBool("lto"),
		CodegenBackend:  t.str("codegen-backend"),
		CodegenUnits:    t.u32("codegen-units"),
		SplitDebuginfo:  t.str("split-debuginfo"),
		DebugAssertions: t.boolean("debug-assertions"),
		Rpath:           t.boolean("rpath"),
		Panic:           t.str("panic"),
		OverflowChecks:  t.boolean("overflow-checks"),
		Incremental:     t.boolean("incremental"),
		DirName:         t.str("dir-name"),
		Inherits:        t.str("inherits"),
		Strip:           t.stringOrBool("strip"),
		Rustflags:       t.strs("rustflags"),
	}
	if v, ok := t.get("opt-level"); ok {
		level, err := asOptLevel(t.key("opt-level"), v)
		if err != nil {
			return Profile{}, err
		}
		p.OptLevel = &level
	}
	if v, ok := t.get("debug"); ok {
		debug, err := asU32OrBool(t.key("debug"), v)
		if err != nil {
			return Profile{}, err
		}
		p.Debug = &debug
	}

	if pt := t.sub("package"); pt != nil {
		p.Package = make(map[PackagePattern]Profile, len(pt.m))
		for _, k := range pt.sortedKeys() {
			pattern, err := ParsePackagePattern(k)
			if err != nil {
				return Profile{}, errors.Context(err, "invalid package pattern for key `%s`", pt.key(k))
			}
			sub := pt.sub(k)
			if sub == nil {
				return Profile{}, pt.err
			}
			override, err := d.profile(sub)
			if err != nil {
				return Profile{}, err
			}
			p.Package[pattern] = override
		}
		if err := pt.done(); err != nil {
			return Profile{}, err
		}
	}
	if bt := t.sub("build-override"); bt != nil {
		override, err := d.profile(bt)
		if err != nil {
			return Profile{}, err
		}
		p.BuildOverride = &override
	}
	return p, t.done()
}

// inherited reads a field that may be spelled `key.workspace = <bool>`.
// A table carrying a boolean `workspace` key selects the workspace arm;
// any other shape is converted as a concrete value.
func inherited[T any](t *table, k string, conv func(key string, v any) (T, error)) *MaybeInherited[T] {
	v, ok := t.get(k)
	if !ok {
		return nil
	}
	key := t.key(k)
	if m, isMap := v.(map[string]any); isMap {
		if flag, isBool := m["workspace"].(bool); isBool {
			ws := t.d.table(key, m)
			ws.get("workspace")
			if err := ws.done(); err != nil {
				t.fail(err)
				return nil
			}
			if flag {
				return ptr(Inherit[T]())
			}
			return ptr(NotInherited[T]())
		}
	}
	val, err := conv(key, v)
	if err != nil {
		t.fail(err)
		return nil
	}
	return ptr(Concrete(val))
}

func (t *table) stringOrBool(k string) *StringOrBool {
	v, ok := t.get(k)
	if !ok {
		return nil
	}
	sb, err := asStringOrBool(t.key(k), v)
	if err != nil {
		t.fail(err)
		return nil
	}
	return &sb
}

// stringOrVec accepts a single string or a list of strings.
func (t *table) stringOrVec(k string) []string {
	v, ok := t.get(k)
	if !ok {
		return nil
	}
	if s, isString := v.(string); isString {
		return []string{s}
	}
	out, err := asStrings(t.key(k), v)
	if err != nil {
		t.fail(typeError(t.key(k), "string or list of strings", v))
		return nil
	}
	return out
}

func asVersion(key string, v any) (string, error) {
	s, err := asString(key, v)
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	if err := source.ValidateVersion(s); err != nil {
		return "", errors.Context(err, "invalid value for key `%s`", key)
	}
	return s, nil
}

func asStringOrBool(key string, v any) (StringOrBool, error) {
	switch x := v.(type) {
	case string:
		return Strv(x), nil
	case bool:
		return Boolv(x), nil
	}
	return StringOrBool{}, typeError(key, "a boolean or a string", v)
}

func asVecStringOrBool(key string, v any) (VecStringOrBool, error) {
	if b, ok := v.(bool); ok {
		return VecStringOrBool{Bool: b, IsBool: true}, nil
	}
	if _, ok := asSlice(v); !ok {
		return VecStringOrBool{}, typeError(key, "a boolean or vector of strings", v)
	}
	list, err := asStrings(key, v)
	if err != nil {
		return VecStringOrBool{}, err
	}
	return VecStringOrBool{List: list}, nil
}

func asU32OrBool(key string, v any) (U32OrBool, error) {
	if b, ok := v.(bool); ok {
		return U32OrBool{Bool: b, IsBool: true}, nil
	}
	if _, ok := asInt(v); !ok {
		return U32OrBool{}, typeError(key, "a boolean or an integer", v)
	}
	n, err := asU32(key, v)
	if err != nil {
		return U32OrBool{}, err
	}
	return U32OrBool{Int: n}, nil
}

func asOptLevel(key string, v any) (string, error) {
	if n, ok := asInt(v); ok {
		return fmt.Sprint(n), nil
	}
	s, ok := v.(string)
	if !ok {
		return "", typeError(key, "an optimization level", v)
	}
	if s != "s" && s != "z" {
		return "", errors.New(errors.ErrCodeDocumentSyntax,
			"must be `0`, `1`, `2`, `3`, `s` or `z`, but found the string: %q for key `%s`", s, key)
	}
	return s, nil
}

func asBadges(key string, v any) (map[string]map[string]string, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, typeError(key, "a table", v)
	}
	out := make(map[string]map[string]string, len(m))
	for name, raw := range m {
		inner, ok := raw.(map[string]any)
		if !ok {
			return nil, typeError(key+"."+name, "a table", raw)
		}
		badge := make(map[string]string, len(inner))
		for k, val := range inner {
			s, err := asString(key+"."+name+"."+k, val)
			if err != nil {
				return nil, err
			}
			badge[k] = s
		}
		out[name] = badge
	}
	return out, nil
}
