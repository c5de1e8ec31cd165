package targets

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/surface"
)

// FSInferrer infers targets from the files under the package root.
type FSInferrer struct {
	// FS is the package root. Nil means os.DirFS(in.Root).
	FS fs.FS
}

// Infer implements [Inferrer].
func (f FSInferrer) Infer(in Input, warnings, critical *[]string) ([]Target, error) {
	fsys := f.FS
	if fsys == nil {
		fsys = os.DirFS(in.Root)
	}
	x := &inference{in: in, fsys: fsys, warnings: warnings, critical: critical}
	if x.warnings == nil {
		x.warnings = new([]string)
	}
	if x.critical == nil {
		x.critical = new([]string)
	}
	if in.Manifest == nil {
		x.in.Manifest = &surface.Manifest{}
	}

	var out []Target
	lib, err := x.lib()
	if err != nil {
		return nil, err
	}
	if lib != nil {
		out = append(out, *lib)
	}
	for _, step := range []func() ([]Target, error){x.bins, x.examples, x.tests, x.benches, x.build} {
		ts, err := step()
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
	}
	return out, nil
}

type inference struct {
	in       Input
	fsys     fs.FS
	warnings *[]string
	critical *[]string
}

func (x *inference) exists(name string) bool {
	info, err := fs.Stat(x.fsys, name)
	return err == nil && info.Mode().IsRegular()
}

func (x *inference) edition(t *surface.Target) string {
	if t != nil && t.Edition != nil {
		return *t.Edition
	}
	return x.in.Edition
}

func (x *inference) lib() (*Target, error) {
	decl := x.in.Manifest.Lib
	inferred := x.exists("src/lib.rs")
	if decl == nil && !inferred {
		return nil, nil
	}
	if decl == nil {
		decl = &surface.Target{}
	}

	name := libName(x.in.PackageName)
	if decl.Name != nil {
		name = *decl.Name
		if strings.Contains(name, "-") {
			return nil, errors.New(errors.ErrCodeInvalidManifest,
				"library target names cannot contain hyphens: %s", name)
		}
	}
	if err := validateTargetName(name, "library"); err != nil {
		return nil, err
	}

	p := "src/lib.rs"
	switch {
	case decl.Path != nil:
		p = *decl.Path
	case !inferred:
		return nil, errors.New(errors.ErrCodeMissingRequirement,
			"can't find library `%s`, rename file to `src/lib.rs` or specify lib.path", name)
	}

	if decl.CrateType != nil && decl.CrateType2 != nil {
		*x.warnings = append(*x.warnings,
			"conflicting between `crate-type` and `crate_type` in the `"+name+"` library target.\n"+
				"`crate_type` is ignored and not recommended for use in the future")
	}
	if decl.ProcMacro != nil && decl.ProcMacro2 != nil {
		*x.warnings = append(*x.warnings,
			"conflicting between `proc-macro` and `proc_macro` in the `"+name+"` library target.\n"+
				"`proc_macro` is ignored and not recommended for use in the future")
	}
	crateTypes := decl.CrateTypes()
	switch {
	case decl.IsProcMacro() && len(crateTypes) == 0:
		crateTypes = []string{"proc-macro"}
	case len(crateTypes) == 0:
		crateTypes = []string{"lib"}
	}

	return &Target{
		Kind:             Lib,
		Name:             name,
		Path:             p,
		CrateTypes:       crateTypes,
		RequiredFeatures: decl.RequiredFeatures,
		Edition:          x.edition(decl),
	}, nil
}

func (x *inference) bins() ([]Target, error) {
	m := x.in.Manifest
	var out []Target
	for i := range m.Bins {
		decl := &m.Bins[i]
		if decl.Name == nil || *decl.Name == "" {
			return nil, errors.New(errors.ErrCodeMissingRequirement, "binary target bin.name is required")
		}
		name := *decl.Name
		if err := validateTargetName(name, "binary"); err != nil {
			return nil, err
		}
		p, err := x.binPath(decl)
		if err != nil {
			return nil, err
		}
		if ct := decl.CrateTypes(); len(ct) > 0 {
			*x.critical = append(*x.critical, fmt.Sprintf(
				"the target `%s` is a binary and can't have any crate-types set (currently \"%s\")",
				name, strings.Join(ct, ", ")))
		}
		if decl.IsProcMacro() {
			*x.critical = append(*x.critical, fmt.Sprintf(
				"the target `%s` is a binary and can't have `proc-macro` set `true`", name))
		}
		t := Target{Kind: Bin, Name: name, Path: p, RequiredFeatures: decl.RequiredFeatures, Edition: x.edition(decl)}
		if decl.Filename != nil {
			if err := x.in.Features.Require(features.DifferentBinaryName); err != nil {
				return nil, err
			}
			if *decl.Filename == "" || strings.ContainsAny(*decl.Filename, `/\`) {
				return nil, errors.New(errors.ErrCodeInvalidManifest,
					"binary target `%s` has an invalid filename `%s`", name, *decl.Filename)
			}
			t.Filename = *decl.Filename
		}
		out = append(out, t)
	}
	if err := unique(out, "binary", "bin"); err != nil {
		return nil, err
	}

	if !auto(m.PackageSection(), func(p *surface.Package) *bool { return p.Autobins }) {
		return out, nil
	}
	var found []string
	if x.exists("src/main.rs") {
		found = append(found, "src/main.rs")
	}
	more, err := x.glob("src/bin/*.rs", "src/bin/*/main.rs")
	if err != nil {
		return nil, err
	}
	found = append(found, more...)
	for _, p := range found {
		name := x.in.PackageName
		if p != "src/main.rs" {
			name = stem(p)
		}
		if hasTarget(out, name, p) {
			continue
		}
		out = append(out, Target{Kind: Bin, Name: name, Path: p, Edition: x.in.Edition})
	}
	return out, nil
}

func (x *inference) binPath(decl *surface.Target) (string, error) {
	if decl.Path != nil {
		return *decl.Path, nil
	}
	name := *decl.Name
	candidates := []string{"src/bin/" + name + ".rs", "src/bin/" + name + "/main.rs"}
	if name == x.in.PackageName {
		candidates = append([]string{"src/main.rs"}, candidates...)
	}
	for _, c := range candidates {
		if x.exists(c) {
			return c, nil
		}
	}
	return "", errors.New(errors.ErrCodeMissingRequirement,
		"can't find `%s` bin at `%s` or `%s`. Please specify bin.path if you want to use a non-default path.",
		name, candidates[len(candidates)-2], candidates[len(candidates)-1])
}

func (x *inference) examples() ([]Target, error) {
	return x.dir(Example, "examples", "example", x.in.Manifest.Examples,
		func(p *surface.Package) *bool { return p.Autoexamples })
}

func (x *inference) tests() ([]Target, error) {
	return x.dir(Test, "tests", "test", x.in.Manifest.Tests,
		func(p *surface.Package) *bool { return p.Autotests })
}

func (x *inference) benches() ([]Target, error) {
	return x.dir(Bench, "benches", "bench", x.in.Manifest.Benches,
		func(p *surface.Package) *bool { return p.Autobenches })
}

// dir handles the three kinds that live in one conventional directory.
func (x *inference) dir(kind Kind, dir, key string, decls []surface.Target, flag func(*surface.Package) *bool) ([]Target, error) {
	var out []Target
	for i := range decls {
		decl := &decls[i]
		if decl.Name == nil || *decl.Name == "" {
			return nil, errors.New(errors.ErrCodeMissingRequirement, "%s target %s.name is required", key, key)
		}
		name := *decl.Name
		if err := validateTargetName(name, key); err != nil {
			return nil, err
		}
		p := dir + "/" + name + ".rs"
		switch {
		case decl.Path != nil:
			p = *decl.Path
		case x.exists(p):
		case x.exists(dir + "/" + name + "/main.rs"):
			p = dir + "/" + name + "/main.rs"
		default:
			return nil, errors.New(errors.ErrCodeMissingRequirement,
				"can't find `%s` %s at `%s` or `%s/%s/main.rs`. Please specify %s.path if you want to use a non-default path.",
				name, key, p, dir, name, key)
		}
		t := Target{Kind: kind, Name: name, Path: p, RequiredFeatures: decl.RequiredFeatures, Edition: x.edition(decl)}
		if kind == Example {
			t.CrateTypes = decl.CrateTypes()
		}
		out = append(out, t)
	}
	if err := unique(out, key, key); err != nil {
		return nil, err
	}

	if !auto(x.in.Manifest.PackageSection(), flag) {
		return out, nil
	}
	found, err := x.glob(dir+"/*.rs", dir+"/*/main.rs")
	if err != nil {
		return nil, err
	}
	for _, p := range found {
		name := stem(p)
		if hasTarget(out, name, p) {
			continue
		}
		out = append(out, Target{Kind: kind, Name: name, Path: p, Edition: x.in.Edition})
	}
	return out, nil
}

func (x *inference) build() ([]Target, error) {
	if x.in.Metabuild != nil {
		if err := x.in.Features.Require(features.Metabuild); err != nil {
			return nil, err
		}
		if x.in.Build != nil {
			return nil, errors.New(errors.ErrCodeFieldConflict, "cannot specify both `metabuild` and `build`")
		}
		return []Target{{
			Kind:      CustomBuild,
			Name:      "metabuild-" + x.in.PackageName,
			Path:      "metabuild-" + x.in.PackageName + ".rs",
			Edition:   x.in.Edition,
			Metabuild: x.in.Metabuild,
		}}, nil
	}

	var p string
	switch b := x.in.Build; {
	case b == nil:
		if !x.exists("build.rs") {
			return nil, nil
		}
		p = "build.rs"
	case b.IsBool && !b.Bool:
		return nil, nil
	case b.IsBool:
		p = "build.rs"
	default:
		p = b.Str
	}
	return []Target{{Kind: CustomBuild, Name: "build-script-build", Path: p, Edition: x.in.Edition}}, nil
}

func (x *inference) glob(patterns ...string) ([]string, error) {
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(x.fsys, pattern)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "failed to search `%s`", pattern)
		}
		for _, m := range matches {
			if x.exists(m) {
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// auto reads an `auto*` discovery flag, which defaults to on.
func auto(pkg *surface.Package, flag func(*surface.Package) *bool) bool {
	if pkg == nil {
		return true
	}
	v := flag(pkg)
	return v == nil || *v
}

// stem names a discovered target after its file, or its directory for
// `<dir>/<name>/main.rs`.
func stem(p string) string {
	if path.Base(p) == "main.rs" {
		return path.Base(path.Dir(p))
	}
	return strings.TrimSuffix(path.Base(p), ".rs")
}

func hasTarget(ts []Target, name, p string) bool {
	for _, t := range ts {
		if t.Name == name || t.Path == p {
			return true
		}
	}
	return false
}

func unique(ts []Target, what, key string) error {
	seen := make(map[string]bool, len(ts))
	for _, t := range ts {
		if seen[t.Name] {
			return errors.New(errors.ErrCodeInvalidManifest,
				"found duplicate %s name %s, but all %s targets must have a unique name", what, t.Name, key)
		}
		seen[t.Name] = true
	}
	return nil
}

func validateTargetName(name, what string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New(errors.ErrCodeInvalidManifest, "%s target names cannot be empty", what)
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.New(errors.ErrCodeInvalidManifest,
			"%s target names cannot contain path separators: %s", what, name)
	}
	return nil
}
