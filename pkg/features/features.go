// Package features implements capability gates: named experimental
// constructs a manifest must opt into with `cargo-features = [...]`.
//
// [New] validates the declared list against the registry and the
// environment. Each use site then calls [Features.Require] for the
// capability it depends on, so gating is checked where a construct is
// used rather than in a single pre-pass.
package features

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matzehuels/crateman/pkg/errors"
)

// Status is the lifecycle stage of a capability.
type Status int

const (
	Unstable Status = iota
	Stable
	Removed
)

func (s Status) String() string {
	switch s {
	case Stable:
		return "stable"
	case Removed:
		return "removed"
	default:
		return "unstable"
	}
}

// Capability describes one named gate.
type Capability struct {
	Name    string
	Status  Status
	Version string // Release that stabilized or removed it
}

// Well-known capability names.
const (
	WorkspaceInheritance = "workspace-inheritance"
	PublicDependency     = "public-dependency"
	CodegenBackend       = "codegen-backend"
	ProfileRustflags     = "profile-rustflags"
	Metabuild            = "metabuild"
	TestDummyUnstable    = "test-dummy-unstable"
	DifferentBinaryName  = "different-binary-name"
)

var registry = map[string]Capability{}

func init() {
	for _, c := range []Capability{
		{Name: TestDummyUnstable, Status: Unstable},
		{Name: WorkspaceInheritance, Status: Unstable},
		{Name: PublicDependency, Status: Unstable},
		{Name: CodegenBackend, Status: Unstable},
		{Name: ProfileRustflags, Status: Unstable},
		{Name: Metabuild, Status: Unstable},
		{Name: DifferentBinaryName, Status: Unstable},
		{Name: "test-dummy-stable", Status: Stable, Version: "1.0"},
		{Name: "edition", Status: Stable, Version: "1.31"},
		{Name: "rename-dependency", Status: Stable, Version: "1.31"},
		{Name: "alternative-registries", Status: Stable, Version: "1.34"},
		{Name: "profile-overrides", Status: Stable, Version: "1.41"},
		{Name: "resolver", Status: Stable, Version: "1.51"},
		{Name: "edition2021", Status: Stable, Version: "1.56"},
		{Name: "rust-version", Status: Stable, Version: "1.56"},
		{Name: "named-profiles", Status: Stable, Version: "1.57"},
		{Name: "strip", Status: Stable, Version: "1.59"},
		{Name: "namespaced-features", Status: Removed, Version: "1.60"},
		{Name: "weak-dep-features", Status: Removed, Version: "1.60"},
	} {
		registry[c.Name] = c
	}
}

// Lookup returns the registered capability with the given name.
func Lookup(name string) (Capability, bool) {
	c, ok := registry[name]
	return c, ok
}

// All returns every registered capability sorted by name.
func All() []Capability {
	out := make([]Capability, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Env is the environment condition under which unstable capabilities may
// be enabled.
type Env struct {
	// AllowUnstable permits unstable capabilities at all.
	AllowUnstable bool
	// AllowedFeatures, when non-nil, restricts which unstable capabilities
	// may be enabled.
	AllowedFeatures []string
}

// Features is the set of capabilities enabled for one resolution pass.
type Features struct {
	enabled   map[string]bool
	activated []string
	env       Env
	isLocal   bool
}

// New validates the declared capability list.
//
// Unknown, duplicated and removed capabilities are errors. Declaring a
// stable capability only produces a warning, and only for local sources.
// Unstable capabilities need env to allow them, unless the source is not
// local: published packages were already checked when they were published.
func New(declared []string, env Env, isLocal bool, warnings *[]string) (*Features, error) {
	f := &Features{enabled: make(map[string]bool), env: env, isLocal: isLocal}
	if warnings == nil {
		warnings = new([]string)
	}
	for _, name := range declared {
		c, ok := registry[name]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "unknown cargo feature `%s`", name)
		}
		if f.enabled[name] {
			return nil, errors.New(errors.ErrCodeInvalidManifest,
				"the cargo feature `%s` has already been activated", name)
		}

		switch c.Status {
		case Stable:
			if isLocal {
				*warnings = append(*warnings, fmt.Sprintf(
					"the cargo feature `%s` has been stabilized in the %s release "+
						"and is no longer necessary to be listed in the manifest", name, c.Version))
			}
		case Removed:
			return nil, errors.New(errors.ErrCodeInvalidManifest,
				"the cargo feature `%s` has been removed in the %s release\n\n"+
					"Remove the feature from the manifest to remove this error.", name, c.Version)
		case Unstable:
			if !isLocal {
				break
			}
			if !env.AllowUnstable {
				return nil, errors.GateNotEnabled(name,
					"unstable features are not allowed in this environment; "+
						"set `unstable.allow = true` in the configuration to use them")
			}
			if env.AllowedFeatures != nil && !contains(env.AllowedFeatures, name) {
				return nil, errors.New(errors.ErrCodeGateNotEnabled,
					"the feature `%s` is not in the list of allowed features: [%s]",
					name, strings.Join(env.AllowedFeatures, ", "))
			}
		}

		f.enabled[name] = true
		f.activated = append(f.activated, name)
	}
	return f, nil
}

// Require fails with GATE_NOT_ENABLED unless the capability is enabled.
// Stable capabilities are always enabled.
func (f *Features) Require(name string) error {
	if f.Enabled(name) {
		return nil
	}
	if f == nil {
		f = &Features{isLocal: true}
	}
	return errors.GateNotEnabled(name, f.guidance(name))
}

// Enabled reports whether the capability may be used.
func (f *Features) Enabled(name string) bool {
	if c, ok := registry[name]; ok && c.Status == Stable {
		return true
	}
	return f != nil && f.enabled[name]
}

// Activated returns the declared capabilities in declaration order.
func (f *Features) Activated() []string {
	return append([]string(nil), f.activated...)
}

func (f *Features) guidance(name string) string {
	switch {
	case !f.isLocal:
		return fmt.Sprintf("The package requires the capability `%s`, but this is a published package "+
			"that did not declare it. Consider using a more recent release of the package.", name)
	case f.env.AllowUnstable:
		return fmt.Sprintf("Consider adding `cargo-features = [\"%s\"]` to the top of the manifest "+
			"(above the [package] table) to opt in to this unstable feature.", name)
	default:
		return fmt.Sprintf("Unstable features are not allowed in this environment, but if you "+
			"enable them you can add `cargo-features = [\"%s\"]` to enable this feature.", name)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
