// Package targets infers a package's build targets from its manifest and
// the conventional source layout on disk.
//
// Declared targets ([lib], [[bin]], [[example]], [[test]], [[bench]]) are
// completed with default paths; undeclared ones are discovered under
// src/, examples/, tests/ and benches/ unless the matching `auto*` key
// turns discovery off. A build script is taken from `package.build` or a
// build.rs next to the manifest.
package targets

import (
	"path"
	"strings"

	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/surface"
)

// Kind is the kind of a build target.
type Kind string

const (
	Lib         Kind = "lib"
	Bin         Kind = "bin"
	Example     Kind = "example"
	Test        Kind = "test"
	Bench       Kind = "bench"
	CustomBuild Kind = "custom-build"
)

// Target is one build target. Path is relative to the package root and
// slash-separated.
type Target struct {
	Kind             Kind     `json:"kind"`
	Name             string   `json:"name"`
	Path             string   `json:"src_path"`
	CrateTypes       []string `json:"crate_types,omitempty"`
	Filename         string   `json:"filename,omitempty"`
	RequiredFeatures []string `json:"required_features,omitempty"`
	Edition          string   `json:"edition,omitempty"`
	Metabuild        []string `json:"metabuild,omitempty"`
}

// IsCustomBuild reports whether the target is a build script.
func (t Target) IsCustomBuild() bool { return t.Kind == CustomBuild }

// IsBin reports whether the target is a binary.
func (t Target) IsBin() bool { return t.Kind == Bin }

// Input is what an [Inferrer] needs to know about the package.
type Input struct {
	Manifest    *surface.Manifest
	PackageName string
	Root        string // Package root directory
	Edition     string
	Build       *surface.StringOrBool
	Metabuild   []string
	Features    *features.Features
}

// Inferrer produces the build targets of a package. Non-fatal findings
// are appended to warnings; findings the caller should escalate later are
// appended to critical.
type Inferrer interface {
	Infer(in Input, warnings, critical *[]string) ([]Target, error)
}

// DuplicatePath returns the first source path shared by two targets.
func DuplicatePath(root string, targets []Target) (string, bool) {
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		full := path.Join(root, t.Path)
		if seen[full] {
			return full, true
		}
		seen[full] = true
	}
	return "", false
}

// libName turns a package name into a library crate name.
func libName(pkg string) string {
	return strings.ReplaceAll(pkg, "-", "_")
}
