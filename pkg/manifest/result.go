package manifest

import (
	"fmt"

	"github.com/matzehuels/crateman/pkg/dependency"
	"github.com/matzehuels/crateman/pkg/profile"
	"github.com/matzehuels/crateman/pkg/source"
	"github.com/matzehuels/crateman/pkg/targets"
	"github.com/matzehuels/crateman/pkg/workspace"
)

// Result is the outcome of one resolution pass. Exactly one of Package and
// Virtual is set.
type Result struct {
	Package *Package `json:"package,omitempty"`
	Virtual *Virtual `json:"virtual,omitempty"`

	// NestedPaths lists the path dependencies as written, relative to the
	// package root and not canonicalized. Workspace member discovery
	// consumes them.
	NestedPaths []string `json:"nested_paths,omitempty"`

	Warnings Warnings `json:"warnings"`
}

// Warnings are the non-fatal findings of a pass.
type Warnings struct {
	Ordinary []string `json:"ordinary,omitempty"`
	// Critical findings do not abort the pass; callers decide whether to
	// escalate them.
	Critical []string `json:"critical,omitempty"`
}

// Package is a fully resolved package description. It must not be
// modified once returned.
type Package struct {
	Name           string                   `json:"name"`
	Version        string                   `json:"version"`
	Source         source.ID                `json:"source"`
	Metadata       Metadata                 `json:"metadata"`
	CustomMetadata any                      `json:"custom_metadata,omitempty"`
	Dependencies   []*dependency.Dependency `json:"dependencies"`
	Features       map[string][]string      `json:"features"`
	Profiles       profile.Table            `json:"profiles,omitempty"`
	Targets        []targets.Target         `json:"targets"`
	Workspace      workspace.Linkage        `json:"-"`

	Edition     string   `json:"edition"`
	RustVersion string   `json:"rust_version,omitempty"`
	Links       string   `json:"links,omitempty"`
	Exclude     []string `json:"exclude,omitempty"`
	Include     []string `json:"include,omitempty"`
	// Publish is nil when the package may be published anywhere and empty
	// when it may not be published at all.
	Publish []string `json:"publish"`

	Replace []Replacement                       `json:"replace,omitempty"`
	Patch   map[string][]*dependency.Dependency `json:"patch,omitempty"`

	DefaultRun    string   `json:"default_run,omitempty"`
	DefaultTarget string   `json:"default_target,omitempty"`
	ForcedTarget  string   `json:"forced_target,omitempty"`
	Resolver      string   `json:"resolver,omitempty"`
	Capabilities  []string `json:"cargo_features,omitempty"`
	ImATeapot     *bool    `json:"im_a_teapot,omitempty"`
	Metabuild     []string `json:"metabuild,omitempty"`
}

// ID renders the package identity as `name vX.Y.Z (source)`.
func (p *Package) ID() string {
	return fmt.Sprintf("%s v%s (%s)", p.Name, p.Version, p.Source)
}

// Metadata is the descriptive metadata of a package.
type Metadata struct {
	Description   string                       `json:"description,omitempty"`
	Homepage      string                       `json:"homepage,omitempty"`
	Documentation string                       `json:"documentation,omitempty"`
	Readme        string                       `json:"readme,omitempty"`
	Authors       []string                     `json:"authors,omitempty"`
	License       string                       `json:"license,omitempty"`
	LicenseFile   string                       `json:"license_file,omitempty"`
	Repository    string                       `json:"repository,omitempty"`
	Keywords      []string                     `json:"keywords,omitempty"`
	Categories    []string                     `json:"categories,omitempty"`
	Badges        map[string]map[string]string `json:"badges,omitempty"`
	Links         string                       `json:"links,omitempty"`
}

// Virtual is a workspace-only manifest.
type Virtual struct {
	Replace      []Replacement                       `json:"replace,omitempty"`
	Patch        map[string][]*dependency.Dependency `json:"patch,omitempty"`
	Workspace    *workspace.RootConfig               `json:"workspace"`
	Profiles     profile.Table                       `json:"profiles,omitempty"`
	Capabilities []string                            `json:"cargo_features,omitempty"`
	Resolver     string                              `json:"resolver,omitempty"`
}

// Replacement is one [replace] entry: every package matching Spec is
// replaced by Dependency, locked to the replaced version.
type Replacement struct {
	Spec       source.Spec            `json:"spec"`
	Dependency *dependency.Dependency `json:"dependency"`
}
