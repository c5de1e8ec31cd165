package manifest

import (
	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/workspace"
)

// packageSections are the sections a virtual manifest may not contain,
// with the spelling used in the error message.
var packageSections = []struct {
	keys  []string
	label string
}{
	{[]string{"project"}, "[project]"},
	{[]string{"package"}, "[package]"},
	{[]string{"lib"}, "[lib]"},
	{[]string{"bin"}, "[[bin]]"},
	{[]string{"example"}, "[[example]]"},
	{[]string{"test"}, "[[test]]"},
	{[]string{"bench"}, "[[bench]]"},
	{[]string{"dependencies"}, "[dependencies]"},
	{[]string{"dev-dependencies", "dev_dependencies"}, "[dev-dependencies]"},
	{[]string{"build-dependencies", "build_dependencies"}, "[build-dependencies]"},
	{[]string{"features"}, "[features]"},
	{[]string{"target"}, "[target]"},
	{[]string{"badges"}, "[badges]"},
}

// virtual assembles a workspace-only manifest.
func (a *assembler) virtual() (*Virtual, error) {
	for _, s := range packageSections {
		for _, key := range s.keys {
			if a.m.Declares(key) {
				return nil, errors.New(errors.ErrCodeInvalidManifest,
					"this virtual manifest specifies a %s section, which is not allowed", s.label)
			}
		}
	}
	if err := a.capabilities(); err != nil {
		return nil, err
	}

	var linkage workspace.Linkage
	if a.m.Workspace != nil {
		var err error
		if linkage, err = workspace.NewRoot(a.m.Workspace, a.root); err != nil {
			return nil, err
		}
		a.ws = workspace.NewResolver(linkage, a.path, a.loader, a.opts.Finder)
		a.cx.Workspace = a.ws
	}

	v := &Virtual{}
	var err error
	if v.Replace, err = a.replace(); err != nil {
		return nil, err
	}
	if v.Patch, err = a.patch(); err != nil {
		return nil, err
	}
	if v.Profiles, err = a.profiles(); err != nil {
		return nil, err
	}
	if a.m.Workspace != nil && a.m.Workspace.Resolver != nil {
		if v.Resolver, err = parseResolver(*a.m.Workspace.Resolver); err != nil {
			return nil, err
		}
	}
	if a.m.Workspace == nil {
		return nil, errors.New(errors.ErrCodeMissingRequirement,
			"virtual manifests must be configured with [workspace]")
	}
	v.Workspace = linkage.Root
	v.Capabilities = a.cx.Features.Activated()
	a.log.Debug("resolved virtual manifest", "members", len(v.Workspace.Members))
	return v, nil
}
