package manifest

import (
	"sort"

	"github.com/matzehuels/crateman/pkg/dependency"
	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/source"
	"github.com/matzehuels/crateman/pkg/surface"
)

// replace resolves the [replace] table. Each key is a package-id spec that
// must carry the exact version being replaced; the replacement is locked
// to it.
func (a *assembler) replace() ([]Replacement, error) {
	if a.m.Patch != nil && a.m.Replace != nil {
		return nil, errors.New(errors.ErrCodeFieldConflict, "cannot specify both [replace] and [patch]")
	}
	var out []Replacement
	for _, key := range a.m.Replace.Names() {
		spec, err := source.ParseSpec(key)
		if err != nil {
			return nil, errors.Context(err,
				"replacements must specify a valid semver version to replace, but `%s` does not", key)
		}
		if spec.URL == "" {
			spec.URL = source.CratesIOIndex
		}

		replacement := a.m.Replace[key]
		if surface.VersionSpecified(replacement) {
			return nil, errors.New(errors.ErrCodeInvalidManifest,
				"replacements cannot specify a version requirement, but found one for `%s`", spec)
		}
		dep, err := a.cx.Resolve(spec.Name, replacement, dependency.Normal)
		if err != nil {
			return nil, err
		}
		if spec.Version == "" {
			return nil, errors.New(errors.ErrCodeMissingRequirement,
				"replacements must specify a version to replace, but `%s` does not", spec)
		}
		dep.Lock(spec.Version)
		out = append(out, Replacement{Spec: spec, Dependency: dep})
	}
	return out, nil
}

// patch resolves the [patch] table. Keys name the patched source: the
// default registry, a configured registry, or a URL.
func (a *assembler) patch() (map[string][]*dependency.Dependency, error) {
	if len(a.m.Patch) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(a.m.Patch))
	for k := range a.m.Patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string][]*dependency.Dependency, len(keys))
	for _, key := range keys {
		url, err := a.patchURL(key)
		if err != nil {
			return nil, err
		}
		table := a.m.Patch[key]
		deps := make([]*dependency.Dependency, 0, len(table))
		for _, name := range table.Names() {
			dep, err := a.cx.Resolve(name, table[name], dependency.Normal)
			if err != nil {
				return nil, err
			}
			deps = append(deps, dep)
		}
		out[url] = append(out[url], deps...)
	}
	return out, nil
}

func (a *assembler) patchURL(key string) (string, error) {
	if key == source.CratesIORegistry {
		return source.CratesIOIndex, nil
	}
	if index, err := a.opts.Config.RegistryIndex(key); err == nil {
		return index, nil
	}
	u, err := errors.ValidateURL(key)
	if err != nil {
		return "", errors.Context(err, "[patch] entry `%s` should be a URL or registry name", key)
	}
	return u.String(), nil
}
