package profile

import (
	"sort"

	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/surface"
)

// Profile is one profile or override node.
type Profile = surface.Profile

// Table maps profile names to profiles.
type Table map[string]Profile

// Names returns the profile names in lexicographic order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate validates every profile of the table in name order.
func (t Table) Validate(feats *features.Features, warnings *[]string) error {
	for _, name := range t.Names() {
		if err := Validate(name, t[name], feats, warnings); err != nil {
			return err
		}
	}
	return nil
}

// Merge returns a new table with other merged over t by profile name.
// Profiles present on one side only are copied as is.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t)+len(other))
	for name, p := range t {
		out[name] = Clone(p)
	}
	for name, p := range other {
		if base, ok := out[name]; ok {
			out[name] = Merge(base, p)
		} else {
			out[name] = Clone(p)
		}
	}
	return out
}
