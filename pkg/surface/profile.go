package surface

import (
	"sort"

	"github.com/matzehuels/crateman/pkg/source"
)

// Profile is one [profile.<name>] table, or one of its override nodes.
// Pointer fields and nil collections mark knobs that were not written.
type Profile struct {
	OptLevel        *string       `json:"opt-level,omitempty"`
	LTO             *StringOrBool `json:"lto,omitempty"`
	CodegenBackend  *string       `json:"codegen-backend,omitempty"`
	CodegenUnits    *uint32       `json:"codegen-units,omitempty"`
	Debug           *U32OrBool    `json:"debug,omitempty"`
	SplitDebuginfo  *string       `json:"split-debuginfo,omitempty"`
	DebugAssertions *bool         `json:"debug-assertions,omitempty"`
	Rpath           *bool         `json:"rpath,omitempty"`
	Panic           *string       `json:"panic,omitempty"`
	OverflowChecks  *bool         `json:"overflow-checks,omitempty"`
	Incremental     *bool         `json:"incremental,omitempty"`
	DirName         *string       `json:"dir-name,omitempty"`
	Inherits        *string       `json:"inherits,omitempty"`
	Strip           *StringOrBool `json:"strip,omitempty"`
	Rustflags       []string      `json:"rustflags,omitempty"`

	Package       map[PackagePattern]Profile `json:"package,omitempty"`
	BuildOverride *Profile                   `json:"build-override,omitempty"`
}

// PackagePattern selects the packages a [profile.<name>.package.<pattern>]
// override applies to: every package ("*") or those matching a spec.
type PackagePattern struct {
	All  bool
	Spec source.Spec
}

// ParsePackagePattern parses "*" or a package-id spec.
func ParsePackagePattern(s string) (PackagePattern, error) {
	if s == "*" {
		return PackagePattern{All: true}, nil
	}
	spec, err := source.ParseSpec(s)
	if err != nil {
		return PackagePattern{}, err
	}
	return PackagePattern{Spec: spec}, nil
}

// String returns "*" or the spec.
func (p PackagePattern) String() string {
	if p.All {
		return "*"
	}
	return p.Spec.String()
}

// MarshalText renders the pattern as a map key for JSON and YAML encoders.
func (p PackagePattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// SortedPatterns returns the keys of an override map in a stable order.
func SortedPatterns(m map[PackagePattern]Profile) []PackagePattern {
	keys := make([]PackagePattern, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
