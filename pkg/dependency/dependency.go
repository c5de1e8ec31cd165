package dependency

import (
	"fmt"

	"github.com/matzehuels/crateman/pkg/source"
)

// Kind is the dependency kind: which table it was declared in.
type Kind int

const (
	Normal Kind = iota
	Development
	Build
)

// String returns the short table name of the kind.
func (k Kind) String() string {
	switch k {
	case Development:
		return "dev"
	case Build:
		return "build"
	default:
		return "normal"
	}
}

// MarshalText renders the kind for JSON and YAML encoders.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k Kind) long() string {
	switch k {
	case Development:
		return "Development"
	case Build:
		return "Build"
	default:
		return "Normal"
	}
}

// Dependency is one resolved, direct dependency requirement.
//
// Name is the package being depended on; ExplicitNameInToml is set when the
// declaration renames it with `package = "..."`.
type Dependency struct {
	Name               string     `json:"name"`
	ExplicitNameInToml string     `json:"rename,omitempty"`
	Source             source.ID  `json:"source"`
	VersionReq         string     `json:"req"`
	Features           []string   `json:"features"`
	Optional           bool       `json:"optional"`
	DefaultFeatures    bool       `json:"uses_default_features"`
	Kind               Kind       `json:"kind"`
	Platform           *Platform  `json:"target,omitempty"`
	Public             bool       `json:"public,omitempty"`
	Artifact           *Artifact  `json:"artifact,omitempty"`
	Registry           *source.ID `json:"registry,omitempty"`
	LockedVersion      string     `json:"locked,omitempty"`
}

// NameInToml returns the name the dependency is declared under.
func (d *Dependency) NameInToml() string {
	if d.ExplicitNameInToml != "" {
		return d.ExplicitNameInToml
	}
	return d.Name
}

// Lock pins the dependency to an exact version.
func (d *Dependency) Lock(version string) {
	d.VersionReq = "=" + version
	d.LockedVersion = version
}

// String renders a short description such as `serde ^1.0 (registry+...)`.
func (d *Dependency) String() string {
	return fmt.Sprintf("%s %s (%s)", d.NameInToml(), d.VersionReq, d.Source)
}
