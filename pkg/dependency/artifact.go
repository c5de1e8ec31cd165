package dependency

import (
	"strings"

	"github.com/matzehuels/crateman/pkg/errors"
)

// ArtifactKind is one artifact a dependency links against.
type ArtifactKind struct {
	Kind string `json:"kind"`           // "bin", "cdylib" or "staticlib"
	Bin  string `json:"name,omitempty"` // Selected binary for `bin:<name>`, empty for all binaries
}

// String renders the kind as written in a manifest.
func (k ArtifactKind) String() string {
	if k.Bin != "" {
		return "bin:" + k.Bin
	}
	return k.Kind
}

// AssumeTarget is the `target = "target"` sentinel: build the artifact for
// the consumer's own compile target.
const AssumeTarget = "target"

// Artifact is the artifact linkage of a dependency: `artifact`, `lib` and
// `target`.
type Artifact struct {
	Kinds  []ArtifactKind `json:"kinds"`
	Lib    bool           `json:"lib"`
	Target string         `json:"target,omitempty"`
}

// ParseArtifact parses the artifact keys of a declaration.
func ParseArtifact(kinds []string, lib bool, target *string) (*Artifact, error) {
	if len(kinds) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "`artifact` requires at least one value")
	}
	a := &Artifact{Lib: lib}
	seen := make(map[string]bool, len(kinds))
	for _, raw := range kinds {
		if seen[raw] {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "duplicate artifact kind `%s`", raw)
		}
		seen[raw] = true

		switch {
		case raw == "bin" || raw == "cdylib" || raw == "staticlib":
			a.Kinds = append(a.Kinds, ArtifactKind{Kind: raw})
		case strings.HasPrefix(raw, "bin:"):
			name := strings.TrimPrefix(raw, "bin:")
			if strings.TrimSpace(name) == "" {
				return nil, errors.New(errors.ErrCodeInvalidManifest, "'%s' is not a valid artifact specifier", raw)
			}
			a.Kinds = append(a.Kinds, ArtifactKind{Kind: "bin", Bin: name})
		default:
			return nil, errors.New(errors.ErrCodeInvalidManifest, "'%s' is not a valid artifact specifier", raw)
		}
	}
	if target != nil {
		t := strings.TrimSpace(*target)
		if t == "" || strings.ContainsAny(t, " \t") {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "invalid artifact target `%s`", *target)
		}
		a.Target = t
	}
	return a, nil
}

// AssumesTarget reports whether the artifact uses the consumer's target.
func (a *Artifact) AssumesTarget() bool { return a.Target == AssumeTarget }
