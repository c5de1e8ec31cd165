package source

import (
	"fmt"
	"path"
	"strings"

	"github.com/matzehuels/crateman/pkg/errors"
)

// Spec is a package-id pattern: a package name with an optional exact
// version and an optional source URL.
//
// Accepted spellings:
//
//	foo
//	foo@1.2.3
//	foo:1.2.3
//	https://example.com/foo#1.2.3
//	https://example.com/repo#foo@1.2.3
type Spec struct {
	Name    string
	Version string // Exact version, "" if unspecified
	URL     string // Source URL, "" if unspecified
}

// ParseSpec parses a package-id pattern.
func ParseSpec(s string) (Spec, error) {
	if strings.Contains(s, "://") {
		return parseSpecURL(s)
	}
	name, version, hasVersion := cutVersion(s)
	if err := errors.ValidatePackageName(name, "pkgid"); err != nil {
		return Spec{}, err
	}
	if hasVersion {
		if err := ValidateVersion(version); err != nil {
			return Spec{}, err
		}
	}
	return Spec{Name: name, Version: version}, nil
}

func parseSpecURL(s string) (Spec, error) {
	u, err := errors.ValidateURL(s)
	if err != nil {
		return Spec{}, err
	}
	frag := u.Fragment
	u.Fragment = ""
	u.RawFragment = ""

	spec := Spec{URL: u.String()}
	switch {
	case frag == "":
		spec.Name = path.Base(strings.TrimSuffix(u.Path, "/"))
	case strings.ContainsAny(frag, "@:"):
		spec.Name, spec.Version, _ = cutVersion(frag)
	case frag[0] >= '0' && frag[0] <= '9':
		spec.Name = path.Base(strings.TrimSuffix(u.Path, "/"))
		spec.Version = frag
	default:
		spec.Name = frag
	}

	if err := errors.ValidatePackageName(spec.Name, "pkgid"); err != nil {
		return Spec{}, err
	}
	if spec.Version != "" {
		if err := ValidateVersion(spec.Version); err != nil {
			return Spec{}, err
		}
	}
	return spec, nil
}

func cutVersion(s string) (name, version string, ok bool) {
	if i := strings.IndexAny(s, "@:"); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

// Matches reports whether the pattern selects a package with the given
// name, version and source.
func (s Spec) Matches(name, version string, id ID) bool {
	if s.Name != name {
		return false
	}
	if s.Version != "" && s.Version != version {
		return false
	}
	return s.URL == "" || s.URL == id.URL()
}

// String renders the pattern in its canonical form.
func (s Spec) String() string {
	var b strings.Builder
	if s.URL != "" {
		fmt.Fprintf(&b, "%s#", s.URL)
	}
	b.WriteString(s.Name)
	if s.Version != "" {
		fmt.Fprintf(&b, "@%s", s.Version)
	}
	return b.String()
}

// MarshalText renders the pattern for JSON and YAML encoders.
func (s Spec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
