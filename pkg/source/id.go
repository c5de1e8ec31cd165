package source

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/matzehuels/crateman/pkg/errors"
)

const (
	// CratesIOIndex is the URL of the default package index.
	CratesIOIndex = "https://github.com/rust-lang/crates.io-index"
	// CratesIORegistry is the registry name that aliases the default index.
	CratesIORegistry = "crates-io"
)

// Kind classifies a source.
type Kind int

const (
	KindDefaultIndex Kind = iota // The default package index
	KindRegistry                 // An alternative registry index
	KindGit                      // A git repository
	KindPath                     // A local directory
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRegistry:
		return "registry"
	case KindGit:
		return "git"
	case KindPath:
		return "path"
	default:
		return "default-index"
	}
}

// ID is the canonical identifier of a dependency source.
// The zero value is the default index.
type ID struct {
	kind Kind
	url  string
	path string
	ref  GitReference
}

// DefaultIndex returns the ID of the default package index.
func DefaultIndex() ID {
	return ID{}
}

// ForPath returns a path source. The path is cleaned and made absolute.
func ForPath(path string) (ID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ID{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "invalid path source `%s`", path)
	}
	return ID{kind: KindPath, path: abs}, nil
}

// ForGit returns a git source. Any URL fragment is dropped: revisions are
// selected through the reference only.
func ForGit(rawURL string, ref GitReference) (ID, error) {
	u, err := errors.ValidateURL(rawURL)
	if err != nil {
		return ID{}, err
	}
	u.Fragment = ""
	u.RawFragment = ""
	return ID{kind: KindGit, url: u.String(), ref: ref}, nil
}

// ForRegistry returns a registry source for an index URL. The default
// index URL maps to [DefaultIndex].
func ForRegistry(rawURL string) (ID, error) {
	u, err := errors.ValidateURL(rawURL)
	if err != nil {
		return ID{}, err
	}
	if u.String() == CratesIOIndex {
		return DefaultIndex(), nil
	}
	return ID{kind: KindRegistry, url: u.String()}, nil
}

// Kind returns the source kind.
func (id ID) Kind() Kind { return id.kind }

// IsPath reports whether the source is a local directory.
func (id ID) IsPath() bool { return id.kind == KindPath }

// IsDefaultIndex reports whether the source is the default index.
func (id ID) IsDefaultIndex() bool { return id.kind == KindDefaultIndex }

// URL returns the remote URL for git and registry sources, and a file URL
// for path sources.
func (id ID) URL() string {
	switch id.kind {
	case KindPath:
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(id.path)}).String()
	case KindDefaultIndex:
		return CratesIOIndex
	default:
		return id.url
	}
}

// Path returns the directory of a path source, or "".
func (id ID) Path() string { return id.path }

// Reference returns the git reference of a git source.
func (id ID) Reference() GitReference { return id.ref }

// String renders the ID as `<kind>+<url>`, with a query for git references.
func (id ID) String() string {
	switch id.kind {
	case KindGit:
		if q := id.ref.query(); q != "" {
			return fmt.Sprintf("git+%s?%s", id.url, q)
		}
		return "git+" + id.url
	case KindPath:
		return "path+" + id.URL()
	default:
		return "registry+" + id.URL()
	}
}

// Hash returns a stable SHA-256 hex digest of the canonical form.
// Equivalent spellings of a path source hash identically.
func (id ID) Hash() string {
	return Hash([]byte(id.String()))
}

// MarshalText renders the ID for JSON and YAML encoders.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
