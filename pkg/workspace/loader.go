package workspace

import (
	"os"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/surface"
)

// Loader reads and decodes a manifest without resolving it.
type Loader interface {
	Load(path string) (*surface.Manifest, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) (*surface.Manifest, error)

// Load calls f(path).
func (f LoaderFunc) Load(path string) (*surface.Manifest, error) { return f(path) }

// FileLoader loads manifests from the local filesystem.
type FileLoader struct{}

// Load reads, parses and decodes the manifest at path.
func (FileLoader) Load(path string) (*surface.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "failed to read `%s`", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "failed to read `%s`", path)
	}
	doc, err := surface.Parse(data)
	if err != nil {
		return nil, errors.Context(err, "failed to parse manifest at `%s`", path)
	}
	m, _, err := surface.Decode(doc)
	if err != nil {
		return nil, errors.Context(err, "failed to parse manifest at `%s`", path)
	}
	return m, nil
}
