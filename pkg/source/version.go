package source

import (
	"strings"

	"golang.org/x/mod/semver"

	"github.com/matzehuels/crateman/pkg/errors"
)

// ValidateVersion checks that s is a full semantic version
// (MAJOR.MINOR.PATCH with optional pre-release and build metadata).
func ValidateVersion(s string) error {
	v := "v" + s
	if s == "" || !semver.IsValid(v) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid version `%s`: expected MAJOR.MINOR.PATCH", s)
	}
	// semver.IsValid accepts shorthands such as v1.2; Canonical expands them.
	if strings.TrimSuffix(v, semver.Build(v)) != semver.Canonical(v) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid version `%s`: expected MAJOR.MINOR.PATCH", s)
	}
	return nil
}

// HasBuildMetadata reports whether a version string carries `+build`
// metadata, which version requirements ignore.
func HasBuildMetadata(s string) bool {
	return strings.Contains(s, "+")
}
