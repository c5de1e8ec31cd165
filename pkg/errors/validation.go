package errors

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package or dependency name.
// what names the kind of name in the error message (e.g. "package name",
// "dependency name").
//
// The rules follow the registry conventions:
//   - No empty names
//   - Only letters, digits, `-` and `_`
//   - The first character cannot be a digit
func ValidatePackageName(name, what string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "%s cannot be an empty string", what)
	}

	for i, r := range name {
		if i == 0 && unicode.IsDigit(r) {
			return New(ErrCodeInvalidPackage,
				"the name `%s` cannot be used as a %s, the name cannot start with a digit", name, what)
		}
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			return New(ErrCodeInvalidPackage,
				"invalid character `%c` in %s: `%s`, characters must be Unicode XID characters (numbers, `-`, `_`, or most letters)",
				r, what, name)
		}
	}

	return nil
}

// ValidateRelativePath validates a path declared inside a manifest.
// It rejects empty paths and null bytes; relative escapes (`..`) are legal
// since dependencies commonly point at sibling directories.
func ValidateRelativePath(path, label string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "`%s` path cannot be empty", label)
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidPath, "`%s` path contains invalid characters", label)
	}
	if filepath.VolumeName(path) != "" && !filepath.IsAbs(path) {
		return New(ErrCodeInvalidPath, "`%s` path %q is drive-relative", label, path)
	}
	return nil
}

// ValidateURL validates a source URL string.
// It requires an absolute URL with a scheme (https, ssh, git, file, ...).
func ValidateURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, Wrap(ErrCodeInvalidInput, err, "invalid url `%s`", rawURL)
	}
	if u.Scheme == "" {
		return nil, New(ErrCodeInvalidInput, "invalid url `%s`: relative URL without a base", rawURL)
	}

	return u, nil
}
