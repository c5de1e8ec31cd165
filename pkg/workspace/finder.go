package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RootFinder locates the workspace root manifest for a member manifest.
type RootFinder interface {
	// FindRoot returns the path of the nearest root manifest, or false when
	// there is none. Candidate manifests are read through loader.
	FindRoot(manifestPath string, loader Loader) (string, bool, error)
}

// FSRootFinder searches ancestor directories on the local filesystem.
//
// The first ancestor manifest declaring [workspace] wins unless it excludes
// the member. A member matched by a `members` glob is never excluded.
type FSRootFinder struct{}

// FindRoot implements RootFinder.
func (FSRootFinder) FindRoot(manifestPath string, loader Loader) (string, bool, error) {
	if loader == nil {
		loader = FileLoader{}
	}

	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return "", false, err
	}
	memberDir := filepath.Dir(abs)

	for dir := filepath.Dir(memberDir); ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, ManifestName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			m, err := loader.Load(candidate)
			if err != nil {
				return "", false, err
			}
			if m.Workspace != nil && !excluded(dir, memberDir, m.Workspace.Members, m.Workspace.Exclude) {
				return candidate, true, nil
			}
		}
		if parent := filepath.Dir(dir); parent == dir {
			return "", false, nil
		}
	}
}

// excluded reports whether the member directory is excluded from the
// workspace rooted at rootDir.
func excluded(rootDir, memberDir string, members, exclude []string) bool {
	rel, err := filepath.Rel(rootDir, memberDir)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, m := range members {
		if within(rel, m) {
			return false
		}
	}
	for _, ex := range exclude {
		if within(rel, ex) {
			return true
		}
	}
	return false
}

// within reports whether rel is matched by pattern, either as a glob or as
// a path prefix.
func within(rel, pattern string) bool {
	pattern = strings.TrimSuffix(filepath.ToSlash(filepath.Clean(pattern)), "/")
	if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
		return true
	}
	return rel == pattern || strings.HasPrefix(rel, pattern+"/")
}
