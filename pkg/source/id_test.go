package source

import (
	"path/filepath"
	"testing"
)

func TestDefaultIndex(t *testing.T) {
	id := DefaultIndex()
	if !id.IsDefaultIndex() {
		t.Error("DefaultIndex().IsDefaultIndex() = false")
	}
	if id.URL() != CratesIOIndex {
		t.Errorf("URL() = %q, want %q", id.URL(), CratesIOIndex)
	}
	var zero ID
	if zero != id {
		t.Errorf("zero ID = %v, want default index", zero)
	}
}

func TestForRegistryDefaultIndexURL(t *testing.T) {
	id, err := ForRegistry(CratesIOIndex)
	if err != nil {
		t.Fatalf("ForRegistry() error: %v", err)
	}
	if id != DefaultIndex() {
		t.Errorf("ForRegistry(default) = %v, want DefaultIndex", id)
	}

	alt, err := ForRegistry("https://example.com/index")
	if err != nil {
		t.Fatalf("ForRegistry() error: %v", err)
	}
	if alt.Kind() != KindRegistry {
		t.Errorf("Kind() = %v, want registry", alt.Kind())
	}
	if got, want := alt.String(), "registry+https://example.com/index"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestForPathEquivalentSpellings(t *testing.T) {
	dir := t.TempDir()
	a, err := ForPath(filepath.Join(dir, "a", "..", "b"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ForPath(filepath.Join(dir, "b"))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("ForPath() = %v and %v, want equal", a, b)
	}
	if a.Hash() != b.Hash() {
		t.Error("Hash() differs for equivalent paths")
	}
	if !a.IsPath() {
		t.Error("IsPath() = false")
	}
}

func TestForGit(t *testing.T) {
	tests := []struct {
		name string
		url  string
		ref  GitReference
		want string
	}{
		{"default branch", "https://github.com/a/b", DefaultBranch(), "git+https://github.com/a/b"},
		{"branch", "https://github.com/a/b", Branch("main"), "git+https://github.com/a/b?branch=main"},
		{"tag", "https://github.com/a/b", Tag("v1.0"), "git+https://github.com/a/b?tag=v1.0"},
		{"rev", "https://github.com/a/b", Rev("abc123"), "git+https://github.com/a/b?rev=abc123"},
		{"fragment dropped", "https://github.com/a/b#abc123", DefaultBranch(), "git+https://github.com/a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ForGit(tt.url, tt.ref)
			if err != nil {
				t.Fatalf("ForGit() error: %v", err)
			}
			if got := id.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if id.Reference() != tt.ref {
				t.Errorf("Reference() = %v, want %v", id.Reference(), tt.ref)
			}
		})
	}
}

func TestForGitInvalidURL(t *testing.T) {
	if _, err := ForGit("git@github.com:a/b.git", DefaultBranch()); err == nil {
		t.Error("ForGit(scp-style) expected error")
	}
}

func TestGitReferenceString(t *testing.T) {
	if got := DefaultBranch().String(); got != "default branch" {
		t.Errorf("DefaultBranch().String() = %q", got)
	}
	if got := Branch("dev").String(); got != "branch=dev" {
		t.Errorf("Branch().String() = %q", got)
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("abc"))
	if len(h) != 64 {
		t.Errorf("Hash() length = %d, want 64", len(h))
	}
	if h != Hash([]byte("abc")) {
		t.Error("Hash() is not deterministic")
	}
}
