package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/crateman/pkg/errors"
)

const configDoc = `
[registries.internal]
index = "https://registry.example.com/index"

[registries.broken]
index = "not a url"

[unstable]
allow = true
allowed-features = ["workspace-inheritance"]

[resolve]
strict-dependency-sources = true

[profile.release]
opt-level = "s"
lto-typo = true

[profile.release.package.MyCrate]
debug = true
`

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, configDoc)
	c, err := Load(Options{Cwd: "/work", Path: path})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Path() != path || c.Cwd() != "/work" {
		t.Errorf("Path() = %q, Cwd() = %q", c.Path(), c.Cwd())
	}

	index, err := c.RegistryIndex("internal")
	if err != nil || index != "https://registry.example.com/index" {
		t.Errorf("RegistryIndex(internal) = %q, %v", index, err)
	}
	if _, err := c.RegistryIndex("missing"); !errors.Is(err, errors.ErrCodeMissingRequirement) {
		t.Errorf("RegistryIndex(missing) error = %v", err)
	}
	if _, err := c.RegistryIndex("broken"); err == nil {
		t.Error("RegistryIndex(broken) should reject the URL")
	}
	if got := c.Registries(); !reflect.DeepEqual(got, []string{"broken", "internal"}) {
		t.Errorf("Registries() = %v", got)
	}

	env := c.Unstable()
	if !env.AllowUnstable || !reflect.DeepEqual(env.AllowedFeatures, []string{"workspace-inheritance"}) {
		t.Errorf("Unstable() = %+v", env)
	}
	if !c.StrictDependencySources() {
		t.Error("StrictDependencySources() = false")
	}

	release, ok := c.Profiles()["release"]
	if !ok || release.OptLevel == nil || *release.OptLevel != "s" {
		t.Fatalf("Profiles() = %+v", c.Profiles())
	}
	if len(release.Package) != 1 {
		t.Errorf("package overrides = %v", release.Package)
	}
	for pattern := range release.Package {
		if pattern.String() != "MyCrate" {
			t.Errorf("package pattern = %q, case should be kept", pattern)
		}
	}
	if len(c.Warnings()) != 1 {
		t.Errorf("Warnings() = %v, want the unused `lto-typo` key", c.Warnings())
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	c, err := Load(Options{Cwd: "/work"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Path() != "" || c.Profiles() != nil || c.StrictDependencySources() {
		t.Errorf("unexpected config %+v", c)
	}
	env := c.Unstable()
	if env.AllowUnstable || env.AllowedFeatures != nil {
		t.Errorf("Unstable() = %+v", env)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(Options{Cwd: t.TempDir(), Path: "nope.toml"}); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
	bad := writeConfig(t, "[registries\n")
	if _, err := Load(Options{Path: bad}); !errors.Is(err, errors.ErrCodeDocumentSyntax) {
		t.Errorf("syntax error = %v", err)
	}
	notTable := writeConfig(t, "profile = 1\n")
	if _, err := Load(Options{Path: notTable}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("profile not a table error = %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CRATEMAN_REGISTRIES_MIRROR_INDEX", "https://mirror.example.com/index")
	t.Setenv("CRATEMAN_UNSTABLE_ALLOW", "true")
	t.Setenv("CRATEMAN_RESOLVE_STRICT_DEPENDENCY_SOURCES", "true")

	c := Default("/work")
	index, err := c.RegistryIndex("mirror")
	if err != nil || index != "https://mirror.example.com/index" {
		t.Errorf("RegistryIndex(mirror) = %q, %v", index, err)
	}
	if !c.Unstable().AllowUnstable || !c.StrictDependencySources() {
		t.Error("environment overrides were not applied")
	}
}

func TestNormalizePath(t *testing.T) {
	c := Default("/work/pkg")
	tests := []struct{ in, want string }{
		{"../other", "/work/other"},
		{"./a/./b/../c", "/work/pkg/a/c"},
		{"/abs/x/../y", "/abs/y"},
		{"", "/work/pkg"},
	}
	for _, tt := range tests {
		if got := c.NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
