package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/crateman/pkg/dependency"
	"github.com/matzehuels/crateman/pkg/errors"
)

const appManifest = `
[package]
name = "app"
version = "0.1.0"
edition = "2021"

[dependencies]
serde = "1.0"

[build-dependencies]
cc = "1"

[profile.release]
lto = true
`

// writePackage creates a package directory with a library target.
func writePackage(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "lib.rs"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// execute runs the root command and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("CRATEMAN_CONFIG", "")
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestResolveJSON(t *testing.T) {
	dir := writePackage(t, appManifest)
	out, _, err := execute(t, "resolve", dir, "--format", "json")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	var got struct {
		Path    string `json:"path"`
		Package struct {
			Name         string `json:"name"`
			Dependencies []struct {
				Name string `json:"name"`
				Kind string `json:"kind"`
			} `json:"dependencies"`
		} `json:"package"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Path != filepath.Join(dir, "Cargo.toml") || got.Package.Name != "app" {
		t.Errorf("output = %+v", got)
	}
	if len(got.Package.Dependencies) != 2 || got.Package.Dependencies[1].Kind != "build" {
		t.Errorf("dependencies = %+v", got.Package.Dependencies)
	}
}

func TestResolveMultipleKeepsOrder(t *testing.T) {
	a := writePackage(t, strings.Replace(appManifest, `"app"`, `"alpha"`, 1))
	b := writePackage(t, strings.Replace(appManifest, `"app"`, `"beta"`, 1))
	out, _, err := execute(t, "resolve", b, a, "--format", "json", "--jobs", "2")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	var got []struct {
		Package struct {
			Name string `json:"name"`
		} `json:"package"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not a JSON list: %v\n%s", err, out)
	}
	if len(got) != 2 || got[0].Package.Name != "beta" || got[1].Package.Name != "alpha" {
		t.Errorf("output = %+v", got)
	}
}

func TestResolveYAML(t *testing.T) {
	dir := writePackage(t, appManifest)
	out, _, err := execute(t, "resolve", dir, "-f", "yaml")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	for _, want := range []string{"package:\n", "  name: app\n", "  version: 0.1.0\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML output missing %q\n%s", want, out)
		}
	}
}

func TestResolveText(t *testing.T) {
	dir := writePackage(t, appManifest)
	out, _, err := execute(t, "resolve", dir)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	for _, want := range []string{"app v0.1.0", "2021", "cc 1 (registry+", "[build]"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q\n%s", want, out)
		}
	}
}

func TestResolveWarningsAndMetrics(t *testing.T) {
	dir := writePackage(t, appManifest+"\n[unknown]\nkey = 1\n")
	_, errOut, err := execute(t, "resolve", dir, "--metrics")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	for _, want := range []string{
		"unused manifest key: unknown",
		`crateman_resolve_passes_total{kind="package",outcome="ok"} 1`,
		`crateman_dependencies_total{kind="build",source="default-index"} 1`,
	} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q\n%s", want, errOut)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	_, _, err := execute(t, "resolve", filepath.Join(t.TempDir(), "Cargo.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing manifest error = %v, want FILE_NOT_FOUND", err)
	}

	dir := writePackage(t, appManifest)
	if _, _, err := execute(t, "resolve", dir, "--format", "xml"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown format error = %v, want INVALID_INPUT", err)
	}
}

func TestResolveOutputFile(t *testing.T) {
	dir := writePackage(t, appManifest)
	target := filepath.Join(t.TempDir(), "out.json")
	out, _, err := execute(t, "resolve", dir, "-f", "json", "-o", target)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want nothing", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Errorf("output file is not JSON: %s", data)
	}
}

func TestProfiles(t *testing.T) {
	dir := writePackage(t, appManifest)
	out, _, err := execute(t, "profiles", dir, "--name", "release", "--format", "json")
	if err != nil {
		t.Fatalf("profiles error: %v", err)
	}
	if !strings.Contains(out, `"lto": true`) {
		t.Errorf("output = %s", out)
	}

	if _, _, err := execute(t, "profiles", dir, "--name", "bench"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown profile error = %v, want INVALID_INPUT", err)
	}
}

func TestGraphDOT(t *testing.T) {
	dir := writePackage(t, appManifest)
	out, _, err := execute(t, "graph", dir, "--kinds", "build")
	if err != nil {
		t.Fatalf("graph error: %v", err)
	}
	if !strings.Contains(out, `"app v0.1.0" -> "cc"`) || strings.Contains(out, `-> "serde"`) {
		t.Errorf("DOT output = %s", out)
	}
}

func TestParseKinds(t *testing.T) {
	tests := []struct {
		in      string
		want    []dependency.Kind
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "normal", want: []dependency.Kind{dependency.Normal}},
		{in: "dev, build", want: []dependency.Kind{dependency.Development, dependency.Build}},
		{in: "runtime", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseKinds(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseKinds(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseKinds(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseKinds(%q)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestManifestPath(t *testing.T) {
	dir := t.TempDir()
	got, err := manifestPath(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "Cargo.toml") {
		t.Errorf("manifestPath(dir) = %q", got)
	}

	file := filepath.Join(dir, "other.toml")
	if got, _ := manifestPath(file); got != file {
		t.Errorf("manifestPath(file) = %q, want %q", got, file)
	}
}

func TestEncodeYAMLQuotesAmbiguousStrings(t *testing.T) {
	data, err := encode(map[string]any{"req": "1.0", "flag": "true", "n": 2}, formatYAML)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{`req: "1.0"`, `flag: "true"`, "n: 2"} {
		if !strings.Contains(got, want) {
			t.Errorf("encode() missing %q\n%s", want, got)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	out, _, err := execute(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "crateman version dev\ncommit: none\n") {
		t.Errorf("--version output = %q", out)
	}
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, _, err := execute(t, "completion", shell)
		if err != nil {
			t.Fatalf("completion %s error: %v", shell, err)
		}
		if !strings.Contains(out, "crateman") {
			t.Errorf("completion %s output does not mention the command", shell)
		}
	}
	if _, _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh succeeded, want an error")
	}
}
