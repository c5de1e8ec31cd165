package dependency

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/source"
	"github.com/matzehuels/crateman/pkg/surface"
	"github.com/matzehuels/crateman/pkg/workspace"
)

func ptr[T any](v T) *T { return &v }

type registries map[string]string

func (r registries) RegistryIndex(name string) (string, error) {
	index, ok := r[name]
	if !ok {
		return "", errors.New(errors.ErrCodeMissingRequirement, "registry `%s` not found in configuration", name)
	}
	return index, nil
}

func newContext(t *testing.T, declared ...string) *Context {
	t.Helper()
	feats, err := features.New(declared, features.Env{AllowUnstable: true}, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	id, err := source.ForPath("/ws/member")
	if err != nil {
		t.Fatal(err)
	}
	return &Context{
		Root:       "/ws/member",
		SourceID:   id,
		Features:   feats,
		Registries: registries{"internal": "https://registry.example.com/index"},
	}
}

func TestResolveSimple(t *testing.T) {
	cx := newContext(t)
	dep, err := cx.Resolve("serde", surface.SimpleDependency("1.0"), Normal)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if dep.Source != source.DefaultIndex() {
		t.Errorf("Source = %v, want default index", dep.Source)
	}
	if dep.VersionReq != "1.0" || !dep.DefaultFeatures || dep.Optional || dep.Kind != Normal {
		t.Errorf("unexpected dependency %+v", dep)
	}
	if len(cx.Warnings) != 0 {
		t.Errorf("Warnings = %v", cx.Warnings)
	}
}

func TestResolveMissingRequirement(t *testing.T) {
	spec := &surface.DetailedDependency{Features: []string{"derive"}}

	cx := newContext(t)
	dep, err := cx.Resolve("serde", spec, Normal)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if dep.VersionReq != "*" {
		t.Errorf("VersionReq = %q, want *", dep.VersionReq)
	}
	if len(cx.Warnings) != 1 || !strings.Contains(cx.Warnings[0], "dependency (serde) specified without providing") {
		t.Errorf("Warnings = %v, want exactly one missing-requirement warning", cx.Warnings)
	}

	strict := newContext(t)
	strict.Strict = true
	if _, err := strict.Resolve("serde", spec, Normal); !errors.Is(err, errors.ErrCodeMissingRequirement) {
		t.Errorf("strict Resolve() error = %v, want MISSING_REQUIREMENT", err)
	}
}

func TestResolveAmbiguousSource(t *testing.T) {
	tests := []struct {
		name string
		spec *surface.DetailedDependency
		want string
	}{
		{"git and path", &surface.DetailedDependency{Git: ptr("https://example.com/a.git"), Path: ptr("a")}, "`git` or `path`"},
		{"git and registry", &surface.DetailedDependency{Git: ptr("https://example.com/a.git"), Registry: ptr("internal")}, "`git` or `registry`"},
		{"git and registry-index", &surface.DetailedDependency{Git: ptr("https://example.com/a.git"), RegistryIndex: ptr("https://r.example.com")}, "`git` or `registry`"},
		{"registry and registry-index", &surface.DetailedDependency{Version: ptr("1"), Registry: ptr("internal"), RegistryIndex: ptr("https://r.example.com")}, "`registry` or `registry-index`"},
		{"branch and tag", &surface.DetailedDependency{Git: ptr("https://example.com/a.git"), Branch: ptr("main"), Tag: ptr("v1")}, "`branch`, `tag` or `rev`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newContext(t).Resolve("a", tt.spec, Normal)
			if !errors.Is(err, errors.ErrCodeFieldConflict) {
				t.Fatalf("Resolve() error = %v, want FIELD_CONFLICT", err)
			}
			msg := errors.UserMessage(err)
			if !strings.Contains(msg, "dependency (a) specification is ambiguous") || !strings.Contains(msg, tt.want) {
				t.Errorf("message = %q", msg)
			}
		})
	}
}

func TestResolveGitReferences(t *testing.T) {
	if _, err := newContext(t).Resolve("a", &surface.DetailedDependency{Version: ptr("1"), Branch: ptr("main")}, Normal); err == nil ||
		!strings.Contains(errors.UserMessage(err), "key `branch` is ignored for dependency (a).") {
		t.Errorf("branch without git error = %v", err)
	}

	cx := newContext(t)
	dep, err := cx.Resolve("a", &surface.DetailedDependency{Git: ptr("https://example.com/a.git#abc"), Rev: ptr("abc")}, Normal)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if dep.Source.Kind() != source.KindGit || dep.Source.Reference() != source.Rev("abc") {
		t.Errorf("Source = %v", dep.Source)
	}
	if dep.Source.URL() != "https://example.com/a.git" {
		t.Errorf("URL = %q, fragment should be dropped", dep.Source.URL())
	}
	if len(cx.Warnings) != 1 || !strings.Contains(cx.Warnings[0], "URL fragment `#abc`") {
		t.Errorf("Warnings = %v", cx.Warnings)
	}
}

func TestResolveFeatureSyntax(t *testing.T) {
	for _, feat := range []string{"serde/derive", "dep:serde"} {
		spec := &surface.DetailedDependency{Version: ptr("1"), Features: []string{feat}}
		if _, err := newContext(t).Resolve("a", spec, Normal); !errors.Is(err, errors.ErrCodeInvalidManifest) {
			t.Errorf("feature %q: error = %v, want INVALID_MANIFEST", feat, err)
		}
	}
}

func TestResolvePathSource(t *testing.T) {
	cx := newContext(t)
	dep, err := cx.Resolve("a", &surface.DetailedDependency{Path: ptr("../crates/a")}, Normal)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	want, _ := source.ForPath("/ws/crates/a")
	if dep.Source != want {
		t.Errorf("Source = %v, want %v", dep.Source, want)
	}
	if !reflect.DeepEqual(cx.NestedPaths, []string{"../crates/a"}) {
		t.Errorf("NestedPaths = %v", cx.NestedPaths)
	}

	// Outside a path source the dependency shares the consumer's source.
	git, _ := source.ForGit("https://example.com/ws.git", source.DefaultBranch())
	cx = newContext(t)
	cx.SourceID = git
	dep, err = cx.Resolve("a", &surface.DetailedDependency{Path: ptr("../crates/a")}, Normal)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if dep.Source != git {
		t.Errorf("Source = %v, want %v", dep.Source, git)
	}
}

func TestResolveRegistries(t *testing.T) {
	cx := newContext(t)
	dep, err := cx.Resolve("a", &surface.DetailedDependency{Version: ptr("1"), Registry: ptr("internal")}, Normal)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if dep.Source.Kind() != source.KindRegistry || dep.Registry == nil || *dep.Registry != dep.Source {
		t.Errorf("dependency = %+v", dep)
	}

	dep, err = cx.Resolve("b", &surface.DetailedDependency{Version: ptr("1"), Registry: ptr("crates-io")}, Normal)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !dep.Source.IsDefaultIndex() {
		t.Errorf("crates-io should alias the default index, got %v", dep.Source)
	}

	if _, err := cx.Resolve("c", &surface.DetailedDependency{Version: ptr("1"), Registry: ptr("missing")}, Normal); err == nil {
		t.Error("unknown registry should fail")
	}
}

func TestResolveRename(t *testing.T) {
	cx := newContext(t)
	dep, err := cx.Resolve("json", &surface.DetailedDependency{Version: ptr("1"), Package: ptr("serde_json")}, Normal)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if dep.Name != "serde_json" || dep.NameInToml() != "json" {
		t.Errorf("Name = %q, NameInToml = %q", dep.Name, dep.NameInToml())
	}
}

func TestResolveDefaultFeatures(t *testing.T) {
	cx := newContext(t)
	dep, err := cx.Resolve("a", &surface.DetailedDependency{
		Version:          ptr("1"),
		DefaultFeatures:  ptr(false),
		DefaultFeatures2: ptr(true),
	}, Normal)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if dep.DefaultFeatures {
		t.Error("`default-features` should win over `default_features`")
	}
	if len(cx.Warnings) != 1 || !strings.Contains(cx.Warnings[0], "`default_features` is ignored") {
		t.Errorf("Warnings = %v", cx.Warnings)
	}
}

func TestResolvePublic(t *testing.T) {
	spec := &surface.DetailedDependency{Version: ptr("1"), Public: ptr(true)}

	if _, err := newContext(t).Resolve("a", spec, Normal); !errors.Is(err, errors.ErrCodeGateNotEnabled) {
		t.Errorf("without gate: error = %v, want GATE_NOT_ENABLED", err)
	}

	cx := newContext(t, features.PublicDependency)
	dep, err := cx.Resolve("a", spec, Normal)
	if err != nil || !dep.Public {
		t.Fatalf("Resolve() = %+v, %v", dep, err)
	}
	_, err = cx.Resolve("a", spec, Development)
	if err == nil || !strings.Contains(errors.UserMessage(err), "not Development dependencies") {
		t.Errorf("dev public error = %v", err)
	}
}

func TestResolveArtifact(t *testing.T) {
	cx := newContext(t)
	dep, err := cx.Resolve("a", &surface.DetailedDependency{
		Version:  ptr("1"),
		Artifact: []string{"bin:tool", "cdylib"},
		Target:   ptr("target"),
	}, Build)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(dep.Artifact.Kinds) != 2 || dep.Artifact.Kinds[0].Bin != "tool" || !dep.Artifact.AssumesTarget() {
		t.Errorf("Artifact = %+v", dep.Artifact)
	}

	tests := []struct {
		name string
		spec *surface.DetailedDependency
		kind Kind
		want string
	}{
		{"assumed target outside build", &surface.DetailedDependency{Version: ptr("1"), Artifact: []string{"bin"}, Target: ptr("target")}, Normal, "has no effect (a)"},
		{"lib without artifact", &surface.DetailedDependency{Version: ptr("1"), Lib: ptr(true)}, Normal, "'lib' specifier cannot be used"},
		{"target without artifact", &surface.DetailedDependency{Version: ptr("1"), Target: ptr("wasm32-unknown-unknown")}, Build, "'target' specifier cannot be used"},
		{"invalid kind", &surface.DetailedDependency{Version: ptr("1"), Artifact: []string{"dylib"}}, Build, "'dylib' is not a valid artifact specifier"},
		{"duplicate kind", &surface.DetailedDependency{Version: ptr("1"), Artifact: []string{"bin", "bin"}}, Build, "duplicate artifact kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newContext(t).Resolve("a", tt.spec, tt.kind)
			if err == nil || !strings.Contains(errors.UserMessage(err), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestResolveBuildMetadataWarning(t *testing.T) {
	cx := newContext(t)
	if _, err := cx.Resolve("a", surface.SimpleDependency("1.0.0+build.5"), Normal); err != nil {
		t.Fatal(err)
	}
	if len(cx.Warnings) != 1 || !strings.Contains(cx.Warnings[0], "semver metadata") {
		t.Errorf("Warnings = %v", cx.Warnings)
	}
}

const workspaceRoot = `
[workspace]
members = ["member"]

[workspace.dependencies]
foo = { path = "crates/foo", features = ["a"] }
bar = "2.0"
`

func workspaceContext(t *testing.T) *Context {
	t.Helper()
	doc, err := surface.Parse([]byte(workspaceRoot))
	if err != nil {
		t.Fatal(err)
	}
	root, _, err := surface.Decode(doc)
	if err != nil {
		t.Fatal(err)
	}
	loader := workspace.LoaderFunc(func(string) (*surface.Manifest, error) { return root, nil })
	cx := newContext(t, features.WorkspaceInheritance)
	cx.Workspace = workspace.NewResolver(workspace.Linkage{RootPath: ".."}, "/ws/member/Cargo.toml", loader, nil)
	return cx
}

func TestResolveWorkspaceDependency(t *testing.T) {
	cx := workspaceContext(t)
	dep, err := cx.Resolve("foo", &surface.WorkspaceDependency{Features: []string{"b"}, Optional: ptr(true)}, Normal)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	want, _ := source.ForPath("/ws/crates/foo")
	if dep.Source != want {
		t.Errorf("Source = %v, want %v", dep.Source, want)
	}
	if !reflect.DeepEqual(dep.Features, []string{"a", "b"}) || !dep.Optional {
		t.Errorf("Features = %v, Optional = %v", dep.Features, dep.Optional)
	}
	if !reflect.DeepEqual(cx.NestedPaths, []string{"../crates/foo"}) {
		t.Errorf("NestedPaths = %v", cx.NestedPaths)
	}

	dep, err = cx.Resolve("bar", &surface.WorkspaceDependency{}, Normal)
	if err != nil || dep.VersionReq != "2.0" {
		t.Errorf("bar = %+v, %v", dep, err)
	}

	_, err = cx.Resolve("baz", &surface.WorkspaceDependency{}, Normal)
	if !errors.Is(err, errors.ErrCodeInheritance) {
		t.Fatalf("missing workspace dependency error = %v", err)
	}
	want2 := "error reading `dependencies.baz` from workspace root manifest's `workspace.dependencies.baz`"
	if !strings.HasPrefix(errors.UserMessage(err), want2) {
		t.Errorf("message = %q", errors.UserMessage(err))
	}
}

func TestResolveWorkspaceDependencyGate(t *testing.T) {
	cx := workspaceContext(t)
	cx.Features = nil
	if _, err := cx.Resolve("foo", &surface.WorkspaceDependency{}, Normal); !errors.Is(err, errors.ErrCodeGateNotEnabled) {
		t.Errorf("error = %v, want GATE_NOT_ENABLED", err)
	}
}

func TestResolveTable(t *testing.T) {
	cx := newContext(t)
	table := surface.DependencyTable{
		"zeta":  surface.SimpleDependency("1"),
		"alpha": surface.SimpleDependency("1"),
	}
	if err := cx.ResolveTable(table, Development); err != nil {
		t.Fatal(err)
	}
	if len(cx.Deps) != 2 || cx.Deps[0].Name != "alpha" || cx.Deps[1].Kind != Development {
		t.Errorf("Deps = %v", cx.Deps)
	}

	bad := surface.DependencyTable{"1abc": surface.SimpleDependency("1")}
	if err := newContext(t).ResolveTable(bad, Normal); !errors.Is(err, errors.ErrCodeInvalidPackage) {
		t.Errorf("error = %v, want INVALID_PACKAGE", err)
	}
}

func TestCheckSources(t *testing.T) {
	a, _ := source.ForPath("/ws/a")
	b, _ := source.ForPath("/ws/b")
	unix := &Dependency{Name: "foo", Source: a}
	windows := &Dependency{Name: "foo", Source: b}

	for _, deps := range [][]*Dependency{{unix, windows}, {windows, unix}} {
		err := CheckSources(deps)
		if !errors.Is(err, errors.ErrCodeFieldConflict) {
			t.Fatalf("CheckSources() error = %v, want FIELD_CONFLICT", err)
		}
		if !strings.Contains(errors.UserMessage(err), "Dependency 'foo' has different source paths") {
			t.Errorf("message = %q", errors.UserMessage(err))
		}
	}

	same := &Dependency{Name: "foo", Source: a, Kind: Development}
	if err := CheckSources([]*Dependency{unix, same}); err != nil {
		t.Errorf("same source in two tables: %v", err)
	}
}

func TestLock(t *testing.T) {
	d := &Dependency{Name: "serde", VersionReq: "^1.0"}
	d.Lock("1.0.197")
	if d.VersionReq != "=1.0.197" || d.LockedVersion != "1.0.197" {
		t.Errorf("Lock() = %+v", d)
	}
}
