package targets

import (
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/surface"
)

func ptr[T any](v T) *T { return &v }

func tree(files ...string) fstest.MapFS {
	m := fstest.MapFS{}
	for _, f := range files {
		m[f] = &fstest.MapFile{Data: []byte("fn main() {}\n")}
	}
	return m
}

func manifest(t *testing.T, text string) *surface.Manifest {
	t.Helper()
	doc, err := surface.Parse([]byte(text))
	if err != nil {
		t.Fatal(err)
	}
	m, _, err := surface.Decode(doc)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

const pkgDoc = `
[package]
name = "my-tool"
version = "0.1.0"
`

func names(ts []Target) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t.Kind) + ":" + t.Name + "@" + t.Path
	}
	return out
}

func TestInferLayout(t *testing.T) {
	fsys := tree(
		"src/lib.rs", "src/main.rs",
		"src/bin/extra.rs", "src/bin/multi/main.rs", "src/bin/multi/helper.rs",
		"examples/demo.rs", "tests/it.rs", "benches/speed.rs", "build.rs",
	)
	in := Input{Manifest: manifest(t, pkgDoc), PackageName: "my-tool", Root: "/p", Edition: "2021"}
	got, err := FSInferrer{FS: fsys}.Infer(in, nil, nil)
	if err != nil {
		t.Fatalf("Infer() error: %v", err)
	}
	want := []string{
		"lib:my_tool@src/lib.rs",
		"bin:my-tool@src/main.rs",
		"bin:extra@src/bin/extra.rs",
		"bin:multi@src/bin/multi/main.rs",
		"example:demo@examples/demo.rs",
		"test:it@tests/it.rs",
		"bench:speed@benches/speed.rs",
		"custom-build:build-script-build@build.rs",
	}
	if !reflect.DeepEqual(names(got), want) {
		t.Errorf("targets = %v\nwant %v", names(got), want)
	}
	if got[0].Edition != "2021" || !reflect.DeepEqual(got[0].CrateTypes, []string{"lib"}) {
		t.Errorf("lib = %+v", got[0])
	}
}

func TestInferDeclared(t *testing.T) {
	m := manifest(t, pkgDoc+`
autoexamples = false

[lib]
name = "core"
proc-macro = true
edition = "2018"

[[bin]]
name = "cli"
path = "tools/cli.rs"
required-features = ["cli"]
`)
	fsys := tree("src/lib.rs", "tools/cli.rs", "examples/ignored.rs")
	got, err := FSInferrer{FS: fsys}.Infer(Input{Manifest: m, PackageName: "my-tool", Edition: "2021"}, nil, nil)
	if err != nil {
		t.Fatalf("Infer() error: %v", err)
	}
	want := []string{"lib:core@src/lib.rs", "bin:cli@tools/cli.rs"}
	if !reflect.DeepEqual(names(got), want) {
		t.Fatalf("targets = %v, want %v", names(got), want)
	}
	if got[0].Edition != "2018" || got[0].CrateTypes[0] != "proc-macro" {
		t.Errorf("lib = %+v", got[0])
	}
	if !reflect.DeepEqual(got[1].RequiredFeatures, []string{"cli"}) {
		t.Errorf("bin = %+v", got[1])
	}
}

func TestInferErrors(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		files []string
		want  string
	}{
		{"missing lib", "\n[lib]\nname = \"x\"\n", nil, "can't find library `x`"},
		{"hyphen lib", "\n[lib]\nname = \"a-b\"\n", []string{"src/lib.rs"}, "library target names cannot contain hyphens"},
		{"bin without name", "\n[[bin]]\npath = \"a.rs\"\n", nil, "bin.name is required"},
		{"bin not found", "\n[[bin]]\nname = \"x\"\n", nil, "can't find `x` bin"},
		{"duplicate bins", "\n[[bin]]\nname = \"x\"\npath = \"a.rs\"\n\n[[bin]]\nname = \"x\"\npath = \"b.rs\"\n", nil, "found duplicate binary name x"},
		{"missing example", "\n[[example]]\nname = \"demo\"\n", nil, "can't find `demo` example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{Manifest: manifest(t, pkgDoc+tt.extra), PackageName: "my-tool"}
			_, err := FSInferrer{FS: tree(tt.files...)}.Infer(in, nil, nil)
			if err == nil || !strings.Contains(errors.UserMessage(err), tt.want) {
				t.Errorf("Infer() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestInferFilenameGate(t *testing.T) {
	m := manifest(t, pkgDoc+"\n[[bin]]\nname = \"x\"\npath = \"x.rs\"\nfilename = \"x-tool\"\n")
	in := Input{Manifest: m, PackageName: "my-tool"}
	if _, err := (FSInferrer{FS: tree("x.rs")}).Infer(in, nil, nil); !errors.Is(err, errors.ErrCodeGateNotEnabled) {
		t.Fatalf("Infer() error = %v, want GATE_NOT_ENABLED", err)
	}

	feats, err := features.New([]string{features.DifferentBinaryName}, features.Env{AllowUnstable: true}, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	in.Features = feats
	got, err := FSInferrer{FS: tree("x.rs")}.Infer(in, nil, nil)
	if err != nil || got[0].Filename != "x-tool" {
		t.Errorf("Infer() = %+v, %v", got, err)
	}
}

func TestInferBuildScript(t *testing.T) {
	tests := []struct {
		name  string
		build *surface.StringOrBool
		files []string
		want  string
	}{
		{"inferred", nil, []string{"build.rs"}, "build.rs"},
		{"absent", nil, nil, ""},
		{"disabled", ptr(surface.Boolv(false)), []string{"build.rs"}, ""},
		{"forced", ptr(surface.Boolv(true)), nil, "build.rs"},
		{"custom", ptr(surface.Strv("tools/gen.rs")), nil, "tools/gen.rs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := append([]string{"src/lib.rs"}, tt.files...)
			in := Input{Manifest: manifest(t, pkgDoc), PackageName: "p", Build: tt.build}
			got, err := FSInferrer{FS: tree(files...)}.Infer(in, nil, nil)
			if err != nil {
				t.Fatal(err)
			}
			var path string
			for _, tgt := range got {
				if tgt.IsCustomBuild() {
					path = tgt.Path
				}
			}
			if path != tt.want {
				t.Errorf("build script = %q, want %q", path, tt.want)
			}
		})
	}
}

func TestInferMetabuild(t *testing.T) {
	in := Input{Manifest: manifest(t, pkgDoc), PackageName: "p", Metabuild: []string{"gen"}}
	if _, err := (FSInferrer{FS: tree("src/lib.rs")}).Infer(in, nil, nil); !errors.Is(err, errors.ErrCodeGateNotEnabled) {
		t.Fatalf("Infer() error = %v, want GATE_NOT_ENABLED", err)
	}

	feats, err := features.New([]string{features.Metabuild}, features.Env{AllowUnstable: true}, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	in.Features = feats
	got, err := FSInferrer{FS: tree("src/lib.rs")}.Infer(in, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	last := got[len(got)-1]
	if !last.IsCustomBuild() || !reflect.DeepEqual(last.Metabuild, []string{"gen"}) {
		t.Errorf("metabuild target = %+v", last)
	}

	in.Build = ptr(surface.Strv("build.rs"))
	if _, err := (FSInferrer{FS: tree("src/lib.rs")}).Infer(in, nil, nil); !errors.Is(err, errors.ErrCodeFieldConflict) {
		t.Errorf("build + metabuild error = %v", err)
	}
}

func TestDuplicatePath(t *testing.T) {
	ts := []Target{
		{Kind: Bin, Name: "a", Path: "src/main.rs"},
		{Kind: Example, Name: "b", Path: "./src/main.rs"},
	}
	if p, ok := DuplicatePath("/pkg", ts); !ok || p != "/pkg/src/main.rs" {
		t.Errorf("DuplicatePath() = %q, %v", p, ok)
	}
	if _, ok := DuplicatePath("/pkg", ts[:1]); ok {
		t.Error("single target reported as duplicate")
	}
}

func TestInferBinCrateTypesCritical(t *testing.T) {
	m := manifest(t, pkgDoc+`
[[bin]]
name = "tool"
path = "src/main.rs"
crate-type = ["cdylib"]
`)
	var warnings, critical []string
	in := Input{Manifest: m, PackageName: "my-tool", Edition: "2021"}
	if _, err := (FSInferrer{FS: tree("src/main.rs")}).Infer(in, &warnings, &critical); err != nil {
		t.Fatalf("Infer() error: %v", err)
	}
	want := "the target `tool` is a binary and can't have any crate-types set (currently \"cdylib\")"
	if len(critical) != 1 || critical[0] != want {
		t.Errorf("critical = %q, want [%q]", critical, want)
	}
}
