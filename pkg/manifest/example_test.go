package manifest_test

import (
	"fmt"

	"github.com/matzehuels/crateman/pkg/config"
	"github.com/matzehuels/crateman/pkg/manifest"
	"github.com/matzehuels/crateman/pkg/source"
	"github.com/matzehuels/crateman/pkg/surface"
	"github.com/matzehuels/crateman/pkg/targets"
)

// libOnly reports a single library target without touching the filesystem.
type libOnly struct{}

func (libOnly) Infer(in targets.Input, _, _ *[]string) ([]targets.Target, error) {
	return []targets.Target{{Kind: targets.Lib, Name: in.PackageName, Path: "src/lib.rs"}}, nil
}

func ExampleResolve() {
	doc, err := surface.Parse([]byte(`
[package]
name = "app"
version = "1.2.0"
edition = "2021"

[dependencies]
serde = { version = "1.0", features = ["derive"] }

[build-dependencies]
cc = "1"
`))
	if err != nil {
		panic(err)
	}

	res, err := manifest.Resolve(doc, "/src/app/Cargo.toml", source.DefaultIndex(), manifest.Options{
		Config:   config.Default("/src/app"),
		Inferrer: libOnly{},
	})
	if err != nil {
		panic(err)
	}

	pkg := res.Package
	fmt.Println(pkg.Name, pkg.Version, pkg.Edition)
	for _, d := range pkg.Dependencies {
		fmt.Println(d.Kind, d.Name, d.VersionReq, d.Features)
	}
	// Output:
	// app 1.2.0 2021
	// normal serde 1.0 [derive]
	// build cc 1 []
}

func ExampleResolve_virtual() {
	doc, err := surface.Parse([]byte(`
[workspace]
members = ["crates/*"]
resolver = "2"

[profile.release]
opt-level = 3
`))
	if err != nil {
		panic(err)
	}

	res, err := manifest.Resolve(doc, "/src/ws/Cargo.toml", source.DefaultIndex(), manifest.Options{
		Config: config.Default("/src/ws"),
	})
	if err != nil {
		panic(err)
	}

	v := res.Virtual
	fmt.Println("members:", v.Workspace.Members)
	fmt.Println("resolver:", v.Resolver)
	fmt.Println("profiles:", v.Profiles.Names())
	// Output:
	// members: [crates/*]
	// resolver: 2
	// profiles: [release]
}
