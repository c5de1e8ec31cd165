// Package workspace resolves values a package inherits from its workspace
// root.
//
// A package is linked to a workspace in one of three ways ([Linkage]):
//
//   - it is the root itself (the document declares [workspace])
//   - it names the root explicitly (`package.workspace = "../.."`)
//   - it is a member whose root is found by searching ancestor directories
//
// A [Resolver] turns the linkage into the root's [InheritableFields]. The
// root document is loaded lazily, through a compute-once [Cell], so a pass
// that inherits many fields still reads the root at most once.
//
// Values are pulled out of the fields with [Resolve], which also enforces
// the `workspace-inheritance` capability gate and the error wording users
// see when a field is missing from the root.
package workspace

// ManifestName is the file name of a manifest inside a package directory.
const ManifestName = "Cargo.toml"
