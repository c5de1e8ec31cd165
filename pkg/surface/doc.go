// Package surface is the typed, as-written model of a package manifest.
//
// A manifest arrives as a generic tree (map[string]any) produced by a TOML
// parser. [Decode] turns that tree into a [Manifest] without applying any
// resolution logic: values that may be inherited from a workspace stay
// wrapped in [MaybeInherited], dependency declarations keep their surface
// form ([SimpleDependency], [*DetailedDependency] or [*WorkspaceDependency]),
// and profiles keep their override tree.
//
// # Shape-based decoding
//
// Every alternative spelling is disambiguated once, by the shape of the
// value:
//
//	serde = "1.0"                     // bare string: SimpleDependency
//	serde = { workspace = true }      // table with the workspace flag
//	serde = { version = "1.0" }       // plain table: DetailedDependency
//	version = "0.1.0"                 // concrete field
//	version.workspace = true          // inherited field
//
// # Unused keys
//
// Keys that no part of the model consumes are reported by [Decode] as dotted
// paths (for example `package.colour` or `dependencies.serde.featurs`) so the
// caller can emit "unused manifest key" warnings.
package surface
