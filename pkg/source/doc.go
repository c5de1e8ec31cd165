// Package source defines canonical identifiers for where a dependency's
// code originates.
//
// A [ID] is one of:
//
//   - a filesystem path (absolute, `..`-free)
//   - a git remote plus a [GitReference] (branch, tag, rev or the default branch)
//   - a registry index URL
//   - the default index ([CratesIOIndex])
//
// IDs are comparable values: two dependencies that point at the same source
// compare equal with ==, which is what the manifest assembler relies on to
// enforce that a dependency name maps to a single source across all
// dependency tables.
//
// The package also parses package-id patterns ([Spec]) as used by
// `[replace]` keys and per-package profile overrides, and validates
// semantic versions.
package source
