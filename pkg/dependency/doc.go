// Package dependency normalizes dependency declarations into canonical
// resolved dependencies.
//
// Every declaration in [dependencies], [dev-dependencies],
// [build-dependencies], the per-platform [target.<platform>.*] tables and
// the [replace]/[patch] tables goes through [Context.Resolve]:
//
//  1. workspace expansion: `{ workspace = true }` entries are merged with
//     the base declaration in the workspace root
//  2. source disambiguation: git, path, registry and registry-index are
//     mutually exclusive and select a [source.ID]
//  3. path canonicalization and the nested-paths side channel
//  4. feature syntax validation
//  5. rename and artifact linkage
//  6. public visibility
//
// All state threaded through resolution (accumulated dependencies, nested
// paths, warnings, the current platform filter, the package root and the
// capability set) lives in one [Context] that the caller owns.
//
// After every table has been processed, [CheckSources] enforces that a
// dependency name maps to a single source across all tables.
package dependency
