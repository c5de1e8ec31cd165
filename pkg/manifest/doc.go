// Package manifest assembles a parsed package manifest into a validated,
// canonical package description.
//
// A resolution pass runs a fixed pipeline over one document:
//
//  1. Extract the capability list (cargo-features) and validate it
//  2. Resolve the package identity, inheriting the version if requested
//  3. Resolve the edition and rust-version and cross-check them
//  4. Infer build targets through a [targets.Inferrer]
//  5. Resolve every dependency table, base and per-platform
//  6. Resolve the [replace] and [patch] override tables
//  7. Resolve the remaining metadata, inheriting from the workspace
//  8. Validate the profiles and merge configuration overrides over them
//
// A document without [package] is a virtual manifest: it may only carry
// [workspace], [replace], [patch] and [profile].
//
// # Usage
//
//	res, err := manifest.Read("Cargo.toml", id, manifest.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, w := range res.Warnings.Ordinary {
//	    logger.Warn(w)
//	}
//	pkg := res.Package // nil for virtual manifests
//
// Validation errors abort the pass; no partial description is returned.
// Non-fatal findings are collected in [Result.Warnings].
package manifest
