// Package profile validates and merges build profiles.
//
// A profile is a named bundle of build knobs ([profile.release]) with two
// kinds of override nodes: per-package overrides
// ([profile.release.package."<spec>"]) and a build-script override
// ([profile.release.build-override]). Override nodes are exactly one level
// deep.
//
// # Merging
//
// [Merge] overlays one profile on another. Scalars set in the override win;
// package overrides are merged key by key; build overrides merge when both
// sides have one. Merge never mutates its arguments.
//
//	merged := profile.Merge(doc["release"], cfg["release"])
//
// # Validation
//
// [Validate] checks a profile and its override nodes, including the profile
// name rules of [ValidateName] and the capability gates for
// `codegen-backend` and `rustflags`.
package profile
