package profile

import "github.com/matzehuels/crateman/pkg/surface"

// Merge returns base with the knobs set in override applied on top.
//
// Scalars set in override replace those of base. Package overrides merge
// per key: an existing key is merged recursively, a new key is inserted.
// The build override is merged recursively when both sides have one and
// copied otherwise. Neither argument is modified.
func Merge(base, override Profile) Profile {
	out := Clone(base)

	if override.OptLevel != nil {
		out.OptLevel = override.OptLevel
	}
	if override.LTO != nil {
		out.LTO = override.LTO
	}
	if override.CodegenBackend != nil {
		out.CodegenBackend = override.CodegenBackend
	}
	if override.CodegenUnits != nil {
		out.CodegenUnits = override.CodegenUnits
	}
	if override.Debug != nil {
		out.Debug = override.Debug
	}
	if override.DebugAssertions != nil {
		out.DebugAssertions = override.DebugAssertions
	}
	if override.SplitDebuginfo != nil {
		out.SplitDebuginfo = override.SplitDebuginfo
	}
	if override.Rpath != nil {
		out.Rpath = override.Rpath
	}
	if override.Panic != nil {
		out.Panic = override.Panic
	}
	if override.OverflowChecks != nil {
		out.OverflowChecks = override.OverflowChecks
	}
	if override.Incremental != nil {
		out.Incremental = override.Incremental
	}
	if override.Rustflags != nil {
		out.Rustflags = append([]string(nil), override.Rustflags...)
	}

	if override.Package != nil {
		if out.Package == nil {
			out.Package = make(map[surface.PackagePattern]Profile, len(override.Package))
		}
		for pattern, p := range override.Package {
			if existing, ok := out.Package[pattern]; ok {
				out.Package[pattern] = Merge(existing, p)
			} else {
				out.Package[pattern] = Clone(p)
			}
		}
	}

	if override.BuildOverride != nil {
		if out.BuildOverride != nil {
			merged := Merge(*out.BuildOverride, *override.BuildOverride)
			out.BuildOverride = &merged
		} else {
			c := Clone(*override.BuildOverride)
			out.BuildOverride = &c
		}
	}

	if override.Inherits != nil {
		out.Inherits = override.Inherits
	}
	if override.DirName != nil {
		out.DirName = override.DirName
	}
	if override.Strip != nil {
		out.Strip = override.Strip
	}
	return out
}

// Clone returns a copy of p that shares no maps, slices or override nodes
// with it. Scalar pointers are shared: they are never written through.
func Clone(p Profile) Profile {
	out := p
	if p.Rustflags != nil {
		out.Rustflags = append([]string(nil), p.Rustflags...)
	}
	if p.Package != nil {
		out.Package = make(map[surface.PackagePattern]Profile, len(p.Package))
		for k, v := range p.Package {
			out.Package[k] = Clone(v)
		}
	}
	if p.BuildOverride != nil {
		bo := Clone(*p.BuildOverride)
		out.BuildOverride = &bo
	}
	return out
}
