package profile

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/surface"
)

const seeDocs = "See https://doc.rust-lang.org/cargo/reference/profiles.html for more on configuring profiles."

// reserved holds profile names kept free for future built-in profiles.
var reserved = map[string]bool{
	"build": true, "check": true, "clean": true, "config": true, "fetch": true,
	"fix": true, "install": true, "metadata": true, "package": true, "publish": true,
	"report": true, "root": true, "run": true, "rust": true, "rustc": true,
	"rustdoc": true, "target": true, "tmp": true, "uninstall": true,
}

// Validate checks the profile called name and its override nodes.
// Non-fatal findings are appended to warnings.
func Validate(name string, p Profile, feats *features.Features, warnings *[]string) error {
	if err := validateProfile(name, p, feats); err != nil {
		return err
	}
	if p.BuildOverride != nil {
		if err := validateOverride(*p.BuildOverride, "build-override"); err != nil {
			return err
		}
		if err := validateProfile(name+".build-override", *p.BuildOverride, feats); err != nil {
			return err
		}
	}
	for _, pattern := range surface.SortedPatterns(p.Package) {
		o := p.Package[pattern]
		if err := validateOverride(o, "package"); err != nil {
			return err
		}
		if err := validateProfile(fmt.Sprintf("%s.package.%s", name, pattern), o, feats); err != nil {
			return err
		}
	}

	if err := ValidateName(name); err != nil {
		return err
	}

	if p.DirName != nil {
		return errors.New(errors.ErrCodeInvalidManifest,
			"dir-name=%q in profile `%s` is not currently allowed, "+
				"directory names are tied to the profile name for custom profiles", *p.DirName, name)
	}
	if p.Inherits != nil && *p.Inherits == "debug" {
		return errors.New(errors.ErrCodeInvalidManifest,
			"profile.%s.inherits=\"debug\" should be profile.%s.inherits=\"dev\"", name, name)
	}

	switch name {
	case "doc":
		appendWarning(warnings, "profile `doc` is deprecated and has no effect")
	case "test", "bench":
		if p.Panic != nil {
			appendWarning(warnings, fmt.Sprintf("`panic` setting is ignored for `%s` profile", name))
		}
	}

	if p.Panic != nil && *p.Panic != "unwind" && *p.Panic != "abort" {
		return errors.New(errors.ErrCodeInvalidManifest,
			"`panic` setting of `%s` is not a valid setting, must be `unwind` or `abort`", *p.Panic)
	}
	if p.LTO != nil && !p.LTO.IsBool && (p.LTO.Str == "true" || p.LTO.Str == "false") {
		return errors.New(errors.ErrCodeInvalidManifest,
			"`lto` setting of string `\"%s\"` for `%s` profile is not a valid setting, "+
				"must be a boolean (`true`/`false`) or a string (`\"thin\"`/`\"fat\"`/`\"off\"`) or omitted.",
			p.LTO.Str, name)
	}
	return nil
}

func appendWarning(warnings *[]string, w string) {
	if warnings != nil {
		*warnings = append(*warnings, w)
	}
}

// ValidateName checks a profile name: letters, digits, `_` and `-` only,
// and none of the reserved names (compared case-insensitively).
func ValidateName(name string) error {
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return errors.New(errors.ErrCodeInvalidManifest,
				"invalid character `%c` in profile name `%s`\n"+
					"Allowed characters are letters, numbers, underscore, and hyphen.", r, name)
		}
	}

	lower := strings.ToLower(name)
	switch {
	case lower == "debug":
		return errors.New(errors.ErrCodeReservedName,
			"profile name `%s` is reserved\n"+
				"To configure the default development profile, use the name `dev` as in [profile.dev]\n%s",
			name, seeDocs)
	case lower == "build-override":
		return errors.New(errors.ErrCodeReservedName,
			"profile name `%s` is reserved\n"+
				"To configure build dependency settings, use [profile.dev.build-override] "+
				"and [profile.release.build-override]\n%s", name, seeDocs)
	case reserved[lower] || strings.HasPrefix(lower, "cargo"):
		return errors.New(errors.ErrCodeReservedName,
			"profile name `%s` is reserved\nPlease choose a different name.\n%s", name, seeDocs)
	}
	return nil
}

// validateProfile is the shallow check shared by profiles and override
// nodes.
func validateProfile(name string, p Profile, feats *features.Features) error {
	if p.CodegenBackend != nil {
		if err := feats.Require(features.CodegenBackend); err != nil {
			return err
		}
		for _, r := range *p.CodegenBackend {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
				return errors.New(errors.ErrCodeInvalidManifest,
					"`profile.%s.codegen-backend` setting of `%s` is not a valid backend name.", name, *p.CodegenBackend)
			}
		}
	}
	if p.Rustflags != nil {
		if err := feats.Require(features.ProfileRustflags); err != nil {
			return err
		}
	}
	if p.OptLevel != nil {
		switch *p.OptLevel {
		case "0", "1", "2", "3", "s", "z":
		default:
			return errors.New(errors.ErrCodeInvalidManifest,
				"`profile.%s.opt-level` must be `0`, `1`, `2`, `3`, `s` or `z`, but found `%s`", name, *p.OptLevel)
		}
	}
	return nil
}

// validateOverride rejects what an override node may not set.
func validateOverride(p Profile, which string) error {
	switch {
	case p.Package != nil:
		return errors.New(errors.ErrCodeInvalidManifest, "package-specific profiles cannot be nested")
	case p.BuildOverride != nil:
		return errors.New(errors.ErrCodeInvalidManifest, "build-override profiles cannot be nested")
	case p.Panic != nil:
		return errors.New(errors.ErrCodeInvalidManifest, "`panic` may not be specified in a `%s` profile", which)
	case p.LTO != nil:
		return errors.New(errors.ErrCodeInvalidManifest, "`lto` may not be specified in a `%s` profile", which)
	case p.Rpath != nil:
		return errors.New(errors.ErrCodeInvalidManifest, "`rpath` may not be specified in a `%s` profile", which)
	}
	return nil
}
