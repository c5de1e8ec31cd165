package errors

import (
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "serde", false},
		{"valid with dash", "serde-json", false},
		{"valid with underscore", "serde_json", false},
		{"valid with digits", "base64", false},
		{"valid unicode letter", "café", false},

		{"empty", "", true},
		{"leading digit", "1password", true},
		{"dot", "my.package", true},
		{"slash", "foo/bar", true},
		{"space", "foo bar", true},
		{"null byte", "foo\x00bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input, "package name")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPackage) {
				t.Errorf("ValidatePackageName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPackage)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://github.com/rust-lang/crates.io-index", false},
		{"ssh", "ssh://git@github.com/user/repo.git", false},
		{"file", "file:///tmp/index", false},
		{"with fragment", "https://github.com/user/repo#abc123", false},

		{"empty", "", true},
		{"relative", "github.com/user/repo", true},
		{"scp style", "git@github.com:user/repo.git", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRelativePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"sibling", "../foo", false},
		{"nested", "crates/foo", false},
		{"absolute", "/opt/foo", false},

		{"empty", "", true},
		{"null byte", "foo\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelativePath(tt.input, "path")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRelativePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeDocumentSyntax,
		ErrCodeFileNotFound,
		ErrCodeFieldConflict,
		ErrCodeMissingRequirement,
		ErrCodeReservedName,
		ErrCodeGateNotEnabled,
		ErrCodeInheritance,
		ErrCodeInvalidInput,
		ErrCodeInvalidManifest,
		ErrCodeInvalidPackage,
		ErrCodeInvalidPath,
		ErrCodeInternal,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
