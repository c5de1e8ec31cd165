package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeFieldConflict, "test message: %s", "value")

	if err.Code != ErrCodeFieldConflict {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeFieldConflict)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "FIELD_CONFLICT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDocumentSyntax, cause, "failed to parse")

	if err.Code != ErrCodeDocumentSyntax {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDocumentSyntax)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestContextKeepsCode(t *testing.T) {
	inner := New(ErrCodeInheritance, "`workspace.package.version` was not defined")
	err := Context(inner, "error inheriting `version`")

	if GetCode(err) != ErrCodeInheritance {
		t.Errorf("GetCode() = %v, want %v", GetCode(err), ErrCodeInheritance)
	}

	plain := Context(errors.New("boom"), "while reading")
	if GetCode(plain) != ErrCodeInvalidManifest {
		t.Errorf("GetCode() = %v, want %v", GetCode(plain), ErrCodeInvalidManifest)
	}

	if Context(nil, "unused") != nil {
		t.Error("Context(nil) should return nil")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeFieldConflict, "test"),
			code:     ErrCodeFieldConflict,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeFieldConflict, "test"),
			code:     ErrCodeReservedName,
			expected: false,
		},
		{
			name:     "outer code",
			err:      Wrap(ErrCodeDocumentSyntax, New(ErrCodeFieldConflict, "inner"), "outer"),
			code:     ErrCodeDocumentSyntax,
			expected: true,
		},
		{
			name:     "inner code",
			err:      Wrap(ErrCodeDocumentSyntax, New(ErrCodeFieldConflict, "inner"), "outer"),
			code:     ErrCodeFieldConflict,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidPackage, "test"),
			expected: ErrCodeInvalidPackage,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
		{
			name:     "chain",
			err:      Wrap(ErrCodeInvalidManifest, New(ErrCodeFieldConflict, "inner"), "outer"),
			expected: "outer\n\nCaused by:\n  inner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGateNotEnabled(t *testing.T) {
	err := GateNotEnabled("public-dependency", "consider adding `cargo-features = [\"public-dependency\"]`")

	if !Is(err, ErrCodeGateNotEnabled) {
		t.Fatalf("Is(GATE_NOT_ENABLED) = false for %v", err)
	}

	var gate *GateError
	if !errors.As(err, &gate) {
		t.Fatal("errors.As(*GateError) = false")
	}
	if gate.Feature != "public-dependency" {
		t.Errorf("Feature = %q, want public-dependency", gate.Feature)
	}
	if gate.Code() != ErrCodeGateNotEnabled {
		t.Errorf("Code() = %v, want %v", gate.Code(), ErrCodeGateNotEnabled)
	}
	if !strings.Contains(err.Error(), "consider adding") {
		t.Errorf("Error() should carry guidance: %s", err.Error())
	}
}
