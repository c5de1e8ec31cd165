package surface

import "encoding/json"

// inheritState distinguishes the arms of MaybeInherited.
type inheritState int

const (
	stateConcrete inheritState = iota
	stateInherit
	stateOptOut
)

// MaybeInherited holds either a concrete value or a request to inherit the
// value from the workspace root (`field.workspace = true`).
//
// `field.workspace = false` decodes successfully but is rejected when the
// field is resolved: inheritance is opt-in only.
type MaybeInherited[T any] struct {
	value T
	state inheritState
}

// Concrete wraps a value declared in the document itself.
func Concrete[T any](v T) MaybeInherited[T] {
	return MaybeInherited[T]{value: v}
}

// Inherit returns the inherit-from-workspace arm.
func Inherit[T any]() MaybeInherited[T] {
	return MaybeInherited[T]{state: stateInherit}
}

// NotInherited returns the `workspace = false` arm.
func NotInherited[T any]() MaybeInherited[T] {
	return MaybeInherited[T]{state: stateOptOut}
}

// IsInherited reports whether the value must be taken from the workspace.
func (m MaybeInherited[T]) IsInherited() bool { return m.state == stateInherit }

// IsOptOut reports whether the document spelled `workspace = false`.
func (m MaybeInherited[T]) IsOptOut() bool { return m.state == stateOptOut }

// Get returns the concrete value and true, or the zero value and false for
// the workspace arms.
func (m MaybeInherited[T]) Get() (T, bool) {
	return m.value, m.state == stateConcrete
}

// StringOrBool is a value spelled either as a string or a boolean, such as
// `build = false` or `build = "tools/build.rs"`.
type StringOrBool struct {
	Str    string
	Bool   bool
	IsBool bool
}

// Strv returns a StringOrBool holding a string.
func Strv(s string) StringOrBool { return StringOrBool{Str: s} }

// Boolv returns a StringOrBool holding a boolean.
func Boolv(b bool) StringOrBool { return StringOrBool{Bool: b, IsBool: true} }

// VecStringOrBool is a value spelled either as a list of strings or a
// boolean, as used by `publish`.
type VecStringOrBool struct {
	List   []string
	Bool   bool
	IsBool bool
}

// U32OrBool is a value spelled either as a non-negative integer or a
// boolean, as used by the profile `debug` knob.
type U32OrBool struct {
	Int    uint32
	Bool   bool
	IsBool bool
}

// MarshalJSON renders the value in the spelling it was written in.
func (v StringOrBool) MarshalJSON() ([]byte, error) {
	if v.IsBool {
		return json.Marshal(v.Bool)
	}
	return json.Marshal(v.Str)
}

// MarshalJSON renders the value in the spelling it was written in.
func (v VecStringOrBool) MarshalJSON() ([]byte, error) {
	if v.IsBool {
		return json.Marshal(v.Bool)
	}
	return json.Marshal(v.List)
}

// MarshalJSON renders the value in the spelling it was written in.
func (v U32OrBool) MarshalJSON() ([]byte, error) {
	if v.IsBool {
		return json.Marshal(v.Bool)
	}
	return json.Marshal(v.Int)
}

func ptr[T any](v T) *T { return &v }
