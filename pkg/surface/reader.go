package surface

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/matzehuels/crateman/pkg/errors"
)

// decoder accumulates the keys no table reader consumed.
type decoder struct {
	unused []string
}

// table reads typed values out of one generic table and remembers which
// keys were consumed. The first error sticks: later reads return zero
// values and done reports it.
type table struct {
	d    *decoder
	path string
	m    map[string]any
	seen map[string]bool
	err  error
}

func (d *decoder) table(path string, m map[string]any) *table {
	return &table{d: d, path: path, m: m, seen: make(map[string]bool, len(m))}
}

func (t *table) key(k string) string {
	if t.path == "" {
		return k
	}
	return t.path + "." + k
}

func (t *table) get(k string) (any, bool) {
	if t.err != nil {
		return nil, false
	}
	v, ok := t.m[k]
	if ok {
		t.seen[k] = true
	}
	return v, ok
}

func (t *table) fail(err error) {
	if t.err == nil {
		t.err = err
	}
}

// done records every key that was never read and returns the first error.
func (t *table) done() error {
	if t.err != nil {
		return t.err
	}
	keys := make([]string, 0)
	for k := range t.m {
		if !t.seen[k] {
			keys = append(keys, t.key(k))
		}
	}
	sort.Strings(keys)
	t.d.unused = append(t.d.unused, keys...)
	return nil
}

func (t *table) str(k string) *string {
	v, ok := t.get(k)
	if !ok {
		return nil
	}
	s, err := asString(t.key(k), v)
	if err != nil {
		t.fail(err)
		return nil
	}
	return &s
}

func (t *table) boolean(k string) *bool {
	v, ok := t.get(k)
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		t.fail(typeError(t.key(k), "a boolean", v))
		return nil
	}
	return &b
}

func (t *table) u32(k string) *uint32 {
	v, ok := t.get(k)
	if !ok {
		return nil
	}
	n, err := asU32(t.key(k), v)
	if err != nil {
		t.fail(err)
		return nil
	}
	return &n
}

// strs returns nil when the key is absent and a non-nil slice otherwise.
func (t *table) strs(k string) []string {
	v, ok := t.get(k)
	if !ok {
		return nil
	}
	out, err := asStrings(t.key(k), v)
	if err != nil {
		t.fail(err)
		return nil
	}
	return out
}

// sub returns the nested table under k, or nil when k is absent.
func (t *table) sub(k string) *table {
	v, ok := t.get(k)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.fail(typeError(t.key(k), "a table", v))
		return nil
	}
	return t.d.table(t.key(k), m)
}

// tables returns the array of tables under k, or nil when k is absent.
func (t *table) tables(k string) []*table {
	v, ok := t.get(k)
	if !ok {
		return nil
	}
	items, ok := asSlice(v)
	if !ok {
		t.fail(typeError(t.key(k), "an array of tables", v))
		return nil
	}
	out := make([]*table, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s.%d", t.key(k), i)
		m, ok := item.(map[string]any)
		if !ok {
			t.fail(typeError(path, "a table", item))
			return nil
		}
		out = append(out, t.d.table(path, m))
	}
	return out
}

// sortedKeys returns the table keys in lexicographic order, marking all of
// them as consumed.
func (t *table) sortedKeys() []string {
	keys := make([]string, 0, len(t.m))
	for k := range t.m {
		t.seen[k] = true
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}
	return nil, false
}

func asString(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", typeError(key, "a string", v)
	}
	return s, nil
}

func asStrings(key string, v any) ([]string, error) {
	items, ok := asSlice(v)
	if !ok {
		return nil, typeError(key, "a sequence of strings", v)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, typeError(fmt.Sprintf("%s.%d", key, i), "a string", item)
		}
		out = append(out, s)
	}
	return out, nil
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	}
	return 0, false
}

func asU32(key string, v any) (uint32, error) {
	n, ok := asInt(v)
	if !ok {
		return 0, typeError(key, "an unsigned 32-bit integer", v)
	}
	if n < 0 || n > math.MaxUint32 {
		return 0, errors.New(errors.ErrCodeDocumentSyntax,
			"invalid value: integer `%d`, expected u32 for key `%s`", n, key)
	}
	return uint32(n), nil
}

func typeError(key, want string, v any) error {
	return errors.New(errors.ErrCodeDocumentSyntax,
		"invalid type: %s, expected %s for key `%s`", describe(v), want, key)
}

func describe(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("string %q", x)
	case bool:
		return fmt.Sprintf("boolean `%t`", x)
	case int64, int, int32:
		return fmt.Sprintf("integer `%d`", x)
	case float64:
		return fmt.Sprintf("floating point `%g`", x)
	case time.Time:
		return "datetime"
	case map[string]any:
		return "map"
	}
	if _, ok := asSlice(v); ok {
		return "sequence"
	}
	return fmt.Sprintf("%T", v)
}
