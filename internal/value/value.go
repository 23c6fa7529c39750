// Package value implements the tagged value tree records are built from:
// Null, Bool, Number, Binary and String, plus the ordered Object map that
// carries them.
package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind tags which variant of Value is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindBinary
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindBinary:
		return "binary"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Number holds either a fixed JSON-style number (json.Number, which
// round-trips ints and floats without precision loss) or a dynamic/symbolic
// number carried as its literal string form.
type Number struct {
	Fixed   json.Number
	Dynamic string
	dynamic bool
}

// FixedNumber builds a Number from a literal numeric string.
func FixedNumber(s string) Number { return Number{Fixed: json.Number(s)} }

// DynamicNumber builds a Number from a non-fixed numeric string.
func DynamicNumber(s string) Number { return Number{Dynamic: s, dynamic: true} }

func (n Number) IsDynamic() bool { return n.dynamic }

func (n Number) String() string {
	if n.dynamic {
		return n.Dynamic
	}
	return string(n.Fixed)
}

// Value is a tagged sum: exactly one of the typed fields is meaningful,
// selected by Kind.
type Value struct {
	Kind   Kind
	Bool   bool
	Number Number
	Binary []byte
	String string
}

func Null() Value                  { return Value{Kind: KindNull} }
func Bool(b bool) Value            { return Value{Kind: KindBool, Bool: b} }
func Int(v int64) Value            { return Value{Kind: KindNumber, Number: FixedNumber(fmt.Sprintf("%d", v))} }
func NumberValue(n Number) Value   { return Value{Kind: KindNumber, Number: n} }
func Binary(b []byte) Value        { return Value{Kind: KindBinary, Binary: append([]byte(nil), b...)} }
func String(s string) Value        { return Value{Kind: KindString, String: s} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsBinary returns the value's byte view, coercing a String in place (the
// caller holds a *Value so the coercion is visible to subsequent callers,
// matching the layered object's promotion-on-access rule).
func (v *Value) AsBinary() ([]byte, bool) {
	switch v.Kind {
	case KindBinary:
		return v.Binary, true
	case KindString:
		b := []byte(v.String)
		v.Kind = KindBinary
		v.Binary = b
		v.String = ""
		return v.Binary, true
	default:
		return nil, false
	}
}

func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.String, true
}

func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

func (v Value) AsNumber() (Number, bool) {
	if v.Kind != KindNumber {
		return Number{}, false
	}
	return v.Number, true
}

// MarshalJSON writes the wire shape: Value marshals/unmarshals untagged, the
// way the variant it holds naturally serialises to JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		if v.Number.dynamic {
			return json.Marshal(v.Number.Dynamic)
		}
		if v.Number.Fixed == "" {
			return []byte("0"), nil
		}
		return []byte(v.Number.Fixed), nil
	case KindBinary:
		return json.Marshal(base64.StdEncoding.EncodeToString(v.Binary))
	case KindString:
		return json.Marshal(v.String)
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.Kind)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case string(data) == "null":
		*v = Null()
		return nil
	case string(data) == "true":
		*v = Bool(true)
		return nil
	case string(data) == "false":
		*v = Bool(false)
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		*v = NumberValue(FixedNumber(string(data)))
		return nil
	default:
		return fmt.Errorf("value: cannot unmarshal %q", data)
	}
}

// Object is an ordered string-to-Value mapping. Iteration and JSON
// round-trip always visit keys in lexicographic order regardless of
// insertion order, the stable on-disk form required by the wire format.
type Object struct {
	keys   []string
	values map[string]Value
}

func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

func (o *Object) ensure() {
	if o.values == nil {
		o.values = make(map[string]Value)
	}
}

// Insert sets key to value, returning the previous value if one existed.
func (o *Object) Insert(key string, v Value) (Value, bool) {
	o.ensure()
	prev, existed := o.values[key]
	if !existed {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return prev, existed
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil || o.values == nil {
		return Value{}, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Mutate applies fn to the value stored at key, if present, and writes the
// (possibly modified) result back. Go maps don't support &m[k], so this is
// the supported way to perform an in-place coercion such as String->Binary.
func (o *Object) Mutate(key string, fn func(*Value)) bool {
	if o == nil || o.values == nil {
		return false
	}
	v, ok := o.values[key]
	if !ok {
		return false
	}
	fn(&v)
	o.values[key] = v
	return true
}

// Delete removes key, preserving order of remaining keys.
func (o *Object) Delete(key string) {
	if o == nil || o.values == nil {
		return
	}
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns keys in lexicographic order, the order required for stable
// on-disk and canonical-hash encoding.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := append([]string(nil), o.keys...)
	sort.Strings(keys)
	return keys
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.values)
}

// Clone returns a deep-enough copy (Binary slices are copied; Object
// structure is independent of the original).
func (o *Object) Clone() *Object {
	clone := NewObject()
	if o == nil {
		return clone
	}
	for _, k := range o.Keys() {
		v := o.values[k]
		if v.Kind == KindBinary {
			v.Binary = append([]byte(nil), v.Binary...)
		}
		clone.Insert(k, v)
	}
	return clone
}

// Merge overlays other on top of o: keys in other replace keys in o
// (last-write-wins), keys only in o are kept as-is. Returns a new Object;
// neither input is mutated.
func Merge(base, overlay *Object) *Object {
	out := base.Clone()
	if overlay == nil {
		return out
	}
	for _, k := range overlay.Keys() {
		v, _ := overlay.Get(k)
		out.Insert(k, v)
	}
	return out
}

func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		v, _ := o.Get(k)
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	o.values = make(map[string]Value, len(raw))
	o.keys = nil
	for _, k := range keys {
		var v Value
		if err := json.Unmarshal(raw[k], &v); err != nil {
			return fmt.Errorf("value: field %q: %w", k, err)
		}
		o.Insert(k, v)
	}
	return nil
}

func (o *Object) String() string {
	b, err := json.Marshal(o)
	if err != nil {
		return fmt.Sprintf("<object marshal error: %v>", err)
	}
	return string(b)
}
