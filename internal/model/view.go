package model

import (
	"github.com/xlake-project/xlake/internal/object"
	"github.com/xlake-project/xlake/internal/value"
)

// View is a zero-cost wrapper asserting that Record provides Schema. Views
// are constructed only via Cast, which re-validates field presence; a
// failed cast returns the original record untouched (spec 4.2's
// cast(record) -> Ok(view) | Err(record)).
type View struct {
	Record *object.LazyObject
	Schema *Model
}

// Cast validates that record provides schema and, on success, wraps it in a
// View. On failure it returns the same record so the caller can try the
// next candidate model (the stdoutsink fallthrough in builtins relies on
// this).
func Cast(record *object.LazyObject, schema *Model) (*View, *object.LazyObject) {
	if !schema.Provides(record) {
		return nil, record
	}
	return &View{Record: record, Schema: schema}, nil
}

// Into unwraps the View back to its underlying record (Views round-trip
// through Into the way spec 4.2 requires).
func (v *View) Into() *object.LazyObject {
	return v.Record
}

// coerceFor returns a coercion function appropriate to kind: Binary fields
// coerce a String value into Binary in place (the one documented
// promotion); every other kind requires an exact variant match.
func coerceFor(kind value.Kind) func(*value.Value) bool {
	switch kind {
	case value.KindBinary:
		return func(v *value.Value) bool {
			_, ok := v.AsBinary()
			return ok
		}
	default:
		return func(v *value.Value) bool {
			return v.Kind == kind
		}
	}
}

// Get performs a typed field access: it looks up name, requires it be
// declared on the schema, and applies the declared kind's coercion. Returns
// ok=false if the field is undeclared, absent, or present with an
// incompatible variant (the "surfaced as a typed-getter failure" case from
// spec 4.2).
func (v *View) Get(name string) (value.Value, bool) {
	field, ok := v.Schema.Field(name)
	if !ok {
		return value.Value{}, false
	}
	return v.Record.PeekGet(name, coerceFor(field.Kind))
}

// GetString is a convenience typed getter for string-kinded fields.
func (v *View) GetString(name string) (string, bool) {
	val, ok := v.Get(name)
	if !ok {
		return "", false
	}
	return val.AsString()
}

// GetBinary is a convenience typed getter for binary-kinded fields
// (triggers the String->Binary coercion when the stored value is a
// string).
func (v *View) GetBinary(name string) ([]byte, bool) {
	val, ok := v.Get(name)
	if !ok {
		return nil, false
	}
	return val.AsBinary()
}
