// Package model implements named model schemas and the View cast over a
// LazyObject record that asserts a record provides a given model, per
// spec section 4.2. Presence of required fields is validated with a
// compiled JSON Schema (github.com/santhosh-tekuri/jsonschema/v5, the exact
// API the teacher's core/types.Validator uses) built from each Model's
// field list; type-variant mismatches are not checked at cast time, only
// surfaced later as a typed-getter failure, per the spec's cast contract.
package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/xlake-project/xlake/internal/invariant"
	"github.com/xlake-project/xlake/internal/object"
	"github.com/xlake-project/xlake/internal/value"
)

// Field declares one required field of a Model: its name and the Value
// variant a typed getter expects once coercion (if any) has run.
type Field struct {
	Name string
	Kind value.Kind
}

// Model is a named schema: a set of required field names. Record presence
// is what's validated at cast time; the declared Kind of each field is used
// only by typed getters.
type Model struct {
	Name   string
	Fields []Field

	schema *jsonschema.Schema
}

// schemaURL is a synthetic identifier; these schemas are never fetched over
// the network, only compiled in-process from an in-memory resource.
func schemaURL(name string) string {
	return "xlake://model/" + name + ".json"
}

// New compiles a Model's presence schema. Panics only on a programmer error
// (a malformed schema document built from bad field names), never on
// record-shaped input.
func New(name string, fields ...Field) *Model {
	required := make([]string, 0, len(fields))
	properties := map[string]any{}
	for _, f := range fields {
		required = append(required, f.Name)
		properties[f.Name] = map[string]any{}
	}
	doc := map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"required":   required,
		"properties": properties,
	}
	raw, err := json.Marshal(doc)
	invariant.ExpectNoError(err, fmt.Sprintf("model %q: marshal schema", name))

	url := schemaURL(name)
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	err = compiler.AddResource(url, strings.NewReader(string(raw)))
	invariant.ExpectNoError(err, fmt.Sprintf("model %q: add schema resource", name))

	schema, err := compiler.Compile(url)
	invariant.ExpectNoError(err, fmt.Sprintf("model %q: compile schema", name))

	return &Model{Name: name, Fields: fields, schema: schema}
}

// Field looks up a declared field by name.
func (m *Model) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Provides reports whether record carries every field this model requires,
// using only already-materialised content (object.LazyObject.PeekGet never
// forces a pending future). This mirrors spec 4.2's cast presence check,
// performed via a JSON-Schema "required" validation over the flattened
// view of present fields rather than a hand-rolled loop.
func (m *Model) Provides(record *object.LazyObject) bool {
	present := map[string]any{}
	for _, f := range m.Fields {
		if _, ok := record.PeekGet(f.Name, nil); ok {
			present[f.Name] = struct{}{}
		}
	}
	return m.schema.Validate(present) == nil
}

// Registry is a process-scope, read-mostly mapping from model name to
// Model, populated at session initialisation (spec 4.7's registry
// describes the analogous node-factory registry; models share the same
// "populate once, read-only on the hot path" shape).
type Registry struct {
	models map[string]*Model
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

func (r *Registry) Register(m *Model) {
	r.models[m.Name] = m
}

func (r *Registry) Lookup(name string) (*Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.models))
	for n := range r.models {
		names = append(names, n)
	}
	return names
}
