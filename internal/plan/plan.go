// Package plan implements the PlanKind/Plan/Edge types: the tagged node
// role, the (kind, arguments) pair the external parser produces, and the
// declared compatibility triple each node factory's input/output expose.
// Grounded on original_source/crates/xlake-ast/src/lib.rs's PlanKind enum
// and crates/xlake-core/src/lib.rs's PipeEdge.
package plan

import (
	"fmt"

	"github.com/xlake-project/xlake/internal/value"
)

// Type tags the role family a Kind belongs to.
type Type uint8

const (
	TypeFormat Type = iota
	TypeModel
	TypeFunc
	TypeSrc
	TypeSink
	TypeStore
)

func (t Type) String() string {
	switch t {
	case TypeFormat:
		return "format"
	case TypeModel:
		return "model"
	case TypeFunc:
		return "function"
	case TypeSrc:
		return "src"
	case TypeSink:
		return "sink"
	case TypeStore:
		return "store"
	default:
		return "unknown"
	}
}

// Kind is the tagged variant identifying a node's role. Exactly one of the
// constructors below should be used to build one; Func is the only variant
// carrying two identifying strings (model name + function name).
type Kind struct {
	typ       Type
	name      string
	modelName string
	funcName  string
}

func Format(name string) Kind { return Kind{typ: TypeFormat, name: name} }
func Model(name string) Kind  { return Kind{typ: TypeModel, name: name} }
func Src(name string) Kind    { return Kind{typ: TypeSrc, name: name} }
func Sink(name string) Kind   { return Kind{typ: TypeSink, name: name} }
func Store(name string) Kind  { return Kind{typ: TypeStore, name: name} }
func Func(modelName, funcName string) Kind {
	return Kind{typ: TypeFunc, modelName: modelName, funcName: funcName}
}

func (k Kind) Type() Type { return k.typ }

// Name is the node's identifying name for non-Func kinds (the registry key
// besides Type).
func (k Kind) Name() string { return k.name }

// FuncParts returns the model name and function name for a Func kind.
func (k Kind) FuncParts() (modelName, funcName string) { return k.modelName, k.funcName }

// String renders the kind's canonical textual form used in logs and error
// messages: "{model}:{func}" for Func, "{name}{Type}" for everything else,
// matching xlake-ast's Display impl.
func (k Kind) String() string {
	if k.typ == TypeFunc {
		return fmt.Sprintf("%s:%s", k.modelName, k.funcName)
	}
	return fmt.Sprintf("%s%s", k.name, k.typ)
}

// RegistryKey is the map key the node registry indexes factories by.
func (k Kind) RegistryKey() string {
	if k.typ == TypeFunc {
		return fmt.Sprintf("func:%s:%s", k.modelName, k.funcName)
	}
	return fmt.Sprintf("%s:%s", k.typ, k.name)
}

// Plan pairs a Kind with its argument object, the unit the external parser
// produces one of per pipeline element.
type Plan struct {
	Kind Kind
	Args *value.Object
}

// Edge is the declared compatibility triple a node factory's input/output
// expose: the batch engine name, the set of model names required/supplied,
// and the stream-form name. An absent axis (empty string / nil set) means
// "no constraint".
type Edge struct {
	Batch  string
	Models []string
	Stream string
}

// HasModel reports whether name is among e.Models.
func (e Edge) HasModel(name string) bool {
	for _, m := range e.Models {
		if m == name {
			return true
		}
	}
	return false
}
