// Package node implements the node factory contract and the process-scope
// registry factories are looked up from, per spec 4.4/4.7. Node
// implementations are represented as a closed tagged variant (design notes
// in spec 9: "Reimplement as a closed tagged variant over node roles"),
// removing the source lineage's dynamic dispatch on the hot dispatch path
// while keeping the registry itself open to new factories.
package node

import (
	"context"
	"fmt"

	"github.com/xlake-project/xlake/internal/invariant"
	"github.com/xlake-project/xlake/internal/plan"
	"github.com/xlake-project/xlake/internal/store"
	"github.com/xlake-project/xlake/internal/value"
	"github.com/xlake-project/xlake/internal/xchannel"
)

// SrcFunc produces a fresh channel with no upstream input.
type SrcFunc func(ctx context.Context) (*xchannel.Channel, error)

// FuncImplFunc transforms an upstream channel into a new one (covers both
// Format and Func/Model roles, which all share this call shape).
type FuncImplFunc func(ctx context.Context, in *xchannel.Channel) (*xchannel.Channel, error)

// SinkFunc consumes a channel terminally.
type SinkFunc func(ctx context.Context, in *xchannel.Channel) error

// StoreFunc implements the save algorithm (spec 4.6) over a channel.
type StoreFunc func(ctx context.Context, st store.Store, in *xchannel.Channel) (*xchannel.Channel, error)

// Impl is the closed tagged variant every built node implementation
// satisfies: exactly one of the function fields matching Type is non-nil.
type Impl struct {
	Type  plan.Type
	Src   SrcFunc
	Func  FuncImplFunc
	Sink  SinkFunc
	Store StoreFunc
	st    store.Store // bound store instance for Store-typed impls
}

// TypeName mirrors the variant's Type, used by the compiler to check a
// factory's build output against its declared kind (NodeKindMismatch).
func (i Impl) TypeName() plan.Type { return i.Type }

func NewSrc(fn SrcFunc) Impl   { return Impl{Type: plan.TypeSrc, Src: fn} }
func NewFunc(fn FuncImplFunc) Impl {
	return Impl{Type: plan.TypeFunc, Func: fn}
}
func NewFormat(fn FuncImplFunc) Impl {
	return Impl{Type: plan.TypeFormat, Func: fn}
}
func NewSink(fn SinkFunc) Impl { return Impl{Type: plan.TypeSink, Sink: fn} }
func NewStore(st store.Store, fn StoreFunc) Impl {
	return Impl{Type: plan.TypeStore, Store: fn, st: st}
}

// CallSrc, CallFunc, CallSink and CallStore are the executor's dispatch
// points (spec 4.5's table); each asserts the Impl carries the matching
// variant, a programmer-error check distinct from the compile-time
// NodeKindMismatch validation.
func (i Impl) CallSrc(ctx context.Context) (*xchannel.Channel, error) {
	invariant.Precondition(i.Src != nil, "CallSrc invoked on non-Src node impl")
	return i.Src(ctx)
}

func (i Impl) CallFunc(ctx context.Context, in *xchannel.Channel) (*xchannel.Channel, error) {
	invariant.Precondition(i.Func != nil, "CallFunc invoked on non-Func/Format node impl")
	return i.Func(ctx, in)
}

func (i Impl) CallSink(ctx context.Context, in *xchannel.Channel) error {
	invariant.Precondition(i.Sink != nil, "CallSink invoked on non-Sink node impl")
	return i.Sink(ctx, in)
}

func (i Impl) CallStore(ctx context.Context, in *xchannel.Channel) (*xchannel.Channel, error) {
	invariant.Precondition(i.Store != nil, "CallStore invoked on non-Store node impl")
	return i.Store(ctx, i.st, in)
}

// Factory is the declarative descriptor every built-in (and any
// caller-registered extension) provides: its role kind, the edge
// constraints it requires of upstream and produces downstream, and the
// build step that turns an argument Object into a concrete Impl.
type Factory interface {
	Kind() plan.Kind
	Input() plan.Edge
	Output() plan.Edge
	Build(ctx context.Context, args *value.Object) (Impl, error)
}

// Registry is the process-scope, read-mostly mapping from PlanKind to
// factory, populated at session initialisation with the built-in set plus
// any caller-registered factories (spec 4.7). There is no dynamic
// discovery; lookups are read-only on the hot path.
type Registry struct {
	factories map[string]Factory
	names     []string
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds f, keyed by its declared Kind. Registering two factories
// under the same kind is a programmer error.
func (r *Registry) Register(f Factory) {
	invariant.NotNil(f, "factory")
	key := f.Kind().RegistryKey()
	invariant.Precondition(r.factories[key] == nil, fmt.Sprintf("duplicate factory registration for %s", key))
	r.factories[key] = f
	r.names = append(r.names, f.Kind().String())
}

// Lookup finds the factory registered for kind.
func (r *Registry) Lookup(kind plan.Kind) (Factory, bool) {
	f, ok := r.factories[kind.RegistryKey()]
	return f, ok
}

// Names lists every registered kind's canonical textual form, the
// candidate pool UnknownNode's fuzzy suggestion is drawn from.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
