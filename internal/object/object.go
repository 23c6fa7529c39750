// Package object implements the layered, lazily-materialisable record:
// ObjectLayer and LazyObject, per the layered design in
// original_source/crates/xlake-core/src/object.rs (the XLake Rust
// implementation this engine descends from).
package object

import (
	"context"
	"sync"

	"github.com/xlake-project/xlake/internal/invariant"
	"github.com/xlake-project/xlake/internal/value"
)

// Future is a one-shot deferred producer of an Object. It is awaited at
// most once; Await must be safe to call concurrently with itself only in
// the sense that the underlying work runs once and all callers observe the
// same result.
type Future interface {
	Await(ctx context.Context) (*value.Object, error)
}

// FuncFuture adapts a plain function into a Future, running it lazily on
// first Await and caching the result for any subsequent call.
type FuncFuture struct {
	once sync.Once
	fn   func(ctx context.Context) (*value.Object, error)
	obj  *value.Object
	err  error
}

func NewFuncFuture(fn func(ctx context.Context) (*value.Object, error)) *FuncFuture {
	return &FuncFuture{fn: fn}
}

func (f *FuncFuture) Await(ctx context.Context) (*value.Object, error) {
	f.once.Do(func() {
		f.obj, f.err = f.fn(ctx)
	})
	return f.obj, f.err
}

// ModelSet is a declared set of model-name assertions on a layer.
type ModelSet map[string]struct{}

func NewModelSet(names ...string) ModelSet {
	s := make(ModelSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s ModelSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Union returns a new set containing every name in s and other.
func (s ModelSet) Union(other ModelSet) ModelSet {
	out := make(ModelSet, len(s)+len(other))
	for n := range s {
		out[n] = struct{}{}
	}
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}

func (s ModelSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	return names
}

// ObjectLayer is one component of a LazyObject: materialised content plus an
// optional deferred producer and the set of models this layer declares.
type ObjectLayer struct {
	Content  *value.Object
	Deferred Future
	Models   ModelSet
}

// EmptyLayer constructs a layer with no content and no deferred producer.
func EmptyLayer(models ModelSet) ObjectLayer {
	return ObjectLayer{Content: value.NewObject(), Models: models}
}

// FromObject wraps already-materialised content in a ready layer.
func FromObject(content *value.Object, models ModelSet) ObjectLayer {
	if content == nil {
		content = value.NewObject()
	}
	return ObjectLayer{Content: content, Models: models}
}

func (l ObjectLayer) IsReady() bool { return l.Deferred == nil }

func (l ObjectLayer) GetRaw(key string) (value.Value, bool) {
	return l.Content.Get(key)
}

func (l ObjectLayer) Insert(key string, v value.Value) {
	l.Content.Insert(key, v)
}

// Get retrieves the value at key and applies coerce in place (the
// String->Binary promotion lives in coerce for the Binary case), returning
// ok=false if key is absent or the stored variant cannot satisfy coerce.
func (l ObjectLayer) Get(key string, coerce func(*value.Value) bool) (value.Value, bool) {
	var result value.Value
	ok := false
	found := l.Content.Mutate(key, func(v *value.Value) {
		if coerce == nil || coerce(v) {
			ok = true
			result = *v
		}
	})
	if !found {
		return value.Value{}, false
	}
	return result, ok
}

// mergeWithoutFuture merges other onto l (last-write-wins) and unions their
// model sets. Neither layer's Deferred is considered; callers must have
// already resolved futures into Content.
func mergeWithoutFuture(l, other ObjectLayer) ObjectLayer {
	return ObjectLayer{
		Content: value.Merge(l.Content, other.Content),
		Models:  l.Models.Union(other.Models),
	}
}

// LazyObject is a non-empty ordered stack of ObjectLayers. The last layer is
// the write target; the conceptual value is the ordered merge, later layers
// overriding earlier ones.
type LazyObject struct {
	layers []ObjectLayer
}

// NewLazyObject wraps a single ready layer, the common entry point for a
// freshly produced record (e.g. from a Src).
func NewLazyObject(content *value.Object, models ModelSet) *LazyObject {
	return &LazyObject{layers: []ObjectLayer{FromObject(content, models)}}
}

// FromLayer wraps a single caller-supplied layer verbatim.
func FromLayer(layer ObjectLayer) *LazyObject {
	return &LazyObject{layers: []ObjectLayer{layer}}
}

func (lo *LazyObject) top() *ObjectLayer {
	invariant.Invariant(len(lo.layers) > 0, "LazyObject layer stack must never be empty")
	return &lo.layers[len(lo.layers)-1]
}

// AppendFuture attaches fut to the current top layer if it is ready
// (extending its declared models), otherwise pushes a new layer carrying
// fut and no content yet.
func (lo *LazyObject) AppendFuture(fut Future, models ModelSet) {
	top := lo.top()
	if top.IsReady() {
		top.Deferred = fut
		top.Models = top.Models.Union(models)
		return
	}
	lo.layers = append(lo.layers, ObjectLayer{Content: value.NewObject(), Deferred: fut, Models: models})
}

// AppendLayer pushes layer unconditionally, becoming the new write target.
func (lo *LazyObject) AppendLayer(layer ObjectLayer) {
	lo.layers = append(lo.layers, layer)
}

// IsReady reports whether every layer has no pending future.
func (lo *LazyObject) IsReady() bool {
	for _, l := range lo.layers {
		if !l.IsReady() {
			return false
		}
	}
	return true
}

// GetRaw reads from the top layer's content (the write target), matching
// the original's single-layer view of the in-progress record.
func (lo *LazyObject) GetRaw(key string) (value.Value, bool) {
	return lo.top().GetRaw(key)
}

// Insert writes into the top layer's content.
func (lo *LazyObject) Insert(key string, v value.Value) {
	lo.top().Insert(key, v)
}

// Models returns the union of every layer's declared model set.
func (lo *LazyObject) Models() ModelSet {
	out := ModelSet{}
	for _, l := range lo.layers {
		out = out.Union(l.Models)
	}
	return out
}

// futureResult pairs an awaited layer's resolved content with its index, so
// concurrent awaiting can be reassembled in insertion order.
type futureResult struct {
	index   int
	content *value.Object
	err     error
}

// Flatten awaits every layer's deferred producer concurrently but merges
// their results in strict insertion order (await-concurrent, merge-ordered,
// per the concurrency model). On any failure the whole operation fails and
// no partial LazyObject is returned. The result is a new single-layer,
// ready LazyObject; flatten is idempotent when called again on it.
func (lo *LazyObject) Flatten(ctx context.Context) (*LazyObject, error) {
	results := make([]futureResult, len(lo.layers))
	var wg sync.WaitGroup
	for i, l := range lo.layers {
		results[i] = futureResult{index: i, content: l.Content}
		if l.Deferred == nil {
			continue
		}
		wg.Add(1)
		go func(i int, fut Future) {
			defer wg.Done()
			obj, err := fut.Await(ctx)
			if err != nil {
				results[i].err = err
				return
			}
			results[i].content = value.Merge(results[i].content, obj)
		}(i, l.Deferred)
	}
	wg.Wait()

	merged := value.NewObject()
	models := ModelSet{}
	for i, l := range lo.layers {
		if results[i].err != nil {
			return nil, results[i].err
		}
		merged = value.Merge(merged, results[i].content)
		models = models.Union(l.Models)
	}

	return &LazyObject{layers: []ObjectLayer{FromObject(merged, models)}}, nil
}

// ReplaceWith flattens the already-ready portion of lo (discarding any
// pending futures), attaches fut to the single resulting layer, and returns
// the new LazyObject. This is the store's cache-hit substitution operation:
// downstream materialisation is now served by fut instead of recomputation.
func (lo *LazyObject) ReplaceWith(fut Future) *LazyObject {
	merged := value.NewObject()
	models := ModelSet{}
	for _, l := range lo.layers {
		merged = value.Merge(merged, l.Content)
		models = models.Union(l.Models)
	}
	layer := ObjectLayer{Content: merged, Deferred: fut, Models: models}
	return &LazyObject{layers: []ObjectLayer{layer}}
}

// PeekGet resolves key against the already-materialised content of every
// layer, top layer first (last-write-wins), without awaiting any pending
// future. This is what model-view casts use to check field presence: a
// field still hidden behind a deferred producer is not yet "present".
func (lo *LazyObject) PeekGet(key string, coerce func(*value.Value) bool) (value.Value, bool) {
	for i := len(lo.layers) - 1; i >= 0; i-- {
		if v, ok := lo.layers[i].Get(key, coerce); ok {
			return v, true
		}
		if _, ok := lo.layers[i].GetRaw(key); ok {
			// present but failed coercion: a lower layer cannot override a
			// type mismatch at a higher layer, so stop here.
			return value.Value{}, false
		}
	}
	return value.Value{}, false
}

// Layers exposes the underlying stack read-only, for callers (Views,
// Models) that need to inspect every layer's declared model set without
// forcing a flatten.
func (lo *LazyObject) Layers() []ObjectLayer {
	return lo.layers
}

// ToStringPretty renders the top layer's materialised content, the
// fallback form a sink uses when no recognised model casts succeed.
func (lo *LazyObject) ToStringPretty() string {
	return lo.top().Content.String()
}
