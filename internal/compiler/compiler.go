package compiler

import (
	"context"

	"github.com/xlake-project/xlake/internal/invariant"
	"github.com/xlake-project/xlake/internal/node"
	"github.com/xlake-project/xlake/internal/plan"
	"github.com/xlake-project/xlake/internal/value"
)

const defaultBatchEngine = "memory"
const defaultStreamForm = "default"

// rollingContext is ctx in spec 4.4's algorithm: the accumulated edge state
// threaded through the linear scan.
type rollingContext struct {
	batch  string
	models map[string]struct{}
	stream string
}

func newRollingContext() *rollingContext {
	return &rollingContext{
		batch:  defaultBatchEngine,
		models: map[string]struct{}{},
		stream: defaultStreamForm,
	}
}

func (c *rollingContext) hasModel(name string) bool {
	_, ok := c.models[name]
	return ok
}

func (c *rollingContext) applyOutput(out plan.Edge) {
	if out.Batch != "" {
		c.batch = out.Batch
	}
	for _, m := range out.Models {
		c.models[m] = struct{}{}
	}
	if out.Stream != "" {
		c.stream = out.Stream
	}
}

// Step pairs a Plan's kind and arguments with the concrete Impl its factory
// built. Compile itself returns only the Impls, in plan order.
type Step struct {
	Kind plan.Kind
	Args *value.Object
	Impl node.Impl
}

// Compile validates plans against the registry's factories and the edge
// compatibility rules in spec 4.4, returning the ordered, validated node
// sequence the executor runs. Fails fast on the first violation.
func Compile(ctx context.Context, registry *node.Registry, plans []plan.Plan) ([]node.Impl, error) {
	rctx := newRollingContext()
	var srcSeen, sinkSeen *int
	var sequence []node.Impl

	for i, p := range plans {
		factory, ok := registry.Lookup(p.Kind)
		if !ok {
			return nil, unknownNodeError(i, p.Kind, registry.Names())
		}

		if err := validateInput(factory.Input(), rctx, i); err != nil {
			return nil, err
		}

		rctx.applyOutput(factory.Output())

		impl, err := factory.Build(ctx, p.Args)
		if err != nil {
			return nil, newError("BuildError", i, "%v", err)
		}
		if impl.TypeName() != p.Kind.Type() {
			return nil, newError("NodeKindMismatch", i, "factory for %s built a %s implementation", p.Kind, impl.TypeName())
		}

		if p.Kind.Type() == plan.TypeSrc {
			if srcSeen != nil {
				return nil, newError("DuplicateSrc", i, "a source was already established at position %d", *srcSeen)
			}
			pos := i
			srcSeen = &pos
		} else if srcSeen == nil {
			return nil, newError("LinkBeforeSrc", i, "no source has been established yet")
		}

		if p.Kind.Type() == plan.TypeSink {
			if sinkSeen != nil {
				return nil, newError("DuplicateSink", i, "a sink was already established at position %d", *sinkSeen)
			}
			pos := i
			sinkSeen = &pos
		} else if sinkSeen != nil {
			return nil, newError("LinkAfterSink", i, "no node may follow a sink")
		}

		sequence = append(sequence, impl)
	}

	if srcSeen == nil {
		return nil, newError("LinkBeforeSrc", len(plans), "plan contains no source")
	}
	if sinkSeen == nil {
		return nil, newError("LinkAfterSink", len(plans), "plan contains no sink")
	}

	invariant.Postcondition(len(sequence) == len(plans), "compiled sequence length %d must match plan length %d", len(sequence), len(plans))
	return sequence, nil
}

func validateInput(in plan.Edge, rctx *rollingContext, pos int) error {
	if in.Batch != "" && in.Batch != rctx.batch {
		return newError("IncompatibleBatch", pos, "requires batch engine %q, have %q", in.Batch, rctx.batch)
	}
	if len(in.Models) > 0 {
		if len(rctx.models) == 0 {
			return newError("ImplicitModel", pos, "requires models %v but none are established yet", in.Models)
		}
		for _, m := range in.Models {
			if !rctx.hasModel(m) {
				return newError("MissingModel", pos, "requires model %q, have %v", m, modelNames(rctx))
			}
		}
	}
	if in.Stream != "" && in.Stream != rctx.stream {
		return newError("IncompatibleStream", pos, "requires stream form %q, have %q", in.Stream, rctx.stream)
	}
	return nil
}

func modelNames(c *rollingContext) []string {
	names := make([]string, 0, len(c.models))
	for m := range c.models {
		names = append(names, m)
	}
	return names
}
