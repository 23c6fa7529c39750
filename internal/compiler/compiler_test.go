package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xlake-project/xlake/internal/node"
	"github.com/xlake-project/xlake/internal/plan"
	"github.com/xlake-project/xlake/internal/value"
	"github.com/xlake-project/xlake/internal/xchannel"
)

type stubFactory struct {
	kind   plan.Kind
	input  plan.Edge
	output plan.Edge
	build  func(ctx context.Context, args *value.Object) (node.Impl, error)
}

func (f stubFactory) Kind() plan.Kind    { return f.kind }
func (f stubFactory) Input() plan.Edge   { return f.input }
func (f stubFactory) Output() plan.Edge  { return f.output }
func (f stubFactory) Build(ctx context.Context, args *value.Object) (node.Impl, error) {
	return f.build(ctx, args)
}

func srcFactory(name string) stubFactory {
	return stubFactory{
		kind: plan.Src(name),
		build: func(ctx context.Context, args *value.Object) (node.Impl, error) {
			return node.NewSrc(func(ctx context.Context) (*xchannel.Channel, error) {
				return xchannel.NewEmpty(), nil
			}), nil
		},
	}
}

func sinkFactory(name string) stubFactory {
	return stubFactory{
		kind: plan.Sink(name),
		build: func(ctx context.Context, args *value.Object) (node.Impl, error) {
			return node.NewSink(func(ctx context.Context, in *xchannel.Channel) error {
				return nil
			}), nil
		},
	}
}

func funcFactory(modelName, funcName string, input, output plan.Edge) stubFactory {
	return stubFactory{
		kind:   plan.Func(modelName, funcName),
		input:  input,
		output: output,
		build: func(ctx context.Context, args *value.Object) (node.Impl, error) {
			return node.NewFunc(func(ctx context.Context, in *xchannel.Channel) (*xchannel.Channel, error) {
				return in, nil
			}), nil
		},
	}
}

func newTestRegistry(factories ...node.Factory) *node.Registry {
	r := node.NewRegistry()
	for _, f := range factories {
		r.Register(f)
	}
	return r
}

func TestCompileAcceptsSimpleSrcSinkPipeline(t *testing.T) {
	registry := newTestRegistry(srcFactory("stdin"), sinkFactory("stdout"))
	plans := []plan.Plan{
		{Kind: plan.Src("stdin")},
		{Kind: plan.Sink("stdout")},
	}

	seq, err := Compile(context.Background(), registry, plans)
	require.NoError(t, err)
	require.Len(t, seq, 2)
}

func TestCompileRejectsUnknownNodeWithSuggestion(t *testing.T) {
	registry := newTestRegistry(srcFactory("stdinsrc"), sinkFactory("stdoutsink"))
	plans := []plan.Plan{
		{Kind: plan.Src("stdinsrc")},
		{Kind: plan.Sink("stdoutsnik")},
	}

	_, err := Compile(context.Background(), registry, plans)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "UnknownNode", cerr.Kind)
}

func TestCompileRejectsDuplicateSrc(t *testing.T) {
	registry := newTestRegistry(srcFactory("stdinsrc"), sinkFactory("stdoutsink"))
	plans := []plan.Plan{
		{Kind: plan.Src("stdinsrc")},
		{Kind: plan.Src("stdinsrc")},
		{Kind: plan.Sink("stdoutsink")},
	}

	_, err := Compile(context.Background(), registry, plans)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "DuplicateSrc", cerr.Kind)
}

func TestCompileRejectsSinkBeforeAnySrc(t *testing.T) {
	registry := newTestRegistry(sinkFactory("stdoutsink"))
	plans := []plan.Plan{
		{Kind: plan.Sink("stdoutsink")},
	}

	_, err := Compile(context.Background(), registry, plans)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "LinkBeforeSrc", cerr.Kind)
}

func TestCompileRejectsDuplicateSink(t *testing.T) {
	registry := newTestRegistry(srcFactory("stdinsrc"), sinkFactory("stdoutsink"))
	plans := []plan.Plan{
		{Kind: plan.Src("stdinsrc")},
		{Kind: plan.Sink("stdoutsink")},
		{Kind: plan.Sink("stdoutsink")},
	}

	_, err := Compile(context.Background(), registry, plans)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "DuplicateSink", cerr.Kind)
}

func TestCompileRejectsImplicitModel(t *testing.T) {
	registry := newTestRegistry(
		srcFactory("stdinsrc"),
		funcFactory("doc", "split", plan.Edge{Models: []string{"doc"}}, plan.Edge{}),
		sinkFactory("stdoutsink"),
	)
	plans := []plan.Plan{
		{Kind: plan.Src("stdinsrc")},
		{Kind: plan.Func("doc", "split")},
		{Kind: plan.Sink("stdoutsink")},
	}

	_, err := Compile(context.Background(), registry, plans)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "ImplicitModel", cerr.Kind)
}

func TestCompileAcceptsModelProvidedUpstream(t *testing.T) {
	registry := newTestRegistry(
		srcFactory("stdinsrc"),
		funcFactory("doc", "", plan.Edge{}, plan.Edge{Models: []string{"doc"}}),
		funcFactory("doc", "split", plan.Edge{Models: []string{"doc"}}, plan.Edge{}),
		sinkFactory("stdoutsink"),
	)
	plans := []plan.Plan{
		{Kind: plan.Src("stdinsrc")},
		{Kind: plan.Func("doc", "")},
		{Kind: plan.Func("doc", "split")},
		{Kind: plan.Sink("stdoutsink")},
	}

	seq, err := Compile(context.Background(), registry, plans)
	require.NoError(t, err)
	require.Len(t, seq, 4)
}

func TestCompileRejectsIncompatibleStream(t *testing.T) {
	registry := newTestRegistry(
		srcFactory("stdinsrc"),
		funcFactory("csv", "batch", plan.Edge{Stream: "csv"}, plan.Edge{}),
		sinkFactory("stdoutsink"),
	)
	plans := []plan.Plan{
		{Kind: plan.Src("stdinsrc")},
		{Kind: plan.Func("csv", "batch")},
		{Kind: plan.Sink("stdoutsink")},
	}

	_, err := Compile(context.Background(), registry, plans)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "IncompatibleStream", cerr.Kind)
}

func TestCompileRejectsPlanWithNoSink(t *testing.T) {
	registry := newTestRegistry(srcFactory("stdinsrc"))
	plans := []plan.Plan{
		{Kind: plan.Src("stdinsrc")},
	}

	_, err := Compile(context.Background(), registry, plans)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "LinkAfterSink", cerr.Kind)
}
