package object_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xlake-project/xlake/internal/object"
	"github.com/xlake-project/xlake/internal/value"
)

func TestFlattenMergesLayersInOrder(t *testing.T) {
	base := value.NewObject()
	base.Insert("a", value.Int(1))
	base.Insert("b", value.Int(2))

	lo := object.NewLazyObject(base, object.NewModelSet("hash"))
	lo.AppendFuture(object.NewFuncFuture(func(ctx context.Context) (*value.Object, error) {
		o := value.NewObject()
		o.Insert("b", value.Int(99))
		o.Insert("c", value.Int(3))
		return o, nil
	}), object.NewModelSet("binary"))

	flat, err := lo.Flatten(context.Background())
	require.NoError(t, err)

	a, ok := flat.GetRaw("a")
	require.True(t, ok)
	require.Equal(t, "1", a.Number.String())

	b, ok := flat.GetRaw("b")
	require.True(t, ok)
	require.Equal(t, "99", b.Number.String())

	c, ok := flat.GetRaw("c")
	require.True(t, ok)
	require.Equal(t, "3", c.Number.String())

	require.True(t, flat.Models().Has("hash"))
	require.True(t, flat.Models().Has("binary"))
}

func TestFlattenIsIdempotentOnReadyObject(t *testing.T) {
	base := value.NewObject()
	base.Insert("x", value.String("y"))
	lo := object.NewLazyObject(base, object.NewModelSet("hash"))

	first, err := lo.Flatten(context.Background())
	require.NoError(t, err)
	second, err := first.Flatten(context.Background())
	require.NoError(t, err)

	fx, _ := first.GetRaw("x")
	sx, _ := second.GetRaw("x")
	require.Equal(t, fx, sx)
}

func TestFlattenFailsOnFutureError(t *testing.T) {
	lo := object.NewLazyObject(value.NewObject(), nil)
	lo.AppendFuture(object.NewFuncFuture(func(ctx context.Context) (*value.Object, error) {
		return nil, errors.New("boom")
	}), nil)

	_, err := lo.Flatten(context.Background())
	require.Error(t, err)
}

func TestReplaceWithDropsPendingFutureAndSubstitutesNewOne(t *testing.T) {
	base := value.NewObject()
	base.Insert("a", value.Int(1))
	lo := object.NewLazyObject(base, object.NewModelSet("hash"))

	called := false
	lo.AppendFuture(object.NewFuncFuture(func(ctx context.Context) (*value.Object, error) {
		called = true
		return value.NewObject(), nil
	}), nil)

	replaced := lo.ReplaceWith(object.NewFuncFuture(func(ctx context.Context) (*value.Object, error) {
		o := value.NewObject()
		o.Insert("a", value.Int(42))
		return o, nil
	}))

	flat, err := replaced.Flatten(context.Background())
	require.NoError(t, err)
	require.False(t, called, "the original pending future must never be awaited after ReplaceWith")

	a, ok := flat.GetRaw("a")
	require.True(t, ok)
	require.Equal(t, "42", a.Number.String())
}

func TestPeekGetIgnoresPendingFutureContent(t *testing.T) {
	lo := object.NewLazyObject(value.NewObject(), nil)
	lo.AppendFuture(object.NewFuncFuture(func(ctx context.Context) (*value.Object, error) {
		o := value.NewObject()
		o.Insert("hidden", value.String("only visible after flatten"))
		return o, nil
	}), nil)

	_, ok := lo.PeekGet("hidden", nil)
	require.False(t, ok)
}

func TestAppendFutureOnReadyLayerExtendsModelsInPlace(t *testing.T) {
	lo := object.NewLazyObject(value.NewObject(), object.NewModelSet("hash"))
	lo.AppendFuture(object.NewFuncFuture(func(ctx context.Context) (*value.Object, error) {
		return value.NewObject(), nil
	}), object.NewModelSet("binary"))

	require.Len(t, lo.Layers(), 1, "attaching to a ready top layer must not push a new layer")
}

func TestAppendFutureOnPendingLayerPushesNewLayer(t *testing.T) {
	lo := object.NewLazyObject(value.NewObject(), nil)
	lo.AppendFuture(object.NewFuncFuture(func(ctx context.Context) (*value.Object, error) {
		return value.NewObject(), nil
	}), nil)
	lo.AppendFuture(object.NewFuncFuture(func(ctx context.Context) (*value.Object, error) {
		return value.NewObject(), nil
	}), nil)

	require.Len(t, lo.Layers(), 2)
}
