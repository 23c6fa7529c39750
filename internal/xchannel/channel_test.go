package xchannel_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xlake-project/xlake/internal/object"
	"github.com/xlake-project/xlake/internal/value"
	"github.com/xlake-project/xlake/internal/xchannel"
)

func TestStreamFormDrainsQueueInOrder(t *testing.T) {
	s := xchannel.NewStreamForm()
	for i := 0; i < 3; i++ {
		o := value.NewObject()
		o.Insert("i", value.Int(int64(i)))
		s.ExtendOne(object.NewLazyObject(o, nil))
	}

	items, err := s.Drain(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, item := range items {
		v, ok := item.GetRaw("i")
		require.True(t, ok)
		require.Equal(t, int64(i), mustInt(t, v))
	}
}

func TestBatchRoundTripsTypedColumns(t *testing.T) {
	batch, err := xchannel.NewBatchForm(false, 0)
	require.NoError(t, err)
	defer batch.Close()

	ctx := context.Background()
	row := value.NewObject()
	row.Insert("a", value.Int(1))
	row.Insert("b", value.String("two"))
	require.NoError(t, batch.ExtendOne(ctx, object.NewLazyObject(row, nil)))

	row2 := value.NewObject()
	row2.Insert("a", value.Int(3))
	row2.Insert("b", value.String("four"))
	require.NoError(t, batch.ExtendOne(ctx, object.NewLazyObject(row2, nil)))

	stream, err := batch.ToStream(ctx)
	require.NoError(t, err)
	items, err := stream.Drain(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	a0, ok := items[0].GetRaw("a")
	require.True(t, ok)
	require.Equal(t, int64(1), mustInt(t, a0))

	b1, ok := items[1].GetRaw("b")
	require.True(t, ok)
	s, ok := b1.AsString()
	require.True(t, ok)
	require.Equal(t, "four", s)
}

func TestBatchExtendOneRejectsRowsOverMemoryLimit(t *testing.T) {
	batch, err := xchannel.NewBatchForm(false, 1)
	require.NoError(t, err)
	defer batch.Close()

	ctx := context.Background()
	small := value.NewObject()
	small.Insert("a", value.String("x"))
	require.NoError(t, batch.ExtendOne(ctx, object.NewLazyObject(small, nil)))

	big := value.NewObject()
	big.Insert("a", value.String(string(make([]byte, 2<<20))))
	err = batch.ExtendOne(ctx, object.NewLazyObject(big, nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "memory limit")
}

func TestChannelBatchOnStreamFormIsHardError(t *testing.T) {
	c := xchannel.NewEmpty()
	_, err := c.Batch()
	require.ErrorIs(t, err, xchannel.ErrStreamToBatchUnsupported)
}

func mustInt(t *testing.T, v value.Value) int64 {
	t.Helper()
	n, ok := v.AsNumber()
	require.True(t, ok)
	var i int64
	_, err := fmt.Sscan(n.String(), &i)
	require.NoError(t, err)
	return i
}
