package builtins

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xlake-project/xlake/internal/value"
)

func TestCsvSrcInfersIntegerColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n3,4\n"), 0o644))

	factory := NewCsvSrcFactory(0)
	args := value.NewObject()
	args.Insert("path", value.String(path))

	impl, err := factory.Build(context.Background(), args)
	require.NoError(t, err)

	ch, err := impl.CallSrc(context.Background())
	require.NoError(t, err)
	require.True(t, ch.IsBatch())

	stream, err := ch.Stream(context.Background())
	require.NoError(t, err)

	rows, err := stream.Drain(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	a, ok := rows[0].GetRaw("a")
	require.True(t, ok)
	require.Equal(t, value.KindNumber, a.Kind)

	b, ok := rows[1].GetRaw("b")
	require.True(t, ok)
	require.Equal(t, value.KindNumber, b.Kind)
}
