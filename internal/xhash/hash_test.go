package xhash_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xlake-project/xlake/internal/value"
	"github.com/xlake-project/xlake/internal/xhash"
)

func TestHashObjectIsDeterministicRegardlessOfInsertionOrder(t *testing.T) {
	a := value.NewObject()
	a.Insert("x", value.Int(1))
	a.Insert("y", value.String("hello"))

	b := value.NewObject()
	b.Insert("y", value.String("hello"))
	b.Insert("x", value.Int(1))

	ha, err := xhash.HashObject(a)
	require.NoError(t, err)
	hb, err := xhash.HashObject(b)
	require.NoError(t, err)

	require.Equal(t, ha, hb)
}

func TestHashObjectDiffersOnContentChange(t *testing.T) {
	a := value.NewObject()
	a.Insert("x", value.Int(1))
	b := value.NewObject()
	b.Insert("x", value.Int(2))

	ha, err := xhash.HashObject(a)
	require.NoError(t, err)
	hb, err := xhash.HashObject(b)
	require.NoError(t, err)

	require.NotEqual(t, ha, hb)
}

func TestDigestUsesBase58BitcoinAlphabet(t *testing.T) {
	h, err := xhash.Digest(xhash.StringHashable("xlake"))
	require.NoError(t, err)
	for _, r := range h.String() {
		require.Contains(t, "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz", string(r))
	}
}
