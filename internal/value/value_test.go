package value

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestObjectRoundTripsThroughJSONInLexicographicOrder(t *testing.T) {
	o := NewObject()
	o.Insert("zebra", String("z"))
	o.Insert("apple", Int(1))
	o.Insert("binary", Binary([]byte("hi")))

	buf, err := json.Marshal(o)
	require.NoError(t, err)
	require.JSONEq(t, `{"apple":1,"binary":"aGk=","zebra":"z"}`, string(buf))

	var round Object
	require.NoError(t, json.Unmarshal(buf, &round))
	require.Equal(t, []string{"apple", "binary", "zebra"}, round.Keys())

	v, ok := round.Get("binary")
	require.True(t, ok)
	b, ok := v.AsBinary()
	require.True(t, ok)
	require.Equal(t, []byte("hi"), b)
}

func TestAsBinaryCoercesStringInPlace(t *testing.T) {
	v := String("payload")
	b, ok := v.AsBinary()
	require.True(t, ok)
	require.Equal(t, []byte("payload"), b)
	require.Equal(t, KindBinary, v.Kind)
}

func TestDynamicNumberMarshalsAsJSONString(t *testing.T) {
	v := NumberValue(DynamicNumber("n/a"))
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, `"n/a"`, string(buf))
}

func TestFixedNumberMarshalsUnquoted(t *testing.T) {
	v := Int(42)
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, `42`, string(buf))
}

func TestMergeIsLastWriteWinsAndLeavesInputsUntouched(t *testing.T) {
	base := NewObject()
	base.Insert("a", Int(1))
	base.Insert("b", Int(2))

	overlay := NewObject()
	overlay.Insert("b", Int(20))
	overlay.Insert("c", Int(3))

	merged := Merge(base, overlay)

	a, _ := merged.Get("a")
	b, _ := merged.Get("b")
	c, _ := merged.Get("c")
	require.Equal(t, Int(1), a)
	require.Equal(t, Int(20), b)
	require.Equal(t, Int(3), c)

	baseB, _ := base.Get("b")
	require.Equal(t, Int(2), baseB)
}

func TestMutateWritesBackModifiedValue(t *testing.T) {
	o := NewObject()
	o.Insert("field", String("raw"))

	ok := o.Mutate("field", func(v *Value) {
		b, coerced := v.AsBinary()
		require.True(t, coerced)
		require.Equal(t, []byte("raw"), b)
	})
	require.True(t, ok)

	v, _ := o.Get("field")
	require.Equal(t, KindBinary, v.Kind)
}

func TestDeleteRemovesKeyFromLexicographicOrder(t *testing.T) {
	o := NewObject()
	o.Insert("a", Int(1))
	o.Insert("b", Int(2))
	o.Insert("c", Int(3))

	o.Delete("b")
	if diff := cmp.Diff([]string{"a", "c"}, o.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	_, ok := o.Get("b")
	require.False(t, ok)
}
