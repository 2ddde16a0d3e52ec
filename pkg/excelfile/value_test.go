package excelfile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOf(t *testing.T) {
	assert.Equal(t, KindNull, ValueOf(nil).Kind())
	assert.Equal(t, KindScalar, ValueOf(42).Kind())
	assert.Equal(t, KindNull, ValueOf(map[string]interface{}(nil)).Kind())

	v := ValueOf(map[string]interface{}{
		"score": 42,
		"inner": map[string]interface{}{"deep": "x"},
	})
	require.Equal(t, KindMap, v.Kind())

	score, ok := v.Lookup("score")
	require.True(t, ok)
	assert.Equal(t, 42, score.Interface())

	inner, ok := v.Lookup("inner")
	require.True(t, ok)
	assert.Equal(t, KindMap, inner.Kind())

	_, ok = v.Lookup("missing")
	assert.False(t, ok)

	_, ok = Scalar("x").Lookup("x")
	assert.False(t, ok)
}

func TestValueOf_TypedMaps(t *testing.T) {
	ints := ValueOf(map[string]int{"score": 42})
	require.Equal(t, KindMap, ints.Kind())
	score, ok := ints.Lookup("score")
	require.True(t, ok)
	assert.Equal(t, 42, score.Interface())

	strs := ValueOf(map[string]string{"city": "Hue"})
	require.Equal(t, KindMap, strs.Kind())
	assert.Equal(t, map[string]interface{}{"city": "Hue"}, strs.Interface())

	type label string
	named := ValueOf(map[label][]int{"ids": {1, 2}})
	require.Equal(t, KindMap, named.Kind())
	ids, ok := named.Lookup("ids")
	require.True(t, ok)
	assert.Equal(t, KindScalar, ids.Kind())

	nested := ValueOf(map[string]map[string]bool{"flags": {"on": true}})
	flags, ok := nested.Lookup("flags")
	require.True(t, ok)
	assert.Equal(t, KindMap, flags.Kind())

	assert.Equal(t, KindNull, ValueOf(map[string]int(nil)).Kind())
	assert.Equal(t, KindScalar, ValueOf(map[int]string{1: "a"}).Kind())
}

func TestValue_Interface(t *testing.T) {
	assert.Nil(t, Null().Interface())
	assert.Equal(t, "a", Scalar("a").Interface())
	assert.Equal(t,
		map[string]interface{}{"k": int64(1)},
		Map(map[string]Value{"k": Scalar(int64(1))}).Interface())
}

func TestValue_UnmarshalJSON(t *testing.T) {
	var values map[string]Value
	err := json.Unmarshal([]byte(`{"n":10,"f":1.5,"s":"str","b":true,"z":null,"m":{"score":42},"l":[1,"a"]}`), &values)
	require.NoError(t, err)

	assert.Equal(t, int64(10), values["n"].Interface())
	assert.Equal(t, 1.5, values["f"].Interface())
	assert.Equal(t, "str", values["s"].Interface())
	assert.Equal(t, true, values["b"].Interface())
	assert.True(t, values["z"].IsNull())
	assert.Equal(t, []interface{}{int64(1), "a"}, values["l"].Interface())

	score, ok := values["m"].Lookup("score")
	require.True(t, ok)
	assert.Equal(t, int64(42), score.Interface())
}

func TestValue_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Map(map[string]Value{"a": Scalar(1), "b": Null()}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":null}`, string(b))
}
