package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"dsq/internal/value"
)

func testContext() *Context {
	return NewContext(context.Background(), map[string]BuiltinFunc{}, ModeStrict)
}

func obj(entries ...value.Entry) value.Value {
	b := value.NewObjectBuilder()
	for _, e := range entries {
		b.Set(e.Key, e.Val)
	}
	return b.Build()
}

func entry(k string, v value.Value) value.Entry {
	return value.Entry{Key: k, Val: v}
}

func TestDelOpRemovesField(t *testing.T) {
	input := obj(entry("a", value.Int(1)), entry("b", value.Int(2)))
	op := DelOp{Path: []PathStep{{Field: "a"}}}

	out, err := op.Apply(testContext(), input)
	require.NoError(t, err)
	require.Len(t, out, 1)

	_, ok := out[0].Get("a")
	require.False(t, ok)
	bVal, ok := out[0].Get("b")
	require.True(t, ok)
	require.Equal(t, int64(2), bVal.AsInt())
}

func TestDelOpRemovesArrayElement(t *testing.T) {
	input := value.Array([]value.Value{value.Int(10), value.Int(20), value.Int(30)})
	op := DelOp{Path: []PathStep{{Index: LiteralOp{Val: value.Int(1)}}}}

	out, err := op.Apply(testContext(), input)
	require.NoError(t, err)
	require.Equal(t, value.KindArray, out[0].Kind())

	arr := out[0].AsArray()
	require.Len(t, arr, 2)
	require.Equal(t, int64(10), arr[0].AsInt())
	require.Equal(t, int64(30), arr[1].AsInt())
}

func TestDelOpNestedField(t *testing.T) {
	input := obj(entry("user", obj(entry("name", value.String("a")), entry("secret", value.String("x")))))
	op := DelOp{Path: []PathStep{{Field: "user"}, {Field: "secret"}}}

	out, err := op.Apply(testContext(), input)
	require.NoError(t, err)

	user, ok := out[0].Get("user")
	require.True(t, ok)
	_, hasSecret := user.Get("secret")
	require.False(t, hasSecret)
	name, ok := user.Get("name")
	require.True(t, ok)
	require.Equal(t, "a", name.AsString())
}

func TestDelOpMissingFieldIsNoop(t *testing.T) {
	input := obj(entry("a", value.Int(1)))
	op := DelOp{Path: []PathStep{{Field: "nope"}}}

	out, err := op.Apply(testContext(), input)
	require.NoError(t, err)
	a, ok := out[0].Get("a")
	require.True(t, ok)
	require.Equal(t, int64(1), a.AsInt())
}

func TestJoinFromFileOpArrayHashJoin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "right.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"name":"x"},{"id":2,"name":"y"}]`), 0o644))

	input := value.Array([]value.Value{
		obj(entry("id", value.Int(1)), entry("qty", value.Int(5))),
		obj(entry("id", value.Int(2)), entry("qty", value.Int(7))),
	})
	op := JoinFromFileOp{Path: LiteralOp{Val: value.String(path)}, On: []string{"id"}, JoinType: "inner"}

	out, err := op.Apply(testContext(), input)
	require.NoError(t, err)
	require.Equal(t, value.KindArray, out[0].Kind())

	rows := out[0].AsArray()
	require.Len(t, rows, 2)
	name, ok := rows[0].Get("name")
	require.True(t, ok)
	require.Equal(t, "x", name.AsString())
}

func TestJoinFromFileOpUnreadableFile(t *testing.T) {
	op := JoinFromFileOp{Path: LiteralOp{Val: value.String("/nonexistent/path.json")}, On: []string{"id"}}
	_, err := op.Apply(testContext(), value.Array(nil))
	require.Error(t, err)
}
