package exec

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"dsq/internal/ops"
	"dsq/internal/value"
)

func runOne(t *testing.T, e *Executor, source string, input value.Value) value.Value {
	t.Helper()
	outs, err := e.ExecuteStr(context.Background(), source, input, ops.ModeStrict)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	return outs[0]
}

func obj(pairs ...interface{}) value.Value {
	b := value.NewObjectBuilder()
	for i := 0; i < len(pairs); i += 2 {
		b.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return b.Build()
}

func TestIdentityReturnsInputUnchanged(t *testing.T) {
	e := New()
	in := obj("a", value.Int(1))
	out := runOne(t, e, ".", in)
	require.Equal(t, in, out)
}

func TestFieldAccessAndArrayIndex(t *testing.T) {
	e := New()
	out := runOne(t, e, ".name", obj("name", value.String("Alice"), "age", value.Int(30)))
	require.Equal(t, value.String("Alice"), out)

	out = runOne(t, e, ".[0]", value.Array([]value.Value{value.Int(10), value.Int(20), value.Int(30)}))
	require.Equal(t, value.Int(10), out)
}

func TestIntOverflowPromotesToBigInt(t *testing.T) {
	e := New()
	out := runOne(t, e, ". + 1", value.Int(42))
	require.Equal(t, value.KindInt, out.Kind())
	require.Equal(t, int64(43), out.AsInt())

	maxInt := value.Int(9223372036854775807)
	out = runOne(t, e, ". + 1", maxInt)
	require.Equal(t, value.KindBigInt, out.Kind())
	want := new(big.Int).Add(big.NewInt(9223372036854775807), big.NewInt(1))
	require.Equal(t, 0, out.AsBigInt().Cmp(want))
}

func TestMapDoublesEachElement(t *testing.T) {
	e := New()
	in := value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3), value.Int(4), value.Int(5)})
	out := runOne(t, e, "map(. * 2)", in)
	require.Equal(t, value.KindArray, out.Kind())
	var got []int64
	for _, v := range out.AsArray() {
		got = append(got, v.AsInt())
	}
	require.Equal(t, []int64{2, 4, 6, 8, 10}, got)
}

func TestIfThenElse(t *testing.T) {
	e := New()
	require.Equal(t, value.String("yes"), runOne(t, e, `if . then "yes" else "no" end`, value.Bool(true)))
	require.Equal(t, value.String("no"), runOne(t, e, `if . then "yes" else "no" end`, value.Bool(false)))
	require.Equal(t, value.String("no"), runOne(t, e, `if . then "yes" else "no" end`, value.String("")))
	require.Equal(t, value.String("yes"), runOne(t, e, `if . then "yes" else "no" end`, value.Int(0)))
}

func TestAssignmentFolds(t *testing.T) {
	e := New()
	out := runOne(t, e, ".salary += 5000", obj("name", value.String("A"), "salary", value.Int(75000)))
	salary, ok := out.Get("salary")
	require.True(t, ok)
	require.Equal(t, int64(80000), salary.AsInt())
	name, ok := out.Get("name")
	require.True(t, ok)
	require.Equal(t, value.String("A"), name)
}

func TestGroupByThenAverage(t *testing.T) {
	e := New()
	in := value.Array([]value.Value{
		obj("category", value.String("A"), "score", value.Float(2.0)),
		obj("category", value.String("B"), "score", value.Float(4.0)),
		obj("category", value.String("A"), "score", value.Float(6.0)),
	})
	out := runOne(t, e, `group_by(.category) | map({category: .[0].category, avg: (map(.score) | add / length)})`, in)
	require.Equal(t, value.KindArray, out.Kind())
	rows := out.AsArray()
	require.Len(t, rows, 2)
	for _, row := range rows {
		cat, _ := row.Get("category")
		avg, _ := row.Get("avg")
		require.Equal(t, 4.0, avg.AsFloat())
		require.Contains(t, []string{"A", "B"}, cat.AsString())
	}
}

func TestCacheHitOnSecondCompile(t *testing.T) {
	e := New()
	out1 := runOne(t, e, ". + 1", value.Int(1))
	require.Equal(t, int64(2), out1.AsInt())
	out2 := runOne(t, e, ". + 1", value.Int(2))
	require.Equal(t, int64(3), out2.AsInt())
	require.Equal(t, 1, e.CacheSize())
	require.Equal(t, int64(1), e.StatsSnapshot().CacheMisses)
	require.Equal(t, int64(1), e.StatsSnapshot().CacheHits)
}

func TestErrorModesOnMissingFieldOfNonObject(t *testing.T) {
	e := New()
	_, err := e.ExecuteStr(context.Background(), ".missing_field", value.Int(1), ops.ModeStrict)
	require.Error(t, err)

	outs, err := e.ExecuteStr(context.Background(), ".missing_field", value.Int(1), ops.ModeIgnore)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.True(t, outs[0].IsNull())

	outs, err = e.ExecuteStr(context.Background(), ".missing_field", value.Int(1), ops.ModeCollect)
	require.Error(t, err)
	require.Len(t, outs, 1)
	require.True(t, outs[0].IsNull())
	require.Contains(t, err.Error(), "Operation failed")
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	e := NewWithCacheSize(2)
	_, err := e.ExecuteStr(context.Background(), "1", value.Null(), ops.ModeStrict)
	require.NoError(t, err)
	_, err = e.ExecuteStr(context.Background(), "2", value.Null(), ops.ModeStrict)
	require.NoError(t, err)
	_, err = e.ExecuteStr(context.Background(), "3", value.Null(), ops.ModeStrict)
	require.NoError(t, err)
	require.Equal(t, 2, e.CacheSize())

	missesBefore := e.StatsSnapshot().CacheMisses
	_, err = e.ExecuteStr(context.Background(), "1", value.Null(), ops.ModeStrict)
	require.NoError(t, err)
	require.Equal(t, missesBefore+1, e.StatsSnapshot().CacheMisses)
}

func TestValidateFilter(t *testing.T) {
	e := New()
	require.NoError(t, e.ValidateFilter("."))
	require.Error(t, e.ValidateFilter(".."))
}

func TestExecuteStreaming(t *testing.T) {
	e := New()
	in := make(chan value.Value, 3)
	in <- value.Int(1)
	in <- value.Int(2)
	in <- value.Int(3)
	close(in)

	var got []int64
	err := e.ExecuteStreaming(context.Background(), ". + 1", in, ops.ModeStrict, func(v value.Value) {
		got = append(got, v.AsInt())
	})
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3, 4}, got)
}
