package agg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplySum(t *testing.T) {
	out := Apply(Sum, []interface{}{1.0, 2.0, 3.0})
	require.Equal(t, 6.0, out)
}

func TestApplyMean(t *testing.T) {
	out := Apply(Mean, []interface{}{2.0, 4.0, 6.0})
	require.Equal(t, 4.0, out)
}

func TestApplyMinMax(t *testing.T) {
	require.Equal(t, 1.0, Apply(Min, []interface{}{3.0, 1.0, 2.0}))
	require.Equal(t, 3.0, Apply(Max, []interface{}{3.0, 1.0, 2.0}))
}

func TestApplyCountAndCountUnique(t *testing.T) {
	vals := []interface{}{"a", "b", "a", "c"}
	require.Equal(t, 4, Apply(Count, vals))
	require.Equal(t, 3, Apply(CountUnique, vals))
}

func TestApplyFirstLastOnEmptyIsNil(t *testing.T) {
	require.Nil(t, Apply(First, nil))
	require.Nil(t, Apply(Last, nil))
}

func TestApplyFirstLast(t *testing.T) {
	vals := []interface{}{"x", "y", "z"}
	require.Equal(t, "x", Apply(First, vals))
	require.Equal(t, "z", Apply(Last, vals))
}

func TestApplyList(t *testing.T) {
	out := Apply(List, []interface{}{1, 2, 3})
	require.Equal(t, []interface{}{1, 2, 3}, out)
}

func TestApplyStringConcat(t *testing.T) {
	out := Apply(StringConcat, []interface{}{"a", "b", "c"})
	require.Equal(t, "a,b,c", out)
}

func TestApplyStdAndVarUseSampleDenominator(t *testing.T) {
	vals := []interface{}{2.0, 4.0, 4.0, 4.0, 5.0, 5.0, 7.0, 9.0}
	variance := Apply(Var, vals).(float64)
	require.InDelta(t, 4.571428, variance, 0.001)
	std := Apply(Std, vals).(float64)
	require.InDelta(t, 2.13809, std, 0.001)
}

func TestApplyNumericOnEmptyIsNil(t *testing.T) {
	require.Nil(t, Apply(Sum, nil))
}

func TestGroupRecordsOrdersGroupsByKey(t *testing.T) {
	rows := []map[string]interface{}{
		{"cat": "b", "n": 1},
		{"cat": "a", "n": 2},
		{"cat": "b", "n": 3},
	}
	order, groups := GroupRecords(rows, []string{"cat"})
	require.Equal(t, []string{"a", "b"}, orderKeys(order, rows, "cat"))
	require.Len(t, groups[order[0]], 1)
	require.Len(t, groups[order[1]], 2)
}

// orderKeys maps the group_by composite keys back to human-readable
// category values for the assertion above.
func orderKeys(order []string, rows []map[string]interface{}, field string) []string {
	byKey := make(map[string]string)
	for _, r := range rows {
		byKey[recordKey(r, []string{field})] = r[field].(string)
	}
	out := make([]string, len(order))
	for i, k := range order {
		out[i] = byKey[k]
	}
	return out
}

func TestGroupRecordsMultiKey(t *testing.T) {
	rows := []map[string]interface{}{
		{"a": "x", "b": "1"},
		{"a": "x", "b": "2"},
		{"a": "x", "b": "1"},
	}
	order, groups := GroupRecords(rows, []string{"a", "b"})
	require.Len(t, order, 2)
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	require.Equal(t, 3, total)
}

func TestRollingStdRespectsMinPeriods(t *testing.T) {
	nums := []float64{1, 2, 3, 4, 5}
	out := RollingStd(nums, 3, 3)
	require.Nil(t, out[0])
	require.Nil(t, out[1])
	require.NotNil(t, out[2])
	require.NotNil(t, out[4])
}

func TestSortKeysDoesNotMutateInput(t *testing.T) {
	in := []string{"b", "a", "c"}
	out := SortKeys(in)
	require.Equal(t, []string{"a", "b", "c"}, out)
	require.Equal(t, []string{"b", "a", "c"}, in)
}
