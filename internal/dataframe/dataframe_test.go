package dataframe

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestFromRecordsAndToRecordsRoundTrip(t *testing.T) {
	records := []map[string]interface{}{
		{"name": "Alice", "age": 30.0},
		{"name": "Bob", "age": 25.0},
	}
	df := FromRecords(records)
	require.Equal(t, 2, df.NRows)
	require.Equal(t, 2, df.NCols)
	require.Contains(t, df.Columns, "name")
	require.Contains(t, df.Columns, "age")

	back := df.ToRecords()
	require.Len(t, back, 2)
	require.Equal(t, "Alice", back[0]["name"])
	require.Equal(t, 25.0, back[1]["age"])

	// cmp.Diff gives a readable nested-map diff on failure, which matters
	// here since a record round trip failure is almost always "one field
	// deep inside one row", not the whole slice.
	if diff := cmp.Diff(records, back); diff != "" {
		t.Errorf("ToRecords() round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRecordsFillsMissingColumnsWithNil(t *testing.T) {
	records := []map[string]interface{}{
		{"a": 1.0, "b": 2.0},
		{"a": 3.0},
	}
	df := FromRecords(records)
	require.Nil(t, df.Columns["b"].Data[1])
}

func TestGroupByKeysPutsEveryRowInOneGroup(t *testing.T) {
	df := FromRecords([]map[string]interface{}{
		{"cat": "b", "n": 1.0},
		{"cat": "a", "n": 2.0},
		{"cat": "b", "n": 3.0},
	})
	gdf := df.GroupByKeys([]string{"cat"})
	require.Len(t, gdf.GroupOrder, 2)
	total := 0
	for _, key := range gdf.GroupOrder {
		total += len(gdf.RowsForKey(key))
	}
	require.Equal(t, 3, total)
}

// Pivot (composite index + aggregation default) lives in the builtins
// package, which sits above dataframe in the import graph; see
// internal/builtins.TestPivotAndMeltRoundTrip for its coverage.

func TestMeltInvertsWideColumns(t *testing.T) {
	df := FromRecords([]map[string]interface{}{
		{"id": "r1", "cpu": 1.0, "mem": 2.0},
		{"id": "r2", "cpu": 3.0, "mem": 4.0},
	})
	melted := df.Melt([]string{"id"}, nil)
	require.Equal(t, 4, melted.NRows)
	require.Contains(t, melted.Columns, "id")
	require.Contains(t, melted.Columns, "variable")
	require.Contains(t, melted.Columns, "value")
}

func TestMeltWithExplicitValueVarsIgnoresOtherColumns(t *testing.T) {
	df := FromRecords([]map[string]interface{}{
		{"id": "r1", "keep": "x", "a": 1.0, "b": 2.0},
	})
	melted := df.Melt([]string{"id", "keep"}, []string{"a"})
	require.Equal(t, 1, melted.NRows)
	require.Contains(t, melted.Columns, "keep")
	require.NotContains(t, melted.Columns, "b")
}

func TestJoinMatchesOnKeyColumn(t *testing.T) {
	left := FromRecords([]map[string]interface{}{
		{"id": "1", "name": "Alice"},
		{"id": "2", "name": "Bob"},
	})
	right := FromRecords([]map[string]interface{}{
		{"id": "1", "dept": "Eng"},
		{"id": "2", "dept": "Sales"},
	})
	joined := left.Join(right, "id")
	require.Equal(t, 2, joined.NRows)
	require.Contains(t, joined.Columns, "dept")
}

func TestSelectReturnsOnlyRequestedColumns(t *testing.T) {
	df := FromRecords([]map[string]interface{}{
		{"a": 1.0, "b": 2.0, "c": 3.0},
	})
	sub := df.Select([]string{"a", "c"})
	require.Equal(t, 2, sub.NCols)
	require.Contains(t, sub.Columns, "a")
	require.Contains(t, sub.Columns, "c")
	require.NotContains(t, sub.Columns, "b")
}

func TestHeadAndTail(t *testing.T) {
	df := FromRecords([]map[string]interface{}{
		{"n": 1.0}, {"n": 2.0}, {"n": 3.0}, {"n": 4.0}, {"n": 5.0},
	})
	require.Equal(t, 2, df.Head(2).NRows)
	require.Equal(t, 2, df.Tail(2).NRows)
}
