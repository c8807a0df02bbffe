// Package agg implements the aggregation and rolling kernels of spec
// §4.6/§4.7, shared between the DataFrame columnar path and the
// Array-of-Object grouping path so group_by/group_by_agg/rolling_std behave
// identically regardless of the input shape.
package agg

import (
	"fmt"
	"math"
	"sort"

	"dsq/internal/dataframe"
)

// Func names one of the group_by_agg aggregation kinds from spec §4.6.
type Func string

const (
	Count        Func = "count"
	Sum          Func = "sum"
	Mean         Func = "mean"
	Min          Func = "min"
	Max          Func = "max"
	First        Func = "first"
	Last         Func = "last"
	List         Func = "list"
	CountUnique  Func = "count_unique"
	StringConcat Func = "string_concat"
	Median       Func = "median"
	Std          Func = "std"
	Var          Func = "var"
)

// Spec describes one output column of a group_by_agg call: apply Fn to the
// values of Column within each group, producing a field named As.
type Spec struct {
	Column string
	Fn     Func
	As     string
	Sep    string // not read: Apply's StringConcat always joins with ","
}

// Apply runs fn over a slice of raw row values (as extracted from either a
// DataFrame column or Array-of-Object field) and returns the aggregate.
func Apply(fn Func, vals []interface{}) interface{} {
	switch fn {
	case Count:
		return len(vals)
	case CountUnique:
		seen := make(map[string]bool, len(vals))
		for _, v := range vals {
			seen[fmt.Sprintf("%v", v)] = true
		}
		return len(seen)
	case First:
		if len(vals) == 0 {
			return nil
		}
		return vals[0]
	case Last:
		if len(vals) == 0 {
			return nil
		}
		return vals[len(vals)-1]
	case List:
		out := make([]interface{}, len(vals))
		copy(out, vals)
		return out
	case StringConcat:
		sep := ","
		parts := make([]string, 0, len(vals))
		for _, v := range vals {
			if v == nil {
				continue
			}
			parts = append(parts, fmt.Sprintf("%v", v))
		}
		joined := ""
		for i, p := range parts {
			if i > 0 {
				joined += sep
			}
			joined += p
		}
		return joined
	case Sum, Mean, Min, Max, Median, Std, Var:
		return numericAgg(fn, vals)
	default:
		return nil
	}
}

// numericAgg computes sum/mean/min/max/median (Percentile(50)) with the
// teacher's NDArray numeric kernels, so the group_by_agg numeric path and the
// standalone NDArray API share those; std/var use the sample helpers below.
func numericAgg(fn Func, vals []interface{}) interface{} {
	nums := toFloats(vals)
	if len(nums) == 0 {
		return nil
	}
	arr := dataframe.NewArray(nums)
	switch fn {
	case Sum:
		return arr.Sum()
	case Mean:
		return arr.Mean()
	case Min:
		return arr.Min()
	case Max:
		return arr.Max()
	case Median:
		return arr.Percentile(50)
	case Std:
		return sampleStd(nums)
	case Var:
		return sampleVar(nums)
	}
	return nil
}

// sampleStd/sampleVar use the sample (n-1) denominator per spec §4.6,
// distinct from NDArray.Std/Var which are population (n) statistics used
// elsewhere in the dataframe package.
func sampleVar(nums []float64) float64 {
	if len(nums) < 2 {
		return 0
	}
	mean := 0.0
	for _, n := range nums {
		mean += n
	}
	mean /= float64(len(nums))
	v := 0.0
	for _, n := range nums {
		d := n - mean
		v += d * d
	}
	return v / float64(len(nums)-1)
}

func sampleStd(nums []float64) float64 {
	return math.Sqrt(sampleVar(nums))
}

func toFloats(vals []interface{}) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case int:
			out = append(out, float64(n))
		case int64:
			out = append(out, float64(n))
		}
	}
	return out
}

// GroupRecords groups Array-of-Object rows (spec §4.6's record shape) by
// the given field names, in sorted composite-key order, mirroring
// dataframe.DataFrame.GroupByKeys for the non-columnar path.
func GroupRecords(rows []map[string]interface{}, keys []string) ([]string, map[string][]map[string]interface{}) {
	order := make([]string, 0)
	groups := make(map[string][]map[string]interface{})
	for _, row := range rows {
		key := recordKey(row, keys)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}
	sort.Strings(order)
	return order, groups
}

func recordKey(row map[string]interface{}, keys []string) string {
	key := ""
	for i, k := range keys {
		if i > 0 {
			key += "\x1f"
		}
		key += fmt.Sprintf("%v", row[k])
	}
	return key
}

// RollingStd computes the rolling sample standard deviation over a plain
// []float64 (the Array-of-Object equivalent of dataframe.Series.RollingStd),
// so both execution paths share identical window/min_periods semantics.
func RollingStd(nums []float64, window, minPeriods int) []interface{} {
	out := make([]interface{}, len(nums))
	for i := range nums {
		lo := i + 1 - window
		if lo < 0 {
			lo = 0
		}
		window := nums[lo : i+1]
		if len(window) < minPeriods {
			out[i] = nil
			continue
		}
		out[i] = sampleStd(window)
	}
	return out
}

// SortKeys returns keys sorted for deterministic group iteration when
// first-seen order isn't requested by the caller.
func SortKeys(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	sort.Strings(out)
	return out
}
