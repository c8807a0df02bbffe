package builtins

import (
	"fmt"
	"sort"
	"strings"

	"dsq/internal/agg"
	"dsq/internal/dataframe"
	"dsq/internal/ops"
	"dsq/internal/value"
)

// registerDataframe wires the columnar/grouping builtins of spec §4.6,
// dispatching between the DataFrame path (dataframe.GroupByKeys) and the
// Array-of-Object path (agg.GroupRecords) so both shapes share one
// aggregation kernel (internal/agg).
func registerDataframe(r map[string]ops.BuiltinFunc) {
	r["group_by"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("group_by", "expects exactly 1 argument")
		}
		keys, err := groupKeyArg(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		switch input.Kind() {
		case value.KindDataFrame:
			return groupByDataFrame(input.AsDataFrame(), keys)
		case value.KindLazyFrame:
			return groupByDataFrame(input.AsLazyFrame().Collect(), keys)
		default:
			arr, err := toArray(ctx, input)
			if err != nil {
				return value.Null(), err
			}
			return groupByRecords(arr, keys), nil
		}
	}

	r["group_by_agg"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), ops.NewError("group_by_agg", "expects a key argument and at least one agg spec")
		}
		keys, err := groupKeyArg(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		specs, err := aggSpecArgs(ctx, args[1:], input)
		if err != nil {
			return value.Null(), err
		}
		rows, err := toArray(ctx, input)
		if err != nil {
			return value.Null(), err
		}
		records := make([]map[string]interface{}, len(rows))
		for i, v := range rows {
			records[i] = ops.ToRecord(v)
		}
		order, groups := agg.GroupRecords(records, keys)
		out := make([]value.Value, 0, len(order))
		for _, key := range order {
			group := groups[key]
			b := value.NewObjectBuilder()
			for _, k := range keys {
				if len(group) > 0 {
					b.Set(k, ops.FromGo(group[0][k]))
				}
			}
			for _, spec := range specs {
				vals := columnValues(group, spec.Column)
				b.Set(spec.As, ops.FromGo(agg.Apply(spec.Fn, vals)))
			}
			out = append(out, b.Build())
		}
		return value.Array(out), nil
	}

	r["rolling_std"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 2 {
			return value.Null(), ops.NewError("rolling_std", "expects window and min_periods arguments")
		}
		w, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		mp, err := ops.ApplyOne(ctx, args[1], input)
		if err != nil {
			return value.Null(), err
		}
		if input.Kind() == value.KindSeries {
			out := input.AsSeries().RollingStd(int(w.AsInt()), int(mp.AsInt()))
			vals := make([]value.Value, len(out))
			for i, v := range out {
				vals[i] = ops.FromGo(v)
			}
			return value.Array(vals), nil
		}
		arr, err := toArray(ctx, input)
		if err != nil {
			return value.Null(), err
		}
		nums := make([]float64, len(arr))
		for i, v := range arr {
			if v.Kind() == value.KindFloat {
				nums[i] = v.AsFloat()
			} else if v.Kind() == value.KindInt {
				nums[i] = float64(v.AsInt())
			}
		}
		out := agg.RollingStd(nums, int(w.AsInt()), int(mp.AsInt()))
		vals := make([]value.Value, len(out))
		for i, v := range out {
			vals[i] = ops.FromGo(v)
		}
		return value.Array(vals), nil
	}

	r["pivot"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) < 3 || len(args) > 4 {
			return value.Null(), ops.NewError("pivot", "expects index columns, pivot column, and value column arguments, plus an optional aggregation function")
		}
		indexCols, err := groupKeyArg(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		pivotCol, err := strArgVal(ctx, args[1], input)
		if err != nil {
			return value.Null(), err
		}
		valueCol, err := strArgVal(ctx, args[2], input)
		if err != nil {
			return value.Null(), err
		}
		fn := agg.Sum
		if len(args) == 4 {
			name, err := strArgVal(ctx, args[3], input)
			if err != nil {
				return value.Null(), err
			}
			fn, err = pivotAggFunc(name)
			if err != nil {
				return value.Null(), err
			}
		}
		df, err := asDataFrame(ctx, input)
		if err != nil {
			return value.Null(), err
		}
		return value.DataFrame(pivotTable(df, indexCols, pivotCol, valueCol, fn)), nil
	}

	r["melt"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), ops.NewError("melt", "expects an id-columns argument and an optional value-columns argument")
		}
		idVars, err := groupKeyArg(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		var valueVars []string
		if len(args) > 1 {
			valueVars, err = groupKeyArg(ctx, args[1], input)
			if err != nil {
				return value.Null(), err
			}
		}
		df, err := asDataFrame(ctx, input)
		if err != nil {
			return value.Null(), err
		}
		return value.DataFrame(df.Melt(idVars, valueVars)), nil
	}

	r["topk"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 2 {
			return value.Null(), ops.NewError("topk", "expects a key function and a count")
		}
		arr, err := toArray(ctx, input)
		if err != nil {
			return value.Null(), err
		}
		k, err := ops.ApplyOne(ctx, args[1], input)
		if err != nil {
			return value.Null(), err
		}
		out, err := topK(ctx, arr, args[0], int(k.AsInt()))
		if err != nil {
			return value.Null(), err
		}
		return value.Array(out), nil
	}

	r["topk_with_counts"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 2 {
			return value.Null(), ops.NewError("topk_with_counts", "expects a key function and a count")
		}
		arr, err := toArray(ctx, input)
		if err != nil {
			return value.Null(), err
		}
		k, err := ops.ApplyOne(ctx, args[1], input)
		if err != nil {
			return value.Null(), err
		}
		counts := make(map[string]int)
		first := make(map[string]value.Value)
		for _, v := range arr {
			key, err := ops.ApplyOne(ctx, args[0], v)
			if err != nil {
				return value.Null(), err
			}
			s := key.String()
			if counts[s] == 0 {
				first[s] = key
			}
			counts[s]++
		}
		type pair struct {
			key   string
			count int
		}
		pairs := make([]pair, 0, len(counts))
		for k, c := range counts {
			pairs = append(pairs, pair{k, c})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].count > pairs[j].count })
		n := int(k.AsInt())
		if n > len(pairs) {
			n = len(pairs)
		}
		out := make([]value.Value, n)
		for i := 0; i < n; i++ {
			b := value.NewObjectBuilder()
			b.Set("value", first[pairs[i].key])
			b.Set("count", value.Int(int64(pairs[i].count)))
			out[i] = b.Build()
		}
		return value.Array(out), nil
	}

	r["avg_if"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("avg_if", "expects a predicate argument")
		}
		arr, err := toArray(ctx, input)
		if err != nil {
			return value.Null(), err
		}
		return avgWhere(ctx, arr, func(v value.Value) (bool, error) {
			keep, err := ops.ApplyOne(ctx, args[0], v)
			return keep.Truthy(), err
		})
	}

	r["avg_ifs"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) == 0 {
			return value.Null(), ops.NewError("avg_ifs", "expects at least one predicate argument")
		}
		arr, err := toArray(ctx, input)
		if err != nil {
			return value.Null(), err
		}
		return avgWhere(ctx, arr, func(v value.Value) (bool, error) {
			for _, pred := range args {
				keep, err := ops.ApplyOne(ctx, pred, v)
				if err != nil {
					return false, err
				}
				if !keep.Truthy() {
					return false, nil
				}
			}
			return true, nil
		})
	}
}

func avgWhere(ctx *ops.Context, arr []value.Value, pred func(value.Value) (bool, error)) (value.Value, error) {
	var nums []interface{}
	for _, v := range arr {
		ok, err := pred(v)
		if err != nil {
			return value.Null(), err
		}
		if ok {
			nums = append(nums, ops.ToGo(v))
		}
	}
	return ops.FromGo(agg.Apply(agg.Mean, nums)), nil
}

func topK(ctx *ops.Context, arr []value.Value, keyFn ops.Operation, k int) ([]value.Value, error) {
	type pair struct {
		v   value.Value
		key value.Value
	}
	pairs := make([]pair, len(arr))
	for i, v := range arr {
		key, err := ops.ApplyOne(ctx, keyFn, v)
		if err != nil {
			return nil, err
		}
		pairs[i] = pair{v, key}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return value.Compare(pairs[i].key, pairs[j].key) > 0 })
	if k > len(pairs) {
		k = len(pairs)
	}
	out := make([]value.Value, k)
	for i := 0; i < k; i++ {
		out[i] = pairs[i].v
	}
	return out, nil
}

func groupKeyArg(ctx *ops.Context, arg ops.Operation, input value.Value) ([]string, error) {
	if fa, ok := arg.(ops.FieldAccessOp); ok && fa.Base == nil && len(fa.Fields) == 1 {
		return fa.Fields, nil
	}
	v, err := ops.ApplyOne(ctx, arg, input)
	if err != nil {
		return nil, err
	}
	if v.Kind() == value.KindArray {
		out := make([]string, len(v.AsArray()))
		for i, e := range v.AsArray() {
			out[i] = e.AsString()
		}
		return out, nil
	}
	return []string{v.AsString()}, nil
}

// aggSpecArgs builds agg.Spec values from compiled arguments; each agg spec
// argument is an object literal like {column: "x", fn: "sum", as: "x_sum"}.
func aggSpecArgs(ctx *ops.Context, argOps []ops.Operation, input value.Value) ([]agg.Spec, error) {
	specs := make([]agg.Spec, len(argOps))
	for i, a := range argOps {
		v, err := ops.ApplyOne(ctx, a, input)
		if err != nil {
			return nil, err
		}
		col, _ := v.Get("column")
		fn, _ := v.Get("fn")
		as, ok := v.Get("as")
		asName := fn.AsString() + "_" + col.AsString()
		if ok {
			asName = as.AsString()
		}
		specs[i] = agg.Spec{Column: col.AsString(), Fn: agg.Func(fn.AsString()), As: asName}
	}
	return specs, nil
}

func columnValues(rows []map[string]interface{}, column string) []interface{} {
	out := make([]interface{}, len(rows))
	for i, r := range rows {
		out[i] = r[column]
	}
	return out
}

func groupByDataFrame(df *dataframe.DataFrame, keys []string) (value.Value, error) {
	gdf := df.GroupByKeys(keys)
	allRecords := df.ToRecords()
	out := make([]value.Value, 0, len(gdf.GroupOrder))
	for _, key := range gdf.GroupOrder {
		rows := gdf.RowsForKey(key)
		records := make([]map[string]interface{}, len(rows))
		for i, r := range rows {
			records[i] = allRecords[r]
		}
		b := value.NewObjectBuilder()
		if len(records) > 0 {
			for _, k := range keys {
				b.Set(k, ops.FromGo(records[0][k]))
			}
		}
		b.Set("rows", value.DataFrame(dataframe.FromRecords(records)))
		out = append(out, b.Build())
	}
	return value.Array(out), nil
}

func groupByRecords(rows []value.Value, keys []string) value.Value {
	records := make([]map[string]interface{}, len(rows))
	for i, v := range rows {
		records[i] = ops.ToRecord(v)
	}
	order, groups := agg.GroupRecords(records, keys)
	out := make([]value.Value, 0, len(order))
	for _, key := range order {
		group := groups[key]
		groupVals := make([]value.Value, len(group))
		for i, rec := range group {
			groupVals[i] = ops.FromRecord(rec)
		}
		out = append(out, value.Array(groupVals))
	}
	return value.Array(out)
}

// pivotAggFunc maps a pivot() aggregation-function name to an agg.Func,
// mirroring the original builtin_pivot's aggregate_values match arm: sum is
// the default when the argument is omitted.
func pivotAggFunc(name string) (agg.Func, error) {
	switch name {
	case "", "sum":
		return agg.Sum, nil
	case "mean", "avg":
		return agg.Mean, nil
	case "count":
		return agg.Count, nil
	case "min":
		return agg.Min, nil
	case "max":
		return agg.Max, nil
	case "first":
		return agg.First, nil
	case "last":
		return agg.Last, nil
	default:
		return "", ops.NewError("pivot", fmt.Sprintf("unsupported aggregation function: %s", name))
	}
}

// pivotTable builds a wide table keyed by a composite index: one output row
// per unique combination of indexCols values, and one output column per
// unique pivotCol value (named "<pivotCol>_<value>") holding valueCol
// aggregated by fn across the rows sharing that index/pivot-value pair.
// Grounded on the original pivot() builtin, which groups by the full index
// tuple and aggregates (default sum) rather than keeping the last row seen.
func pivotTable(df *dataframe.DataFrame, indexCols []string, pivotCol, valueCol string, fn agg.Func) *dataframe.DataFrame {
	records := df.ToRecords()

	var pivotValues []string
	seenPivot := make(map[string]bool)
	for _, rec := range records {
		pv := fmt.Sprintf("%v", rec[pivotCol])
		if !seenPivot[pv] {
			seenPivot[pv] = true
			pivotValues = append(pivotValues, pv)
		}
	}
	sort.Strings(pivotValues)

	type indexGroup struct {
		index  map[string]interface{}
		values map[string][]interface{}
	}
	groups := make(map[string]*indexGroup)
	var order []string
	for _, rec := range records {
		keyParts := make([]string, len(indexCols))
		idx := make(map[string]interface{}, len(indexCols))
		for i, c := range indexCols {
			keyParts[i] = fmt.Sprintf("%v", rec[c])
			idx[c] = rec[c]
		}
		key := strings.Join(keyParts, "\x1f")
		g, ok := groups[key]
		if !ok {
			g = &indexGroup{index: idx, values: make(map[string][]interface{})}
			groups[key] = g
			order = append(order, key)
		}
		pv := fmt.Sprintf("%v", rec[pivotCol])
		g.values[pv] = append(g.values[pv], rec[valueCol])
	}
	sort.Strings(order)

	data := make(map[string][]interface{})
	for _, c := range indexCols {
		data[c] = nil
	}
	for _, pv := range pivotValues {
		data[pivotCol+"_"+pv] = nil
	}
	for _, key := range order {
		g := groups[key]
		for _, c := range indexCols {
			data[c] = append(data[c], g.index[c])
		}
		for _, pv := range pivotValues {
			vals := g.values[pv]
			var agged interface{}
			if len(vals) > 0 {
				agged = agg.Apply(fn, vals)
			}
			data[pivotCol+"_"+pv] = append(data[pivotCol+"_"+pv], agged)
		}
	}
	return dataframe.NewDataFrame(data)
}

func strArgVal(ctx *ops.Context, arg ops.Operation, input value.Value) (string, error) {
	v, err := ops.ApplyOne(ctx, arg, input)
	if err != nil {
		return "", err
	}
	return v.AsString(), nil
}

func asDataFrame(ctx *ops.Context, input value.Value) (*dataframe.DataFrame, error) {
	switch input.Kind() {
	case value.KindDataFrame:
		return input.AsDataFrame(), nil
	case value.KindLazyFrame:
		return input.AsLazyFrame().Collect(), nil
	default:
		arr, err := toArray(ctx, input)
		if err != nil {
			return nil, err
		}
		records := make([]map[string]interface{}, len(arr))
		for i, v := range arr {
			records[i] = ops.ToRecord(v)
		}
		return dataframe.FromRecords(records), nil
	}
}
