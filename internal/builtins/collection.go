package builtins

import (
	"sort"

	"dsq/internal/dataframe"
	"dsq/internal/ops"
	"dsq/internal/value"
)

func registerCollection(r map[string]ops.BuiltinFunc) {
	r["length"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		switch input.Kind() {
		case value.KindString:
			return value.Int(int64(len([]rune(input.AsString())))), nil
		case value.KindArray:
			return value.Int(int64(len(input.AsArray()))), nil
		case value.KindObject:
			return value.Int(int64(len(input.AsObject()))), nil
		case value.KindNull:
			return value.Int(0), nil
		case value.KindDataFrame:
			return value.Int(int64(input.AsDataFrame().NRows)), nil
		case value.KindLazyFrame:
			return value.Int(int64(input.AsLazyFrame().Collect().NRows)), nil
		case value.KindSeries:
			return value.Int(int64(input.AsSeries().Len())), nil
		default:
			return value.Int(0), nil
		}
	}

	r["keys"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if input.Kind() != value.KindObject {
			return value.Null(), ops.NewError("keys", "input must be an object, got %s", input.Kind())
		}
		entries := input.AsObject()
		out := make([]value.Value, len(entries))
		for i, e := range entries {
			out[i] = value.String(e.Key)
		}
		return value.Array(out), nil
	}

	r["values"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if input.Kind() != value.KindObject {
			return value.Null(), ops.NewError("values", "input must be an object, got %s", input.Kind())
		}
		entries := input.AsObject()
		out := make([]value.Value, len(entries))
		for i, e := range entries {
			out[i] = e.Val
		}
		return value.Array(out), nil
	}

	r["has"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("has", "expects exactly 1 argument")
		}
		key, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		_, ok := input.Get(key.AsString())
		return value.Bool(ok), nil
	}

	r["first"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		arr := input.AsArray()
		if len(arr) == 0 {
			return value.Null(), nil
		}
		return arr[0], nil
	}

	r["last"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		arr := input.AsArray()
		if len(arr) == 0 {
			return value.Null(), nil
		}
		return arr[len(arr)-1], nil
	}

	r["reverse"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		arr := input.AsArray()
		out := make([]value.Value, len(arr))
		for i, v := range arr {
			out[len(arr)-1-i] = v
		}
		return value.Array(out), nil
	}

	r["flatten"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		var out []value.Value
		for _, v := range input.AsArray() {
			if v.Kind() == value.KindArray {
				out = append(out, v.AsArray()...)
			} else {
				out = append(out, v)
			}
		}
		return value.Array(out), nil
	}

	r["unique"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		seen := make(map[string]bool)
		var out []value.Value
		for _, v := range input.AsArray() {
			key := v.String()
			if !seen[key] {
				seen[key] = true
				out = append(out, v)
			}
		}
		return value.Array(out), nil
	}

	r["contains"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("contains", "expects exactly 1 argument")
		}
		needle, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		switch input.Kind() {
		case value.KindString:
			return value.Bool(containsSubstr(input.AsString(), needle.AsString())), nil
		case value.KindArray:
			for _, v := range input.AsArray() {
				if value.Equal(v, needle) {
					return value.Bool(true), nil
				}
			}
			return value.Bool(false), nil
		default:
			return value.Bool(false), nil
		}
	}

	r["add"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		arr := input.AsArray()
		if len(arr) == 0 {
			return value.Null(), nil
		}
		acc := arr[0]
		for _, v := range arr[1:] {
			acc = value.Add(acc, v)
		}
		return acc, nil
	}

	r["range"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 2 {
			return value.Null(), ops.NewError("range", "expects exactly 2 arguments")
		}
		fromV, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		toV, err := ops.ApplyOne(ctx, args[1], input)
		if err != nil {
			return value.Null(), err
		}
		from, to := fromV.AsInt(), toV.AsInt()
		var out []value.Value
		for i := from; i < to; i++ {
			out = append(out, value.Int(i))
		}
		return value.Array(out), nil
	}

	r["map"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("map", "expects exactly 1 argument")
		}
		return mapShapeAware(ctx, input, args[0])
	}

	r["select"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("select", "expects exactly 1 argument")
		}
		return selectShapeAware(ctx, input, args[0])
	}

	r["sort_by"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("sort_by", "expects exactly 1 argument")
		}
		arr, err := toArray(ctx, input)
		if err != nil {
			return value.Null(), err
		}
		keyed := make([]value.Value, len(arr))
		copy(keyed, arr)
		keys := make([]value.Value, len(arr))
		for i, v := range arr {
			k, err := ops.ApplyOne(ctx, args[0], v)
			if err != nil {
				return value.Null(), err
			}
			keys[i] = k
		}
		idx := make([]int, len(arr))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(i, j int) bool {
			return value.Compare(keys[idx[i]], keys[idx[j]]) < 0
		})
		out := make([]value.Value, len(arr))
		for i, j := range idx {
			out[i] = keyed[j]
		}
		return wrapLikeInput(input, out), nil
	}
}

func containsSubstr(haystack, needle string) bool {
	if len(needle) == 0 {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// toArray normalizes any of the four shapes to a plain []value.Value:
// Array elements are returned as they are, DataFrame/LazyFrame rows become
// Object values, and a Series yields its scalar elements.
func toArray(ctx *ops.Context, input value.Value) ([]value.Value, error) {
	switch input.Kind() {
	case value.KindArray:
		return input.AsArray(), nil
	case value.KindDataFrame:
		return recordsToValues(input.AsDataFrame()), nil
	case value.KindLazyFrame:
		return recordsToValues(input.AsLazyFrame().Collect()), nil
	case value.KindSeries:
		s := input.AsSeries()
		out := make([]value.Value, s.Len())
		for i := 0; i < s.Len(); i++ {
			out[i] = ops.FromGo(s.GetByPosition(i))
		}
		return out, nil
	default:
		return nil, ops.NewError("shape", "expected an array, dataframe, lazyframe, or series, got %s", input.Kind())
	}
}

func recordsToValues(df *dataframe.DataFrame) []value.Value {
	records := df.ToRecords()
	out := make([]value.Value, len(records))
	for i, rec := range records {
		out[i] = ops.FromRecord(rec)
	}
	return out
}

// wrapLikeInput re-wraps a transformed []value.Value back into the same
// shape the input arrived in, so map/select/sort_by round-trip a DataFrame
// back to a DataFrame rather than silently downgrading it to an Array.
func wrapLikeInput(input value.Value, out []value.Value) value.Value {
	switch input.Kind() {
	case value.KindDataFrame, value.KindLazyFrame:
		records := make([]map[string]interface{}, len(out))
		for i, v := range out {
			records[i] = ops.ToRecord(v)
		}
		return value.DataFrame(dataframe.FromRecords(records))
	default:
		return value.Array(out)
	}
}

func mapShapeAware(ctx *ops.Context, input value.Value, fn ops.Operation) (value.Value, error) {
	arr, err := toArray(ctx, input)
	if err != nil {
		return value.Null(), err
	}
	out := make([]value.Value, 0, len(arr))
	for _, v := range arr {
		res, err := fn.Apply(ctx, v)
		if err != nil {
			if ctx.Mode == ops.ModeStrict {
				return value.Null(), err
			}
			if ctx.Mode == ops.ModeCollect {
				ctx.Errors = append(ctx.Errors, err)
			}
			continue
		}
		out = append(out, res...)
	}
	return wrapLikeInput(input, out), nil
}

func selectShapeAware(ctx *ops.Context, input value.Value, pred ops.Operation) (value.Value, error) {
	arr, err := toArray(ctx, input)
	if err != nil {
		return value.Null(), err
	}
	var out []value.Value
	for _, v := range arr {
		keep, err := ops.ApplyOne(ctx, pred, v)
		if err != nil {
			if ctx.Mode == ops.ModeStrict {
				return value.Null(), err
			}
			if ctx.Mode == ops.ModeCollect {
				ctx.Errors = append(ctx.Errors, err)
			}
			continue
		}
		if keep.Truthy() {
			out = append(out, v)
		}
	}
	return wrapLikeInput(input, out), nil
}
