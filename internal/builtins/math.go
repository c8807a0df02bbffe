package builtins

import (
	"math"

	"dsq/internal/ops"
	"dsq/internal/value"
)

func registerMath(r map[string]ops.BuiltinFunc) {
	r["floor"] = floatFn(math.Floor)
	r["ceil"] = floatFn(math.Ceil)
	r["round"] = floatFn(math.Round)
	r["abs"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		switch input.Kind() {
		case value.KindInt:
			n := input.AsInt()
			if n < 0 {
				n = -n
			}
			return value.Int(n), nil
		case value.KindFloat:
			return value.Float(math.Abs(input.AsFloat())), nil
		default:
			return value.Null(), ops.NewError("abs", "expected a number, got %s", input.Kind())
		}
	}

	r["min"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		arr := input.AsArray()
		if len(arr) == 0 {
			return value.Null(), nil
		}
		m := arr[0]
		for _, v := range arr[1:] {
			if value.Compare(v, m) < 0 {
				m = v
			}
		}
		return m, nil
	}

	r["max"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		arr := input.AsArray()
		if len(arr) == 0 {
			return value.Null(), nil
		}
		m := arr[0]
		for _, v := range arr[1:] {
			if value.Compare(v, m) > 0 {
				m = v
			}
		}
		return m, nil
	}
}

func floatFn(fn func(float64) float64) ops.BuiltinFunc {
	return func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		switch input.Kind() {
		case value.KindFloat:
			return value.Float(fn(input.AsFloat())), nil
		case value.KindInt:
			return value.Int(input.AsInt()), nil
		default:
			return value.Null(), ops.NewError("math", "expected a number, got %s", input.Kind())
		}
	}
}
