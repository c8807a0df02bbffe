package builtins

import (
	"dsq/internal/ops"
	"dsq/internal/value"
)

// registerControl wires "iferror" (try/catch's lowered form, spec §3.2) and
// a handful of type/identity helpers.
func registerControl(r map[string]ops.BuiltinFunc) {
	r["iferror"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 2 {
			return value.Null(), ops.NewError("iferror", "expects exactly 2 arguments")
		}
		strict := *ctx
		strict.Mode = ops.ModeStrict
		out, err := ops.ApplyOne(&strict, args[0], input)
		if err == nil {
			return out, nil
		}
		return ops.ApplyOne(ctx, args[1], input)
	}

	r["type"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		return value.String(input.Kind().String()), nil
	}

	r["not"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		return value.Bool(!input.Truthy()), nil
	}

	r["empty"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		return value.Null(), nil
	}

	r["error"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		msg := input.String()
		if len(args) == 1 {
			v, err := ops.ApplyOne(ctx, args[0], input)
			if err != nil {
				return value.Null(), err
			}
			msg = v.String()
		}
		return value.Null(), ops.NewError("error", "%s", msg)
	}
}
