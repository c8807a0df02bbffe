package builtins

import (
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"dsq/internal/ops"
	"dsq/internal/value"
)

// registerTime wires strftime/strflocaltime/strptime/start_of_week per spec
// §4.5 onto ncruces/go-strftime, the only strftime-format implementation
// anywhere in the retrieval pack.
func registerTime(r map[string]ops.BuiltinFunc) {
	r["strftime"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("strftime", "expects exactly 1 format argument")
		}
		layout, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		t, err := parseEpoch(input)
		if err != nil {
			return value.Null(), err
		}
		return value.String(strftime.Format(layout.AsString(), t.UTC())), nil
	}

	r["strflocaltime"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("strflocaltime", "expects exactly 1 format argument")
		}
		layout, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		t, err := parseEpoch(input)
		if err != nil {
			return value.Null(), err
		}
		return value.String(strftime.Format(layout.AsString(), t.Local())), nil
	}

	r["strptime"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("strptime", "expects exactly 1 format argument")
		}
		if input.Kind() != value.KindString {
			return value.Null(), ops.NewError("strptime", "input must be a string, got %s", input.Kind())
		}
		layout, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		goLayout := strftimeToGoLayout(layout.AsString())
		t, err := time.Parse(goLayout, input.AsString())
		if err != nil {
			if ctx.Mode == ops.ModeStrict {
				return value.Null(), ops.NewError("strptime", "%v", err)
			}
			return value.Null(), nil
		}
		return value.Int(t.Unix()), nil
	}

	r["start_of_week"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		t, err := parseEpoch(input)
		if err != nil {
			return value.Null(), err
		}
		weekday := int(t.Weekday())
		daysSinceMonday := (weekday + 6) % 7
		start := t.UTC().AddDate(0, 0, -daysSinceMonday)
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		return value.Int(start.Unix()), nil
	}
}

func parseEpoch(v value.Value) (time.Time, error) {
	switch v.Kind() {
	case value.KindInt:
		return time.Unix(v.AsInt(), 0), nil
	case value.KindFloat:
		secs := int64(v.AsFloat())
		return time.Unix(secs, 0), nil
	default:
		return time.Time{}, ops.NewError("time", "expected a unix timestamp, got %s", v.Kind())
	}
}

// strftimeToGoLayout covers the small set of conversion specifiers spec
// §4.5's strptime needs; ncruces/go-strftime itself only formats, it does
// not parse, so strptime maps its directives onto Go's reference-time
// layout instead.
func strftimeToGoLayout(format string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%Z", "MST", "%z", "-0700",
	)
	return replacer.Replace(format)
}
