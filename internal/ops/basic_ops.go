package ops

import (
	"dsq/internal/dataframe"
	"dsq/internal/value"
)

// IdentityOp is ".": returns its input unchanged.
type IdentityOp struct{}

func (IdentityOp) Describe() string { return "identity" }

func (IdentityOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	return []value.Value{input}, nil
}

// LiteralOp ignores its input and always produces the same constant Value.
type LiteralOp struct{ Val value.Value }

func (LiteralOp) Describe() string { return "literal" }

func (o LiteralOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	return []value.Value{o.Val}, nil
}

// VariableOp looks up "$name" in the context's variable bindings.
type VariableOp struct{ Name string }

func (o VariableOp) Describe() string { return "$" + o.Name }

func (o VariableOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	v, ok := ctx.Vars[o.Name]
	if !ok {
		return nil, NewError("variable", "undefined variable $%s", o.Name)
	}
	return []value.Value{v}, nil
}

// FieldAccessOp walks a chain of object-field lookups. When Base is nil, it
// reads from Apply's input; otherwise it first evaluates Base.
type FieldAccessOp struct {
	Base   Operation // nil means "."
	Fields []string
}

func (FieldAccessOp) Describe() string { return "field access" }

func (o FieldAccessOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	cur := input
	if o.Base != nil {
		v, err := ApplyOne(ctx, o.Base, input)
		if err != nil {
			return nil, err
		}
		cur = v
	}
	for _, f := range o.Fields {
		next, err := getField(cur, f)
		if err != nil {
			if ctx.Mode == ModeStrict {
				return nil, err
			}
			if ctx.Mode == ModeCollect {
				ctx.Errors = append(ctx.Errors, err)
			}
			return []value.Value{value.Null()}, nil
		}
		cur = next
	}
	return []value.Value{cur}, nil
}

func getField(v value.Value, field string) (value.Value, error) {
	switch v.Kind() {
	case value.KindNull:
		return value.Null(), nil
	case value.KindObject:
		got, ok := v.Get(field)
		if !ok {
			return value.Null(), nil
		}
		return got, nil
	default:
		return value.Null(), NewError("field access", "cannot index %s with %q", v.Kind(), field)
	}
}

// ArrayAccessOp is "EXPR[INDEX]".
type ArrayAccessOp struct {
	Array Operation
	Index Operation
}

func (ArrayAccessOp) Describe() string { return "index" }

func (o ArrayAccessOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	base, err := ApplyOne(ctx, o.Array, input)
	if err != nil {
		return nil, err
	}
	idxV, err := ApplyOne(ctx, o.Index, input)
	if err != nil {
		return nil, err
	}
	out, err := indexValue(base, idxV)
	if err != nil {
		if ctx.Mode == ModeStrict {
			return nil, err
		}
		if ctx.Mode == ModeCollect {
			ctx.Errors = append(ctx.Errors, err)
		}
		return []value.Value{value.Null()}, nil
	}
	return []value.Value{out}, nil
}

func indexValue(base, idxV value.Value) (value.Value, error) {
	switch base.Kind() {
	case value.KindNull:
		return value.Null(), nil
	case value.KindArray:
		arr := base.AsArray()
		i, err := asInt(idxV)
		if err != nil {
			return value.Null(), err
		}
		if i < 0 {
			i += len(arr)
		}
		if i < 0 || i >= len(arr) {
			return value.Null(), nil
		}
		return arr[i], nil
	case value.KindObject:
		key := idxV.AsString()
		got, ok := base.Get(key)
		if !ok {
			return value.Null(), nil
		}
		return got, nil
	default:
		return value.Null(), NewError("index", "cannot index %s", base.Kind())
	}
}

func asInt(v value.Value) (int, error) {
	switch v.Kind() {
	case value.KindInt:
		return int(v.AsInt()), nil
	case value.KindFloat:
		return int(v.AsFloat()), nil
	default:
		return 0, NewError("index", "index must be numeric, got %s", v.Kind())
	}
}

// ArraySliceOp is "EXPR[START:END]"; Start/End may be nil for open bounds.
type ArraySliceOp struct {
	Array Operation
	Start Operation
	End   Operation
}

func (ArraySliceOp) Describe() string { return "slice" }

func (o ArraySliceOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	base, err := ApplyOne(ctx, o.Array, input)
	if err != nil {
		return nil, err
	}
	var arr []value.Value
	switch base.Kind() {
	case value.KindNull:
		return []value.Value{value.Null()}, nil
	case value.KindArray:
		arr = base.AsArray()
	case value.KindString:
		runes := []rune(base.AsString())
		start, end, err := sliceBounds(ctx, o, input, len(runes))
		if err != nil {
			return nil, err
		}
		return []value.Value{value.String(string(runes[start:end]))}, nil
	default:
		return nil, NewError("slice", "cannot slice %s", base.Kind())
	}
	start, end, err := sliceBounds(ctx, o, input, len(arr))
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, end-start)
	copy(out, arr[start:end])
	return []value.Value{value.Array(out)}, nil
}

func sliceBounds(ctx *Context, o ArraySliceOp, input value.Value, n int) (int, int, error) {
	start, end := 0, n
	if o.Start != nil {
		v, err := ApplyOne(ctx, o.Start, input)
		if err != nil {
			return 0, 0, err
		}
		start, err = asInt(v)
		if err != nil {
			return 0, 0, err
		}
	}
	if o.End != nil {
		v, err := ApplyOne(ctx, o.End, input)
		if err != nil {
			return 0, 0, err
		}
		end, err = asInt(v)
		if err != nil {
			return 0, 0, err
		}
	}
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end, nil
}

// ArrayIterationOp is "EXPR[]": fans a single input out across the elements
// of an array, the values of an object, or the rows of a DataFrame/
// LazyFrame (collected first), per spec §9's shape-dispatch note.
type ArrayIterationOp struct {
	Inner Operation
}

func (ArrayIterationOp) Describe() string { return "iterate" }

func (o ArrayIterationOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	base, err := ApplyOne(ctx, o.Inner, input)
	if err != nil {
		return nil, err
	}
	switch base.Kind() {
	case value.KindArray:
		return base.AsArray(), nil
	case value.KindObject:
		entries := base.AsObject()
		out := make([]value.Value, len(entries))
		for i, e := range entries {
			out[i] = e.Val
		}
		return out, nil
	case value.KindLazyFrame:
		return rowsAsObjects(base.AsLazyFrame().Collect()), nil
	case value.KindDataFrame:
		return rowsAsObjects(base.AsDataFrame()), nil
	case value.KindSeries:
		s := base.AsSeries()
		out := make([]value.Value, s.Len())
		for i := 0; i < s.Len(); i++ {
			out[i] = FromGo(s.GetByPosition(i))
		}
		return out, nil
	default:
		return nil, NewError("iterate", "cannot iterate over %s", base.Kind())
	}
}

func rowsAsObjects(df *dataframe.DataFrame) []value.Value {
	records := df.ToRecords()
	out := make([]value.Value, len(records))
	for i, rec := range records {
		out[i] = FromRecord(rec)
	}
	return out
}

// PipelineOp runs Stages left to right; each stage may fan one input out to
// many, and every output of stage i becomes an input to stage i+1.
type PipelineOp struct {
	Stages []Operation
}

func (PipelineOp) Describe() string { return "pipeline" }

func (o PipelineOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	cur := []value.Value{input}
	for _, stage := range o.Stages {
		if err := ctx.CheckTimeout(); err != nil {
			return nil, err
		}
		var next []value.Value
		for _, v := range cur {
			outs, err := stage.Apply(ctx, v)
			if err != nil {
				if ctx.Mode == ModeStrict {
					return nil, err
				}
				if ctx.Mode == ModeCollect {
					ctx.Errors = append(ctx.Errors, err)
				}
				continue
			}
			next = append(next, outs...)
		}
		cur = next
	}
	return cur, nil
}

// SequenceOp is "e1, e2, ...": every branch runs against the same input,
// and the branches' outputs are concatenated in order.
type SequenceOp struct {
	Branches []Operation
}

func (SequenceOp) Describe() string { return "sequence" }

func (o SequenceOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	var out []value.Value
	for _, b := range o.Branches {
		outs, err := b.Apply(ctx, input)
		if err != nil {
			return nil, err
		}
		out = append(out, outs...)
	}
	return out, nil
}

// IfOp is "if COND then THEN else ELSE end"; truthiness follows value.Truthy.
type IfOp struct {
	Cond Operation
	Then Operation
	Else Operation
}

func (IfOp) Describe() string { return "if" }

func (o IfOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	cond, err := ApplyOne(ctx, o.Cond, input)
	if err != nil {
		return nil, err
	}
	if cond.Truthy() {
		return o.Then.Apply(ctx, input)
	}
	if o.Else != nil {
		return o.Else.Apply(ctx, input)
	}
	return []value.Value{input}, nil
}

// ObjectEntryOp is one compiled "key: value" pair, or a shorthand field.
type ObjectEntryOp struct {
	Key   Operation
	Value Operation
}

// ObjectOp builds an object from its input per entry.
type ObjectOp struct {
	Entries []ObjectEntryOp
}

func (ObjectOp) Describe() string { return "object construction" }

func (o ObjectOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	b := value.NewObjectBuilder()
	for _, e := range o.Entries {
		k, err := ApplyOne(ctx, e.Key, input)
		if err != nil {
			return nil, err
		}
		v, err := ApplyOne(ctx, e.Value, input)
		if err != nil {
			return nil, err
		}
		b.Set(k.AsString(), v)
	}
	return []value.Value{b.Build()}, nil
}

// ArrayOp builds an array-construction expression: "[ expr, expr, ... ]"
// collects ALL outputs of each element operation (since an element may be
// an iteration/pipeline fanning to many values) into one flat array.
type ArrayOp struct {
	Elements []Operation
}

func (ArrayOp) Describe() string { return "array construction" }

func (o ArrayOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	var out []value.Value
	for _, el := range o.Elements {
		outs, err := el.Apply(ctx, input)
		if err != nil {
			return nil, err
		}
		out = append(out, outs...)
	}
	return []value.Value{value.Array(out)}, nil
}
