package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dsq/internal/value"
)

func TestIdentityOp(t *testing.T) {
	in := value.Int(42)
	out, err := IdentityOp{}.Apply(NewContext(nil, nil, ModeStrict), in)
	require.NoError(t, err)
	require.Equal(t, []value.Value{in}, out)
}

func TestFieldAccessOpChain(t *testing.T) {
	inner := value.NewObjectBuilder().Set("c", value.Int(7)).Build()
	outer := value.NewObjectBuilder().Set("b", inner).Build()
	op := FieldAccessOp{Fields: []string{"b", "c"}}
	out, err := evalOne(t, ModeStrict, op, outer)
	require.NoError(t, err)
	require.Equal(t, int64(7), out.AsInt())
}

func TestFieldAccessOnNullReturnsNull(t *testing.T) {
	op := FieldAccessOp{Fields: []string{"x"}}
	out, err := evalOne(t, ModeStrict, op, value.Null())
	require.NoError(t, err)
	require.True(t, out.IsNull())
}

func TestFieldAccessOnIntErrorsInStrictMode(t *testing.T) {
	op := FieldAccessOp{Fields: []string{"x"}}
	_, err := evalOne(t, ModeStrict, op, value.Int(1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Operation failed")
}

func TestArrayAccessOpNegativeIndex(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	op := ArrayAccessOp{Array: LiteralOp{Val: arr}, Index: LiteralOp{Val: value.Int(-1)}}
	out, err := evalOne(t, ModeStrict, op, value.Null())
	require.NoError(t, err)
	require.Equal(t, int64(3), out.AsInt())
}

func TestArrayAccessOpOutOfBoundsIsNull(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1)})
	op := ArrayAccessOp{Array: LiteralOp{Val: arr}, Index: LiteralOp{Val: value.Int(5)}}
	out, err := evalOne(t, ModeStrict, op, value.Null())
	require.NoError(t, err)
	require.True(t, out.IsNull())
}

func TestArraySliceOpOpenBounds(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3), value.Int(4)})
	op := ArraySliceOp{Array: LiteralOp{Val: arr}, Start: LiteralOp{Val: value.Int(1)}}
	out, err := evalOne(t, ModeStrict, op, value.Null())
	require.NoError(t, err)
	require.Len(t, out.AsArray(), 3)
}

func TestArraySliceOpOnString(t *testing.T) {
	op := ArraySliceOp{
		Array: LiteralOp{Val: value.String("hello")},
		Start: LiteralOp{Val: value.Int(1)},
		End:   LiteralOp{Val: value.Int(3)},
	}
	out, err := evalOne(t, ModeStrict, op, value.Null())
	require.NoError(t, err)
	require.Equal(t, value.String("el"), out)
}

func TestArrayIterationOpOverArray(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	op := ArrayIterationOp{Inner: LiteralOp{Val: arr}}
	ctx := NewContext(nil, nil, ModeStrict)
	outs, err := op.Apply(ctx, value.Null())
	require.NoError(t, err)
	require.Len(t, outs, 3)
}

func TestArrayIterationOpOverObjectYieldsValues(t *testing.T) {
	o := value.NewObjectBuilder().Set("a", value.Int(1)).Set("b", value.Int(2)).Build()
	op := ArrayIterationOp{Inner: LiteralOp{Val: o}}
	ctx := NewContext(nil, nil, ModeStrict)
	outs, err := op.Apply(ctx, value.Null())
	require.NoError(t, err)
	require.Len(t, outs, 2)
}

func TestPipelineOpFansOutAcrossStages(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1), value.Int(2)})
	pipeline := PipelineOp{Stages: []Operation{
		ArrayIterationOp{Inner: LiteralOp{Val: arr}},
		BinaryOpNode{Left: IdentityOp{}, Operator: OpMul, Right: LiteralOp{Val: value.Int(10)}},
	}}
	ctx := NewContext(nil, nil, ModeStrict)
	outs, err := pipeline.Apply(ctx, value.Null())
	require.NoError(t, err)
	require.Len(t, outs, 2)
	require.Equal(t, int64(10), outs[0].AsInt())
	require.Equal(t, int64(20), outs[1].AsInt())
}

// failOnOp errors out whenever its input equals Want, regardless of mode;
// used to exercise PipelineOp's own per-element error handling directly.
type failOnOp struct{ Want value.Value }

func (failOnOp) Describe() string { return "fail-on" }
func (o failOnOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	if value.Equal(input, o.Want) {
		return nil, NewError("fail-on", "boom")
	}
	return []value.Value{input}, nil
}

func TestPipelineOpIgnoreModeDropsFailingBranch(t *testing.T) {
	pipeline := PipelineOp{Stages: []Operation{
		ArrayIterationOp{Inner: LiteralOp{Val: value.Array([]value.Value{value.Int(1), value.Int(2)})}},
		failOnOp{Want: value.Int(2)},
	}}
	ctx := NewContext(nil, nil, ModeIgnore)
	outs, err := pipeline.Apply(ctx, value.Null())
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.Equal(t, int64(1), outs[0].AsInt())
}

func TestSequenceOpConcatenatesBranchOutputs(t *testing.T) {
	op := SequenceOp{Branches: []Operation{
		LiteralOp{Val: value.Int(1)},
		LiteralOp{Val: value.Int(2)},
	}}
	ctx := NewContext(nil, nil, ModeStrict)
	outs, err := op.Apply(ctx, value.Null())
	require.NoError(t, err)
	require.Len(t, outs, 2)
}

func TestIfOpBranches(t *testing.T) {
	op := IfOp{
		Cond: IdentityOp{},
		Then: LiteralOp{Val: value.String("yes")},
		Else: LiteralOp{Val: value.String("no")},
	}
	out, err := evalOne(t, ModeStrict, op, value.Bool(true))
	require.NoError(t, err)
	require.Equal(t, value.String("yes"), out)

	out, err = evalOne(t, ModeStrict, op, value.Bool(false))
	require.NoError(t, err)
	require.Equal(t, value.String("no"), out)
}

func TestIfOpWithoutElseReturnsInputUnchanged(t *testing.T) {
	op := IfOp{Cond: IdentityOp{}, Then: LiteralOp{Val: value.String("yes")}}
	out, err := evalOne(t, ModeStrict, op, value.Bool(false))
	require.NoError(t, err)
	require.Equal(t, value.Bool(false), out)
}

func TestObjectOpBuildsFromEntries(t *testing.T) {
	op := ObjectOp{Entries: []ObjectEntryOp{
		{Key: LiteralOp{Val: value.String("name")}, Value: LiteralOp{Val: value.String("Alice")}},
		{Key: LiteralOp{Val: value.String("age")}, Value: LiteralOp{Val: value.Int(30)}},
	}}
	out, err := evalOne(t, ModeStrict, op, value.Null())
	require.NoError(t, err)
	name, _ := out.Get("name")
	require.Equal(t, value.String("Alice"), name)
}

func TestArrayOpFlattensFannedElements(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1), value.Int(2)})
	op := ArrayOp{Elements: []Operation{
		ArrayIterationOp{Inner: LiteralOp{Val: arr}},
		LiteralOp{Val: value.Int(3)},
	}}
	out, err := evalOne(t, ModeStrict, op, value.Null())
	require.NoError(t, err)
	require.Len(t, out.AsArray(), 3)
}
