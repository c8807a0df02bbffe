package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dsq/internal/value"
)

func evalOne(t *testing.T, mode ErrorMode, op Operation, input value.Value) (value.Value, error) {
	t.Helper()
	ctx := NewContext(nil, nil, mode)
	outs, err := op.Apply(ctx, input)
	if err != nil {
		return value.Null(), err
	}
	require.Len(t, outs, 1)
	return outs[0], nil
}

func bin(op BinaryOpKind, l, r value.Value) Operation {
	return BinaryOpNode{Left: LiteralOp{Val: l}, Operator: op, Right: LiteralOp{Val: r}}
}

func TestBinaryArithmeticPromotion(t *testing.T) {
	out, err := evalOne(t, ModeStrict, bin(OpAdd, value.Int(1), value.Float(2.5)), value.Null())
	require.NoError(t, err)
	require.Equal(t, value.KindFloat, out.Kind())
	require.Equal(t, 3.5, out.AsFloat())
}

func TestBinaryStringConcatenation(t *testing.T) {
	out, err := evalOne(t, ModeStrict, bin(OpAdd, value.String("foo"), value.String("bar")), value.Null())
	require.NoError(t, err)
	require.Equal(t, value.String("foobar"), out)
}

func TestBinaryObjectMergeRightWins(t *testing.T) {
	l := value.NewObjectBuilder().Set("a", value.Int(1)).Set("b", value.Int(2)).Build()
	r := value.NewObjectBuilder().Set("b", value.Int(99)).Set("c", value.Int(3)).Build()
	out, err := evalOne(t, ModeStrict, bin(OpAdd, l, r), value.Null())
	require.NoError(t, err)
	b, _ := out.Get("b")
	require.Equal(t, int64(99), b.AsInt())
	c, _ := out.Get("c")
	require.Equal(t, int64(3), c.AsInt())
}

func TestBinaryAddWithNullIsIdentity(t *testing.T) {
	out, err := evalOne(t, ModeStrict, bin(OpAdd, value.Null(), value.Int(5)), value.Null())
	require.NoError(t, err)
	require.Equal(t, int64(5), out.AsInt())
}

func TestStringRepetitionByMultiply(t *testing.T) {
	out, err := evalOne(t, ModeStrict, bin(OpMul, value.String("ab"), value.Int(3)), value.Null())
	require.NoError(t, err)
	require.Equal(t, value.String("ababab"), out)
}

func TestDivisionAlwaysYieldsFloat(t *testing.T) {
	out, err := evalOne(t, ModeStrict, bin(OpDiv, value.Int(7), value.Int(2)), value.Null())
	require.NoError(t, err)
	require.Equal(t, value.KindFloat, out.Kind())
	require.Equal(t, 3.5, out.AsFloat())
}

func TestDivisionByZeroErrorsInStrictMode(t *testing.T) {
	_, err := evalOne(t, ModeStrict, bin(OpDiv, value.Int(1), value.Int(0)), value.Null())
	require.Error(t, err)
}

func TestDivisionByZeroIsNullUnderIgnoreMode(t *testing.T) {
	out, err := evalOne(t, ModeIgnore, bin(OpDiv, value.Int(1), value.Int(0)), value.Null())
	require.NoError(t, err)
	require.True(t, out.IsNull())
}

func TestModuloRequiresIntegers(t *testing.T) {
	out, err := evalOne(t, ModeStrict, bin(OpMod, value.Int(10), value.Int(3)), value.Null())
	require.NoError(t, err)
	require.Equal(t, int64(1), out.AsInt())

	_, err = evalOne(t, ModeStrict, bin(OpMod, value.Float(1.5), value.Int(3)), value.Null())
	require.Error(t, err)
}

func TestComparisonOperators(t *testing.T) {
	out, err := evalOne(t, ModeStrict, bin(OpLt, value.Int(1), value.Int(2)), value.Null())
	require.NoError(t, err)
	require.Equal(t, value.Bool(true), out)

	out, err = evalOne(t, ModeStrict, bin(OpEq, value.String("a"), value.String("a")), value.Null())
	require.NoError(t, err)
	require.Equal(t, value.Bool(true), out)
}

func TestLogicalAndShortCircuits(t *testing.T) {
	op := BinaryOpNode{
		Left:     LiteralOp{Val: value.Bool(false)},
		Operator: OpAnd,
		Right:    panicOp{},
	}
	out, err := evalOne(t, ModeStrict, op, value.Null())
	require.NoError(t, err)
	require.Equal(t, value.Bool(false), out)
}

func TestLogicalOrShortCircuits(t *testing.T) {
	op := BinaryOpNode{
		Left:     LiteralOp{Val: value.Bool(true)},
		Operator: OpOr,
		Right:    panicOp{},
	}
	out, err := evalOne(t, ModeStrict, op, value.Null())
	require.NoError(t, err)
	require.Equal(t, value.Bool(true), out)
}

// panicOp fails the test if ever evaluated; used to assert short-circuiting.
type panicOp struct{}

func (panicOp) Describe() string { return "panic" }
func (panicOp) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	panic("should not be evaluated")
}

func TestUnaryNegationAndNot(t *testing.T) {
	neg := UnaryOpNode{Operator: "-", Operand: LiteralOp{Val: value.Int(5)}}
	out, err := evalOne(t, ModeStrict, neg, value.Null())
	require.NoError(t, err)
	require.Equal(t, int64(-5), out.AsInt())

	not := UnaryOpNode{Operator: "not", Operand: LiteralOp{Val: value.Bool(false)}}
	out, err = evalOne(t, ModeStrict, not, value.Null())
	require.NoError(t, err)
	require.Equal(t, value.Bool(true), out)
}
