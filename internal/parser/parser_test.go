package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIdentity(t *testing.T) {
	n, err := Parse(".")
	require.NoError(t, err)
	_, ok := n.(*Identity)
	require.True(t, ok)
}

func TestParseFieldAccessChain(t *testing.T) {
	n, err := Parse(".a.b.c")
	require.NoError(t, err)
	fa, ok := n.(*FieldAccess)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b", "c"}, fa.Fields)
	_, ok = fa.Base.(*Identity)
	require.True(t, ok)
}

func TestParsePipelinePrecedence(t *testing.T) {
	n, err := Parse(".a | .b | .c")
	require.NoError(t, err)
	pipe, ok := n.(*Pipeline)
	require.True(t, ok)
	require.Len(t, pipe.Stages, 3)
}

func TestParseSequenceInsidePipeline(t *testing.T) {
	n, err := Parse("1, 2 | .")
	require.NoError(t, err)
	pipe, ok := n.(*Pipeline)
	require.True(t, ok)
	require.Len(t, pipe.Stages, 2)
	seq, ok := pipe.Stages[0].(*Sequence)
	require.True(t, ok)
	require.Len(t, seq.Branches, 2)
}

func TestParseOperatorPrecedence(t *testing.T) {
	n, err := Parse("1 + 2 * 3")
	require.NoError(t, err)
	bin, ok := n.(*BinaryOp)
	require.True(t, ok)
	require.Equal(t, "+", bin.Operator)
	right, ok := bin.Right.(*BinaryOp)
	require.True(t, ok)
	require.Equal(t, "*", right.Operator)
}

func TestParseComparisonIsNonAssociative(t *testing.T) {
	n, err := Parse("1 < 2")
	require.NoError(t, err)
	bin, ok := n.(*BinaryOp)
	require.True(t, ok)
	require.Equal(t, "<", bin.Operator)
}

func TestParseLogicalPrecedence(t *testing.T) {
	n, err := Parse("true and false or true")
	require.NoError(t, err)
	bin, ok := n.(*BinaryOp)
	require.True(t, ok)
	require.Equal(t, "or", bin.Operator)
	left, ok := bin.Left.(*BinaryOp)
	require.True(t, ok)
	require.Equal(t, "and", left.Operator)
}

func TestParseUnary(t *testing.T) {
	n, err := Parse("-1")
	require.NoError(t, err)
	u, ok := n.(*UnaryOp)
	require.True(t, ok)
	require.Equal(t, "-", u.Operator)
}

func TestParseArrayIterationAndSlice(t *testing.T) {
	n, err := Parse(".items[]")
	require.NoError(t, err)
	_, ok := n.(*ArrayIteration)
	require.True(t, ok)

	n, err = Parse(".items[1:3]")
	require.NoError(t, err)
	sl, ok := n.(*ArraySlice)
	require.True(t, ok)
	require.NotNil(t, sl.Start)
	require.NotNil(t, sl.End)

	n, err = Parse(".items[:3]")
	require.NoError(t, err)
	sl, ok = n.(*ArraySlice)
	require.True(t, ok)
	require.Nil(t, sl.Start)
	require.NotNil(t, sl.End)
}

func TestParseFunctionCall(t *testing.T) {
	n, err := Parse("map(.x + 1)")
	require.NoError(t, err)
	fc, ok := n.(*FunctionCall)
	require.True(t, ok)
	require.Equal(t, "map", fc.Name)
	require.Len(t, fc.Args, 1)
}

func TestParseGroupByRequiresOneArg(t *testing.T) {
	_, err := Parse("group_by()")
	require.Error(t, err)
	_, err = Parse("group_by(.a; .b)")
	require.Error(t, err)
	_, err = Parse("group_by(.a)")
	require.NoError(t, err)
}

func TestParseDoubleDotIsParseError(t *testing.T) {
	_, err := Parse("..foo")
	require.Error(t, err)
}

func TestParseAssignment(t *testing.T) {
	n, err := Parse(".a.b.c += 1")
	require.NoError(t, err)
	a, ok := n.(*Assignment)
	require.True(t, ok)
	require.Equal(t, "+=", a.Operator)
}

func TestParseIfExpr(t *testing.T) {
	n, err := Parse("if . then 1 else 2 end")
	require.NoError(t, err)
	ifn, ok := n.(*If)
	require.True(t, ok)
	require.NotNil(t, ifn.Cond)
	require.NotNil(t, ifn.Then)
	require.NotNil(t, ifn.Else)
}

func TestParseTryLowersToIferror(t *testing.T) {
	n, err := Parse("try .a catch .b")
	require.NoError(t, err)
	fc, ok := n.(*FunctionCall)
	require.True(t, ok)
	require.Equal(t, "iferror", fc.Name)
	require.Len(t, fc.Args, 2)
}

func TestParseObjectConstructionAndShorthand(t *testing.T) {
	n, err := Parse("{a: .x, b}")
	require.NoError(t, err)
	obj, ok := n.(*ObjectExpr)
	require.True(t, ok)
	require.Len(t, obj.Entries, 2)
	require.False(t, obj.Entries[0].Shorthand)
	require.True(t, obj.Entries[1].Shorthand)
}

func TestParseArrayConstruction(t *testing.T) {
	n, err := Parse("[1, 2, .a]")
	require.NoError(t, err)
	arr, ok := n.(*ArrayExpr)
	require.True(t, ok)
	require.Len(t, arr.Elements, 3)
}

func TestParseVariable(t *testing.T) {
	n, err := Parse("$x")
	require.NoError(t, err)
	v, ok := n.(*Variable)
	require.True(t, ok)
	require.Equal(t, "x", v.Name)
}

func TestParseKeywordsCannotBeIdentifiers(t *testing.T) {
	_, err := Parse("if")
	require.Error(t, err)
}

func TestParseTrailingTokenIsError(t *testing.T) {
	_, err := Parse(". .")
	require.Error(t, err)
}
