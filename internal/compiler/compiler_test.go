package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dsq/internal/ops"
	"dsq/internal/parser"
)

func TestCompileDelLowersToDelOp(t *testing.T) {
	n := &parser.FunctionCall{
		Name: "del",
		Args: []parser.Node{&parser.FieldAccess{Fields: []string{"secret"}}},
	}

	op, err := Compile(n)
	require.NoError(t, err)

	del, ok := op.(ops.DelOp)
	require.True(t, ok)
	require.Equal(t, []ops.PathStep{{Field: "secret"}}, del.Path)
}

func TestCompileDelRejectsWrongArity(t *testing.T) {
	n := &parser.FunctionCall{
		Name: "del",
		Args: []parser.Node{
			&parser.FieldAccess{Fields: []string{"a"}},
			&parser.FieldAccess{Fields: []string{"b"}},
		},
	}

	_, err := Compile(n)
	require.Error(t, err)
}

func TestCompileJoinFromFileLowersToJoinFromFileOp(t *testing.T) {
	n := &parser.FunctionCall{
		Name: "join_from_file",
		Args: []parser.Node{
			&parser.Literal{Kind: parser.LiteralString, Str: "right.json"},
			&parser.Literal{Kind: parser.LiteralString, Str: "id"},
		},
	}

	op, err := Compile(n)
	require.NoError(t, err)

	join, ok := op.(ops.JoinFromFileOp)
	require.True(t, ok)
	require.Equal(t, []string{"id"}, join.On)
	require.Equal(t, "inner", join.JoinType)
}

func TestCompileJoinFromFileRejectsNonLiteralColumn(t *testing.T) {
	n := &parser.FunctionCall{
		Name: "join_from_file",
		Args: []parser.Node{
			&parser.Literal{Kind: parser.LiteralString, Str: "right.json"},
			&parser.Identity{},
		},
	}

	_, err := Compile(n)
	require.Error(t, err)
}

func TestCompileAssignmentRestrictsTargetToPath(t *testing.T) {
	n := &parser.Assignment{
		Operator: "|=",
		Target:   &parser.BinaryOp{Operator: "+", Left: &parser.Identity{}, Right: &parser.Identity{}},
		Value:    &parser.Literal{Kind: parser.LiteralInt, Int: 1},
	}

	_, err := Compile(n)
	require.Error(t, err)
}
