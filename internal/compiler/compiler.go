// Package compiler lowers a filter AST (internal/parser) into an
// internal/ops.Operation tree, per spec §4.2. Each AST node maps to one
// Operation constructor; Pipeline and Sequence nodes flatten into their
// ops.PipelineOp/ops.SequenceOp counterparts so a top-level filter compiles
// to one ordered operation program, while nested constructs (if/then/else
// branches, function-call arguments, object/array element expressions)
// compile to their own sub-programs, exactly as spec §4.2 describes.
package compiler

import (
	"math/big"

	"dsq/internal/ops"
	"dsq/internal/parser"
	"dsq/internal/value"
)

// CompileError wraps a failure to lower a specific AST node, analogous to
// spec §7's filter-compile error kind.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string { return e.Message }

// Compile lowers a parsed filter AST into a single root Operation. The
// Visitor interface returns a bare interface{} with no error channel, so
// visit methods that hit an unrecoverable node (a bad assignment target, an
// invalid numeric literal, a bare undefined identifier) panic a
// *CompileError; Compile is the single place that recovers it back into a
// normal error return.
func Compile(node parser.Node) (op ops.Operation, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()
	c := &compiler{}
	return node.Accept(c).(ops.Operation), nil
}

type compiler struct{}

func (c *compiler) VisitIdentity(n *parser.Identity) interface{} {
	return ops.Operation(ops.IdentityOp{})
}

func (c *compiler) VisitFieldAccess(n *parser.FieldAccess) interface{} {
	var base ops.Operation
	if n.Base != nil {
		if _, isIdentity := n.Base.(*parser.Identity); !isIdentity {
			base = mustCompile(c, n.Base)
		}
	}
	return ops.Operation(ops.FieldAccessOp{Base: base, Fields: n.Fields})
}

func (c *compiler) VisitArrayAccess(n *parser.ArrayAccess) interface{} {
	arr := mustCompile(c, n.Array)
	idx := mustCompile(c, n.Index)
	return ops.Operation(ops.ArrayAccessOp{Array: arr, Index: idx})
}

func (c *compiler) VisitArraySlice(n *parser.ArraySlice) interface{} {
	arr := mustCompile(c, n.Array)
	var start, end ops.Operation
	if n.Start != nil {
		start = mustCompile(c, n.Start)
	}
	if n.End != nil {
		end = mustCompile(c, n.End)
	}
	return ops.Operation(ops.ArraySliceOp{Array: arr, Start: start, End: end})
}

func (c *compiler) VisitArrayIteration(n *parser.ArrayIteration) interface{} {
	inner := mustCompile(c, n.Inner)
	return ops.Operation(ops.ArrayIterationOp{Inner: inner})
}

func (c *compiler) VisitFunctionCall(n *parser.FunctionCall) interface{} {
	switch n.Name {
	case "del":
		if len(n.Args) != 1 {
			panic(&CompileError{Message: "del() takes exactly one path argument"})
		}
		path, err := compilePath(n.Args[0])
		if err != nil {
			panic(&CompileError{Message: err.Error()})
		}
		return ops.Operation(ops.DelOp{Path: path})
	case "join_from_file":
		if len(n.Args) < 2 {
			panic(&CompileError{Message: "join_from_file(path, on, ...) needs a file path and at least one join column"})
		}
		pathOp := mustCompile(c, n.Args[0])
		on := make([]string, 0, len(n.Args)-1)
		joinType := "inner"
		for _, a := range n.Args[1:] {
			lit, ok := a.(*parser.Literal)
			if !ok || lit.Kind != parser.LiteralString {
				panic(&CompileError{Message: "join_from_file()'s join columns must be string literals"})
			}
			on = append(on, lit.Str)
		}
		return ops.Operation(ops.JoinFromFileOp{Path: pathOp, On: on, JoinType: joinType})
	}

	args := make([]ops.Operation, len(n.Args))
	for i, a := range n.Args {
		args[i] = mustCompile(c, a)
	}
	return ops.Operation(ops.CallOp{Name: n.Name, Args: args})
}

func (c *compiler) VisitBinaryOp(n *parser.BinaryOp) interface{} {
	left := mustCompile(c, n.Left)
	right := mustCompile(c, n.Right)
	return ops.Operation(ops.BinaryOpNode{Left: left, Operator: ops.BinaryOpKind(n.Operator), Right: right})
}

func (c *compiler) VisitUnaryOp(n *parser.UnaryOp) interface{} {
	operand := mustCompile(c, n.Operand)
	return ops.Operation(ops.UnaryOpNode{Operator: n.Operator, Operand: operand})
}

func (c *compiler) VisitAssignment(n *parser.Assignment) interface{} {
	path, err := compilePath(n.Target)
	if err != nil {
		panic(err)
	}
	rhs := mustCompile(c, n.Value)
	kind := ops.AssignPipe
	if n.Operator == "+=" {
		kind = ops.AssignUpdate
	}
	return ops.Operation(ops.AssignmentOp{Operator: kind, Path: path, Value: rhs})
}

// compilePath restricts an Assignment's Target to a FieldAccess/ArrayAccess
// chain rooted at Identity, per spec §4.9's restricted-lvalue rule.
func compilePath(n parser.Node) ([]ops.PathStep, error) {
	switch t := n.(type) {
	case *parser.Identity:
		return nil, nil
	case *parser.FieldAccess:
		base, err := compilePath(baseOrIdentity(t.Base))
		if err != nil {
			return nil, err
		}
		for _, f := range t.Fields {
			base = append(base, ops.PathStep{Field: f})
		}
		return base, nil
	case *parser.ArrayAccess:
		base, err := compilePath(t.Array)
		if err != nil {
			return nil, err
		}
		idx, err := Compile(t.Index)
		if err != nil {
			return nil, err
		}
		return append(base, ops.PathStep{Index: idx}), nil
	default:
		return nil, &CompileError{Message: "assignment target must be a field or index path"}
	}
}

func baseOrIdentity(n parser.Node) parser.Node {
	if n == nil {
		return &parser.Identity{}
	}
	return n
}

func (c *compiler) VisitObject(n *parser.ObjectExpr) interface{} {
	entries := make([]ops.ObjectEntryOp, len(n.Entries))
	for i, e := range n.Entries {
		var keyOp, valOp ops.Operation
		if e.Shorthand {
			name := e.Key.(*parser.Literal).Str
			keyOp = ops.LiteralOp{Val: value.String(name)}
			valOp = ops.FieldAccessOp{Fields: []string{name}}
		} else {
			keyOp = mustCompile(c, e.Key)
			valOp = mustCompile(c, e.Value)
		}
		entries[i] = ops.ObjectEntryOp{Key: keyOp, Value: valOp}
	}
	return ops.Operation(ops.ObjectOp{Entries: entries})
}

func (c *compiler) VisitArray(n *parser.ArrayExpr) interface{} {
	elems := make([]ops.Operation, len(n.Elements))
	for i, e := range n.Elements {
		elems[i] = mustCompile(c, e)
	}
	return ops.Operation(ops.ArrayOp{Elements: elems})
}

func (c *compiler) VisitLiteral(n *parser.Literal) interface{} {
	switch n.Kind {
	case parser.LiteralNull:
		return ops.Operation(ops.LiteralOp{Val: value.Null()})
	case parser.LiteralBool:
		return ops.Operation(ops.LiteralOp{Val: value.Bool(n.Bool)})
	case parser.LiteralInt:
		return ops.Operation(ops.LiteralOp{Val: value.Int(n.Int)})
	case parser.LiteralBigInt:
		b, ok := new(big.Int).SetString(n.BigInt, 10)
		if !ok {
			panic(&CompileError{Message: "invalid integer literal " + n.BigInt})
		}
		return ops.Operation(ops.LiteralOp{Val: value.BigInt(b)})
	case parser.LiteralFloat:
		return ops.Operation(ops.LiteralOp{Val: value.Float(n.Float)})
	case parser.LiteralString:
		return ops.Operation(ops.LiteralOp{Val: value.String(n.Str)})
	default:
		panic(&CompileError{Message: "unknown literal kind"})
	}
}

func (c *compiler) VisitIdentifier(n *parser.Identifier) interface{} {
	panic(&CompileError{Message: "undefined identifier " + n.Name})
}

func (c *compiler) VisitVariable(n *parser.Variable) interface{} {
	return ops.Operation(ops.VariableOp{Name: n.Name})
}

func (c *compiler) VisitParen(n *parser.Paren) interface{} {
	return mustCompile(c, n.Inner)
}

func (c *compiler) VisitPipeline(n *parser.Pipeline) interface{} {
	stages := make([]ops.Operation, len(n.Stages))
	for i, s := range n.Stages {
		stages[i] = mustCompile(c, s)
	}
	return ops.Operation(ops.PipelineOp{Stages: stages})
}

func (c *compiler) VisitIf(n *parser.If) interface{} {
	cond := mustCompile(c, n.Cond)
	then := mustCompile(c, n.Then)
	var elseOp ops.Operation
	if n.Else != nil {
		elseOp = mustCompile(c, n.Else)
	}
	return ops.Operation(ops.IfOp{Cond: cond, Then: then, Else: elseOp})
}

func (c *compiler) VisitSequence(n *parser.Sequence) interface{} {
	branches := make([]ops.Operation, len(n.Branches))
	for i, b := range n.Branches {
		branches[i] = mustCompile(c, b)
	}
	return ops.Operation(ops.SequenceOp{Branches: branches})
}

// mustCompile recovers CompileError panics raised by nested Accept calls
// (the Visitor interface offers no error return) and re-panics everything
// else; Compile's top-level recover converts the panic back into an error.
func mustCompile(c *compiler, n parser.Node) ops.Operation {
	op, err := Compile(n)
	if err != nil {
		panic(err)
	}
	return op
}

