package ops

import "dsq/internal/value"

// BinaryOpKind names an infix operator compiled from parser.BinaryOp.
type BinaryOpKind string

const (
	OpAdd BinaryOpKind = "+"
	OpSub BinaryOpKind = "-"
	OpMul BinaryOpKind = "*"
	OpDiv BinaryOpKind = "/"
	OpMod BinaryOpKind = "%"

	OpEq  BinaryOpKind = "=="
	OpNeq BinaryOpKind = "!="
	OpLt  BinaryOpKind = "<"
	OpLte BinaryOpKind = "<="
	OpGt  BinaryOpKind = ">"
	OpGte BinaryOpKind = ">="

	OpAnd BinaryOpKind = "and"
	OpOr  BinaryOpKind = "or"
)

// BinaryOpNode evaluates Left and Right against the same input and combines
// them per Operator, implementing the numeric promotion ladder of spec §4.4
// for arithmetic and spec §3.1's ordering/equality for comparisons.
type BinaryOpNode struct {
	Left     Operation
	Operator BinaryOpKind
	Right    Operation
}

func (o BinaryOpNode) Describe() string { return string(o.Operator) }

func (o BinaryOpNode) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	// Logical operators short-circuit and must not evaluate Right unless needed.
	if o.Operator == OpAnd || o.Operator == OpOr {
		l, err := ApplyOne(ctx, o.Left, input)
		if err != nil {
			return nil, err
		}
		if o.Operator == OpAnd && !l.Truthy() {
			return []value.Value{value.Bool(false)}, nil
		}
		if o.Operator == OpOr && l.Truthy() {
			return []value.Value{value.Bool(true)}, nil
		}
		r, err := ApplyOne(ctx, o.Right, input)
		if err != nil {
			return nil, err
		}
		return []value.Value{value.Bool(r.Truthy())}, nil
	}

	l, err := ApplyOne(ctx, o.Left, input)
	if err != nil {
		return nil, err
	}
	r, err := ApplyOne(ctx, o.Right, input)
	if err != nil {
		return nil, err
	}

	switch o.Operator {
	case OpEq:
		return []value.Value{value.Bool(value.Equal(l, r))}, nil
	case OpNeq:
		return []value.Value{value.Bool(!value.Equal(l, r))}, nil
	case OpLt:
		return []value.Value{value.Bool(value.Compare(l, r) < 0)}, nil
	case OpLte:
		return []value.Value{value.Bool(value.Compare(l, r) <= 0)}, nil
	case OpGt:
		return []value.Value{value.Bool(value.Compare(l, r) > 0)}, nil
	case OpGte:
		return []value.Value{value.Bool(value.Compare(l, r) >= 0)}, nil
	case OpAdd:
		return arith(ctx, l, r, OpAdd)
	case OpSub:
		return arith(ctx, l, r, OpSub)
	case OpMul:
		return arith(ctx, l, r, OpMul)
	case OpDiv:
		return divide(ctx, l, r)
	case OpMod:
		return modulo(ctx, l, r)
	}
	return nil, NewError("binary", "unknown operator %q", o.Operator)
}

func arith(ctx *Context, l, r value.Value, op BinaryOpKind) ([]value.Value, error) {
	if value.IsNumeric(l) && value.IsNumeric(r) {
		switch op {
		case OpAdd:
			return one(value.Add(l, r))
		case OpSub:
			return one(value.Sub(l, r))
		case OpMul:
			return one(value.Mul(l, r))
		}
	}
	switch op {
	case OpAdd:
		return addFallback(ctx, l, r)
	case OpMul:
		if l.Kind() == value.KindString && r.Kind() == value.KindInt {
			return one(value.String(repeatString(l.AsString(), int(r.AsInt()))))
		}
	}
	if ctx.Mode == ModeStrict {
		return nil, NewError("arithmetic", "cannot apply %q to %s and %s", op, l.Kind(), r.Kind())
	}
	return one(value.Null())
}

// addFallback implements "+" for String/Array/Object operands: string and
// array concatenation, and object merge (right-hand keys win).
func addFallback(ctx *Context, l, r value.Value) ([]value.Value, error) {
	switch {
	case l.Kind() == value.KindNull:
		return one(r)
	case r.Kind() == value.KindNull:
		return one(l)
	case l.Kind() == value.KindString && r.Kind() == value.KindString:
		return one(value.String(l.AsString() + r.AsString()))
	case l.Kind() == value.KindArray && r.Kind() == value.KindArray:
		out := make([]value.Value, 0, len(l.AsArray())+len(r.AsArray()))
		out = append(out, l.AsArray()...)
		out = append(out, r.AsArray()...)
		return one(value.Array(out))
	case l.Kind() == value.KindObject && r.Kind() == value.KindObject:
		b := value.NewObjectBuilder()
		for _, e := range l.AsObject() {
			b.Set(e.Key, e.Val)
		}
		for _, e := range r.AsObject() {
			b.Set(e.Key, e.Val)
		}
		return one(b.Build())
	}
	if ctx.Mode == ModeStrict {
		return nil, NewError("arithmetic", "cannot add %s and %s", l.Kind(), r.Kind())
	}
	return one(value.Null())
}

func repeatString(s string, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func divide(ctx *Context, l, r value.Value) ([]value.Value, error) {
	if !value.IsNumeric(l) || !value.IsNumeric(r) {
		if ctx.Mode == ModeStrict {
			return nil, NewError("arithmetic", "cannot divide %s by %s", l.Kind(), r.Kind())
		}
		return one(value.Null())
	}
	if l.Kind() != value.KindFloat && r.Kind() != value.KindFloat && value.IsZero(r) {
		if ctx.Mode == ModeStrict {
			return nil, NewError("arithmetic", "division by zero")
		}
		return one(value.Null())
	}
	return one(value.Float(value.DivFloat(l, r)))
}

func modulo(ctx *Context, l, r value.Value) ([]value.Value, error) {
	if l.Kind() != value.KindInt || r.Kind() != value.KindInt {
		if ctx.Mode == ModeStrict {
			return nil, NewError("arithmetic", "modulo requires integers, got %s and %s", l.Kind(), r.Kind())
		}
		return one(value.Null())
	}
	if r.AsInt() == 0 {
		if ctx.Mode == ModeStrict {
			return nil, NewError("arithmetic", "modulo by zero")
		}
		return one(value.Null())
	}
	return one(value.Int(l.AsInt() % r.AsInt()))
}

func one(v value.Value) ([]value.Value, error) { return []value.Value{v}, nil }

// UnaryOpNode compiles parser.UnaryOp ("-" and "not").
type UnaryOpNode struct {
	Operator string
	Operand  Operation
}

func (o UnaryOpNode) Describe() string { return o.Operator }

func (o UnaryOpNode) Apply(ctx *Context, input value.Value) ([]value.Value, error) {
	v, err := ApplyOne(ctx, o.Operand, input)
	if err != nil {
		return nil, err
	}
	switch o.Operator {
	case "-":
		switch v.Kind() {
		case value.KindInt:
			return one(value.Int(-v.AsInt()))
		case value.KindFloat:
			return one(value.Float(-v.AsFloat()))
		case value.KindBigInt:
			neg := v.AsBigInt()
			return one(value.BigInt(neg.Neg(neg)))
		default:
			if ctx.Mode == ModeStrict {
				return nil, NewError("unary", "cannot negate %s", v.Kind())
			}
			return one(value.Null())
		}
	case "not":
		return one(value.Bool(!v.Truthy()))
	}
	return nil, NewError("unary", "unknown operator %q", o.Operator)
}
