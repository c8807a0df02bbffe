// Package ops implements the operation contract and families of spec §4.3:
// every compiled filter program is a tree of Operation values, each taking
// an input Value and a Context and producing an output Value (or an
// operation error handled per the active error mode).
package ops

import (
	"context"
	"fmt"

	"dsq/internal/value"
)

// ErrorMode controls what happens when an Operation fails for one input.
type ErrorMode int

const (
	// ModeStrict aborts the whole execution on the first operation error.
	ModeStrict ErrorMode = iota
	// ModeIgnore drops the failing input and continues.
	ModeIgnore
	// ModeCollect records the error and continues, surfacing all errors at
	// the end of execution.
	ModeCollect
)

// BuiltinFunc is the shape of a registered builtin function: it receives its
// own unevaluated argument Operations so that higher-order builtins like
// map/select/sort_by can apply them per-element against the current
// Context.
type BuiltinFunc func(ctx *Context, input value.Value, args []Operation) (value.Value, error)

// Context carries the mutable execution state threaded through every
// Operation.Apply call: bound variables, the builtin function table, the
// active error mode, and the surrounding Go context (for timeout/cancel
// checks between operations, per spec §4.8).
type Context struct {
	Go    context.Context
	Vars  map[string]value.Value
	Funcs map[string]BuiltinFunc
	Mode  ErrorMode
	Debug bool

	// Errors accumulates operation errors under ModeCollect.
	Errors []error
}

// NewContext builds an execution context bound to the given Go context and
// builtin function table; Vars starts empty.
func NewContext(goCtx context.Context, funcs map[string]BuiltinFunc, mode ErrorMode) *Context {
	return &Context{
		Go:    goCtx,
		Vars:  make(map[string]value.Value),
		Funcs: funcs,
		Mode:  mode,
	}
}

// WithVar returns a shallow copy of ctx with name bound to v, so that
// nested scopes (e.g. "as $x" bindings, function-call parameters) don't
// leak bindings back out to the caller.
func (c *Context) WithVar(name string, v value.Value) *Context {
	vars := make(map[string]value.Value, len(c.Vars)+1)
	for k, val := range c.Vars {
		vars[k] = val
	}
	vars[name] = v
	return &Context{Go: c.Go, Vars: vars, Funcs: c.Funcs, Mode: c.Mode, Debug: c.Debug}
}

// CheckTimeout reports a deadline-exceeded error between operation steps,
// per spec §4.8's "timeout checks between operations".
func (c *Context) CheckTimeout() error {
	if c.Go == nil {
		return nil
	}
	select {
	case <-c.Go.Done():
		return c.Go.Err()
	default:
		return nil
	}
}

// OperationError wraps a failure raised by a specific Operation kind,
// matching spec §7's generic Operation error kind.
type OperationError struct {
	Op      string
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("Operation failed (%s): %s", e.Op, e.Message)
}

func NewError(op, format string, args ...interface{}) *OperationError {
	return &OperationError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// Operation is the contract of spec §4.3: apply transforms a single input
// Value into zero or more output Values (non-deterministic arity is why
// Apply returns a slice — ArrayIteration, Sequence, and builtins like
// `range` each fan a single input out to many outputs).
type Operation interface {
	Apply(ctx *Context, input value.Value) ([]value.Value, error)
	// Describe returns a short human-readable label, used by --debug tracing
	// and by error messages that name the failing stage.
	Describe() string
}

// ApplyOne runs op against a single input where the caller knows (or
// requires) exactly one output, collapsing a multi-output result into its
// first element; used by contexts that are inherently single-valued, e.g.
// an index expression's own index argument.
func ApplyOne(ctx *Context, op Operation, input value.Value) (value.Value, error) {
	outs, err := op.Apply(ctx, input)
	if err != nil {
		return value.Null(), err
	}
	if len(outs) == 0 {
		return value.Null(), nil
	}
	return outs[0], nil
}
