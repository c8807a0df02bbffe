// Package builtins implements the built-in function library of spec §4.5:
// each function dispatches across the four value shapes (LazyFrame,
// DataFrame, Array-of-Object, Series) where the built-in's semantics make
// sense for more than one shape, collecting to a DataFrame first when given
// a LazyFrame per spec §9.
package builtins

import "dsq/internal/ops"

// Registry returns the full builtin function table wired into every
// executor, keyed by the name filter programs call them with.
func Registry() map[string]ops.BuiltinFunc {
	r := make(map[string]ops.BuiltinFunc)
	registerCollection(r)
	registerString(r)
	registerTime(r)
	registerDataframe(r)
	registerMath(r)
	registerControl(r)
	return r
}
