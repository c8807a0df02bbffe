// Package exec implements the filter executor of spec §4.8: compiling a
// filter program once (with an LRU cache keyed on source text) and then
// running it against a stream of input values under a configurable error
// mode and timeout.
package exec

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"dsq/internal/builtins"
	"dsq/internal/compiler"
	"dsq/internal/ops"
	"dsq/internal/parser"
	"dsq/internal/value"
)

// Stats reports cache and execution counters, per spec §4.8.
type Stats struct {
	CacheHits   int64
	CacheMisses int64
	OpsExecuted int64
	LastRunTime time.Duration
}

func (s Stats) HitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// Executor compiles and runs filter programs, caching compiled programs by
// source text so repeated invocations (e.g. one filter over many files, or
// an interactive REPL re-running the same expression) skip reparsing.
type Executor struct {
	mu    sync.Mutex
	cache *lru.Cache[string, ops.Operation]
	funcs map[string]ops.BuiltinFunc
	stats Stats
}

// DefaultCacheSize matches spec §4.8's default LRU capacity.
const DefaultCacheSize = 1000

// New builds an Executor with the default 1000-entry cache and the full
// builtin function registry of internal/builtins wired in.
func New() *Executor {
	return NewWithCacheSize(DefaultCacheSize)
}

func NewWithCacheSize(size int) *Executor {
	c, _ := lru.New[string, ops.Operation](size)
	return &Executor{cache: c, funcs: builtins.Registry()}
}

// ValidateFilter parses and compiles source without executing it, returning
// a compile error if the program is invalid.
func (e *Executor) ValidateFilter(source string) error {
	_, err := e.compile(source)
	return err
}

// Precompile forces source into the cache ahead of first use.
func (e *Executor) Precompile(source string) error {
	_, err := e.compile(source)
	return err
}

func (e *Executor) compile(source string) (ops.Operation, error) {
	e.mu.Lock()
	if op, ok := e.cache.Get(source); ok {
		e.stats.CacheHits++
		e.mu.Unlock()
		return op, nil
	}
	e.stats.CacheMisses++
	e.mu.Unlock()

	ast, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	op, err := compiler.Compile(ast)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}

	e.mu.Lock()
	e.cache.Add(source, op)
	e.mu.Unlock()
	return op, nil
}

// ExecuteStr compiles source (or reuses the cached program) and runs it
// once against input, returning every output Value produced.
func (e *Executor) ExecuteStr(goCtx context.Context, source string, input value.Value, mode ops.ErrorMode) ([]value.Value, error) {
	op, err := e.compile(source)
	if err != nil {
		return nil, err
	}
	return e.ExecuteCompiled(goCtx, op, input, mode)
}

// ExecuteCompiled runs an already-compiled Operation against input.
func (e *Executor) ExecuteCompiled(goCtx context.Context, op ops.Operation, input value.Value, mode ops.ErrorMode) ([]value.Value, error) {
	start := time.Now()
	ctx := ops.NewContext(goCtx, e.funcs, mode)
	outs, err := op.Apply(ctx, input)
	e.mu.Lock()
	e.stats.OpsExecuted++
	e.stats.LastRunTime = time.Since(start)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if mode == ops.ModeCollect && len(ctx.Errors) > 0 {
		return outs, &CollectedErrors{Errors: ctx.Errors}
	}
	return outs, nil
}

// ExecuteStreaming runs source against each input in turn, calling emit for
// every output Value produced from each input (in order). It stops early
// under ModeStrict on the first error.
func (e *Executor) ExecuteStreaming(goCtx context.Context, source string, inputs <-chan value.Value, mode ops.ErrorMode, emit func(value.Value)) error {
	op, err := e.compile(source)
	if err != nil {
		return err
	}
	ctx := ops.NewContext(goCtx, e.funcs, mode)
	for in := range inputs {
		if err := ctx.CheckTimeout(); err != nil {
			return err
		}
		outs, err := op.Apply(ctx, in)
		if err != nil {
			if mode == ops.ModeStrict {
				return err
			}
			if mode == ops.ModeCollect {
				ctx.Errors = append(ctx.Errors, err)
			}
			continue
		}
		for _, v := range outs {
			emit(v)
		}
	}
	if mode == ops.ModeCollect && len(ctx.Errors) > 0 {
		return &CollectedErrors{Errors: ctx.Errors}
	}
	return nil
}

// ClearCache empties the compiled-program cache.
func (e *Executor) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.Purge()
}

// CacheSize reports the current number of cached programs.
func (e *Executor) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Len()
}

// StatsSnapshot returns a copy of the executor's running counters.
func (e *Executor) StatsSnapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// CollectedErrors wraps every error accumulated under ModeCollect, matching
// spec §7's "Multiple" error-combination rule (N errors -> wrapped list,
// one error -> itself, never constructed for zero errors).
type CollectedErrors struct {
	Errors []error
}

func (e *CollectedErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred (first: %v)", len(e.Errors), e.Errors[0])
}

func (e *CollectedErrors) Unwrap() []error { return e.Errors }
