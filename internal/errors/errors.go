// Package errors implements the error kind taxonomy of spec §7: every
// failure surfaced to a CLI user carries a Kind, a message, and (where
// available) source location, so format/filter/IO/config failures can be
// told apart and reported consistently.
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a DataError per spec §7.
type Kind string

const (
	KindIO                  Kind = "IOError"
	KindFormatDetection     Kind = "FormatDetectionError"
	KindFormatParse         Kind = "FormatParseError"
	KindSchemaMismatch      Kind = "SchemaMismatchError"
	KindUnsupportedFeature  Kind = "UnsupportedFeatureError"
	KindInvalidOption       Kind = "InvalidOptionError"
	KindFilterParse         Kind = "FilterParseError"
	KindFilterCompile       Kind = "FilterCompileError"
	KindFilterRuntime       Kind = "FilterRuntimeError"
	KindUndefined           Kind = "UndefinedError"
	KindTypeMismatch        Kind = "TypeMismatchError"
	KindArgumentCount       Kind = "ArgumentCountError"
	KindConversion          Kind = "ConversionError"
	KindOperation           Kind = "OperationError"
	KindConfiguration       Kind = "ConfigurationError"
	KindMultiple            Kind = "MultipleErrors"
)

// SourceLocation points at a position in filter source or an input file.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// StackFrame is one frame of a filter call stack, kept for builtins that
// invoke other builtins (e.g. `map`/`select` calling back into the
// executor).
type StackFrame struct {
	Function string
	File     string
	Line     int
	Column   int
}

// DataError is this module's single error type: every Kind from spec §7
// carries the same shape (message, optional location, optional stack,
// optional source line for display), mirroring the teacher's SentraError.
type DataError struct {
	Kind      Kind
	Message   string
	Location  SourceLocation
	CallStack []StackFrame
	Source    string
}

func (e *DataError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", e.Kind, e.Message))
	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf(" (at %s:%d:%d)", e.Location.File, e.Location.Line, e.Location.Column))
	}
	if e.Source != "" {
		sb.WriteString(fmt.Sprintf("\n  %d | %s", e.Location.Line, e.Source))
		if e.Location.Column > 0 {
			sb.WriteString("\n  " + strings.Repeat(" ", len(fmt.Sprintf("%d | ", e.Location.Line))+e.Location.Column-1) + "^")
		}
	}
	for _, frame := range e.CallStack {
		if frame.Function != "" {
			sb.WriteString(fmt.Sprintf("\n  at %s (%s:%d:%d)", frame.Function, frame.File, frame.Line, frame.Column))
		} else {
			sb.WriteString(fmt.Sprintf("\n  at %s:%d:%d", frame.File, frame.Line, frame.Column))
		}
	}
	return sb.String()
}

func New(kind Kind, format string, args ...interface{}) *DataError {
	return &DataError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewAt(kind Kind, file string, line, column int, format string, args ...interface{}) *DataError {
	return &DataError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Location: SourceLocation{
			File:   file,
			Line:   line,
			Column: column,
		},
	}
}

func (e *DataError) WithSource(source string) *DataError {
	e.Source = source
	return e
}

func (e *DataError) WithStack(stack []StackFrame) *DataError {
	e.CallStack = stack
	return e
}

func (e *DataError) AddStackFrame(function, file string, line, column int) *DataError {
	e.CallStack = append(e.CallStack, StackFrame{Function: function, File: file, Line: line, Column: column})
	return e
}

// Multi combines N errors per spec §7's combination rule: zero errors
// combine to nil, one error is returned unwrapped, and N>1 errors combine
// to a single KindMultiple DataError listing each in order.
func Multi(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d errors occurred:", len(errs)))
		for _, e := range errs {
			sb.WriteString("\n  - " + e.Error())
		}
		return &DataError{Kind: KindMultiple, Message: sb.String()}
	}
}
