// Package value implements the universal runtime value every stage of the
// filter pipeline speaks: parser literals compile to it, operations consume
// and produce it, and the format collaborators convert to and from it.
package value

import (
	"fmt"
	"math/big"

	"dsq/internal/dataframe"
)

// Kind tags which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindBigInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindSeries
	KindDataFrame
	KindLazyFrame
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindBigInt:
		return "bigint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindSeries:
		return "series"
	case KindDataFrame:
		return "dataframe"
	case KindLazyFrame:
		return "lazyframe"
	default:
		return "unknown"
	}
}

// Entry is one key/value pair of an Object, kept in insertion order.
type Entry struct {
	Key string
	Val Value
}

// Value is the tagged sum described in spec §3.1. It is always passed by
// value and is logically immutable: every operation that "changes" a Value
// produces a new one.
type Value struct {
	kind    Kind
	boolV   bool
	intV    int64
	bigV    *big.Int
	floatV  float64
	strV    string
	arrV    []Value
	objV    []Entry
	seriesV *dataframe.Series
	dfV     *dataframe.DataFrame
	lazyV   *dataframe.LazyFrame
}

func Null() Value                  { return Value{kind: KindNull} }
func Bool(b bool) Value            { return Value{kind: KindBool, boolV: b} }
func Int(i int64) Value            { return Value{kind: KindInt, intV: i} }
func Float(f float64) Value        { return Value{kind: KindFloat, floatV: f} }
func String(s string) Value        { return Value{kind: KindString, strV: s} }
func Array(items []Value) Value    { return Value{kind: KindArray, arrV: items} }
func Series(s *dataframe.Series) Value     { return Value{kind: KindSeries, seriesV: s} }
func DataFrame(df *dataframe.DataFrame) Value { return Value{kind: KindDataFrame, dfV: df} }
func LazyFrame(lf *dataframe.LazyFrame) Value { return Value{kind: KindLazyFrame, lazyV: lf} }

// BigInt constructs a BigInt value. The argument is cloned so the caller's
// big.Int remains independently mutable.
func BigInt(b *big.Int) Value {
	return Value{kind: KindBigInt, bigV: new(big.Int).Set(b)}
}

// Object constructs an Object from entries in the given order. Keys are
// expected to be unique; a later duplicate shadows an earlier one on
// lookup but both remain present on iteration (callers should de-duplicate
// upstream, as ObjectBuilder does).
func Object(entries []Entry) Value {
	return Value{kind: KindObject, objV: entries}
}

// NewObjectBuilder returns an empty, order-preserving object under
// construction.
type ObjectBuilder struct {
	entries []Entry
	index   map[string]int
}

func NewObjectBuilder() *ObjectBuilder {
	return &ObjectBuilder{index: make(map[string]int)}
}

func (b *ObjectBuilder) Set(key string, v Value) *ObjectBuilder {
	if i, ok := b.index[key]; ok {
		b.entries[i].Val = v
		return b
	}
	b.index[key] = len(b.entries)
	b.entries = append(b.entries, Entry{Key: key, Val: v})
	return b
}

func (b *ObjectBuilder) Build() Value {
	return Object(b.entries)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() bool { return v.boolV }

func (v Value) AsInt() int64 { return v.intV }

func (v Value) AsBigInt() *big.Int {
	if v.bigV == nil {
		return new(big.Int)
	}
	return v.bigV
}

func (v Value) AsFloat() float64 { return v.floatV }

func (v Value) AsString() string { return v.strV }

func (v Value) AsArray() []Value { return v.arrV }

func (v Value) AsObject() []Entry { return v.objV }

func (v Value) AsSeries() *dataframe.Series { return v.seriesV }

func (v Value) AsDataFrame() *dataframe.DataFrame { return v.dfV }

func (v Value) AsLazyFrame() *dataframe.LazyFrame { return v.lazyV }

// Get looks up an Object field by name; ok is false if v is not an Object
// or the field is absent.
func (v Value) Get(field string) (Value, bool) {
	if v.kind != KindObject {
		return Null(), false
	}
	for i := len(v.objV) - 1; i >= 0; i-- {
		if v.objV[i].Key == field {
			return v.objV[i].Val, true
		}
	}
	return Null(), false
}

// Truthy implements spec §3.1: Null, false, empty string, empty array are
// falsy; everything else (including empty Object, 0, and tabular values) is
// truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.boolV
	case KindString:
		return v.strV != ""
	case KindArray:
		return len(v.arrV) > 0
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.boolV {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.intV)
	case KindBigInt:
		return v.AsBigInt().String()
	case KindFloat:
		return fmt.Sprintf("%g", v.floatV)
	case KindString:
		return v.strV
	case KindArray:
		return fmt.Sprintf("array[%d]", len(v.arrV))
	case KindObject:
		return fmt.Sprintf("object{%d}", len(v.objV))
	case KindSeries:
		return fmt.Sprintf("series(%s)", v.seriesV.Name)
	case KindDataFrame:
		return fmt.Sprintf("dataframe[%dx%d]", v.dfV.NRows, v.dfV.NCols)
	case KindLazyFrame:
		return "lazyframe(pending)"
	default:
		return "<unknown>"
	}
}
