package format

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"dsq/internal/value"
)

// arrowFormat reads/writes the Arrow IPC stream format via
// apache/arrow-go/v18, grounded on the retrieval pack's
// Yacobolo-ducklake-dataplatform and leapstack-labs-leapsql examples.
type arrowFormat struct{}

func (arrowFormat) Tag() Tag { return Arrow }

func (arrowFormat) Read(data []byte) (value.Value, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return value.Null(), err
	}
	defer reader.Release()

	var out []value.Value
	for reader.Next() {
		rec := reader.Record()
		schema := rec.Schema()
		for rowIdx := 0; rowIdx < int(rec.NumRows()); rowIdx++ {
			b := value.NewObjectBuilder()
			for colIdx := 0; colIdx < int(rec.NumCols()); colIdx++ {
				name := schema.Field(colIdx).Name
				b.Set(name, arrowCellValue(rec.Column(colIdx), rowIdx))
			}
			out = append(out, b.Build())
		}
	}
	return value.Array(out), reader.Err()
}

func arrowCellValue(col arrow.Array, row int) value.Value {
	if col.IsNull(row) {
		return value.Null()
	}
	switch c := col.(type) {
	case *array.Int64:
		return value.Int(c.Value(row))
	case *array.Float64:
		return value.Float(c.Value(row))
	case *array.String:
		return value.String(c.Value(row))
	case *array.Boolean:
		return value.Bool(c.Value(row))
	default:
		return value.String(col.ValueStr(row))
	}
}

func (arrowFormat) Write(v value.Value) ([]byte, error) {
	arr := v.AsArray()
	fields := arrowColumnize(arr)
	schema := arrow.NewSchema(fields, nil)

	pool := memory.NewGoAllocator()
	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(pool))

	builders := make([]array.Builder, len(fields))
	for i, f := range fields {
		builders[i] = array.NewBuilder(pool, f.Type)
	}
	for _, row := range arr {
		for i, f := range fields {
			cell, _ := row.Get(f.Name)
			appendArrowCell(builders[i], cell)
		}
	}
	arrays := make([]arrow.Array, len(builders))
	for i, b := range builders {
		arrays[i] = b.NewArray()
	}
	rec := array.NewRecord(schema, arrays, int64(len(arr)))
	if err := writer.Write(rec); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// arrowColumnize infers one arrow.Field per distinct key across all rows,
// typed by the first non-null value seen for that key (defaulting to
// string), since the filter pipeline carries no separate columnar schema.
func arrowColumnize(rows []value.Value) []arrow.Field {
	order := []string{}
	types := map[string]arrow.DataType{}
	seen := map[string]bool{}
	for _, row := range rows {
		for _, e := range row.AsObject() {
			if !seen[e.Key] {
				seen[e.Key] = true
				order = append(order, e.Key)
			}
			if _, typed := types[e.Key]; !typed && !e.Val.IsNull() {
				types[e.Key] = arrowTypeOf(e.Val)
			}
		}
	}
	fields := make([]arrow.Field, len(order))
	for i, name := range order {
		t, ok := types[name]
		if !ok {
			t = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: name, Type: t, Nullable: true}
	}
	return fields
}

func arrowTypeOf(v value.Value) arrow.DataType {
	switch v.Kind() {
	case value.KindInt:
		return arrow.PrimitiveTypes.Int64
	case value.KindFloat:
		return arrow.PrimitiveTypes.Float64
	case value.KindBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func appendArrowCell(b array.Builder, v value.Value) {
	if v.IsNull() {
		b.AppendNull()
		return
	}
	switch bt := b.(type) {
	case *array.Int64Builder:
		bt.Append(v.AsInt())
	case *array.Float64Builder:
		bt.Append(v.AsFloat())
	case *array.BooleanBuilder:
		bt.Append(v.AsBool())
	case *array.StringBuilder:
		bt.Append(v.String())
	default:
		b.AppendNull()
	}
}
