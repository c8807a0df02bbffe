package format

import (
	"bytes"

	"github.com/linkedin/goavro/v2"

	"dsq/internal/value"
)

// avroFormat reads/writes Avro Object Container Files via
// linkedin/goavro/v2, grounded on the retrieval pack's razeghi71-dq example.
type avroFormat struct{}

func (avroFormat) Tag() Tag { return Avro }

func (avroFormat) Read(data []byte) (value.Value, error) {
	ocfReader, err := goavro.NewOCFReader(bytes.NewReader(data))
	if err != nil {
		return value.Null(), err
	}
	var out []value.Value
	for ocfReader.Scan() {
		rec, err := ocfReader.Read()
		if err != nil {
			return value.Null(), err
		}
		if m, ok := rec.(map[string]interface{}); ok {
			out = append(out, fromJSON(m))
		}
	}
	if err := ocfReader.Err(); err != nil {
		return value.Null(), err
	}
	return value.Array(out), nil
}

func (avroFormat) Write(v value.Value) ([]byte, error) {
	arr := v.AsArray()
	schema := inferAvroSchema(arr)
	var buf bytes.Buffer
	writer, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:      &buf,
		Schema: schema,
	})
	if err != nil {
		return nil, err
	}
	rows := make([]interface{}, len(arr))
	for i, row := range arr {
		rows[i] = toJSON(row)
	}
	if len(rows) > 0 {
		if err := writer.Append(rows); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// inferAvroSchema builds a minimal permissive Avro record schema (every
// field typed as a nullable union) from the first row, since the filter
// pipeline has no separate schema declaration to draw from.
func inferAvroSchema(rows []value.Value) string {
	fields := `[]`
	if len(rows) > 0 {
		first := rows[0]
		var sb []byte
		sb = append(sb, '['...)
		for i, e := range first.AsObject() {
			if i > 0 {
				sb = append(sb, ',')
			}
			sb = append(sb, []byte(`{"name":"`+e.Key+`","type":["null","string","long","double","boolean"]}`)...)
		}
		sb = append(sb, ']')
		fields = string(sb)
	}
	return `{"type":"record","name":"Row","fields":` + fields + `}`
}
