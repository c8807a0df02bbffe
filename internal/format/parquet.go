package format

import (
	"bytes"

	"github.com/parquet-go/parquet-go"

	"dsq/internal/value"
)

// parquetFormat reads/writes row groups of map[string]interface{} via
// parquet-go/parquet-go's generic row API, grounded on the retrieval pack's
// razeghi71-dq example which uses the same library for the same purpose.
type parquetFormat struct{}

func (parquetFormat) Tag() Tag { return Parquet }

func (parquetFormat) Read(data []byte) (value.Value, error) {
	reader := parquet.NewGenericReader[map[string]interface{}](bytes.NewReader(data))
	defer reader.Close()
	rows := make([]map[string]interface{}, reader.NumRows())
	for i := range rows {
		rows[i] = make(map[string]interface{})
	}
	n, err := reader.Read(rows)
	if err != nil && n == 0 {
		return value.Null(), err
	}
	out := make([]value.Value, n)
	for i := 0; i < n; i++ {
		b := value.NewObjectBuilder()
		for k, v := range rows[i] {
			b.Set(k, fromJSON(v))
		}
		out[i] = b.Build()
	}
	return value.Array(out), nil
}

func (parquetFormat) Write(v value.Value) ([]byte, error) {
	arr := v.AsArray()
	rows := make([]map[string]interface{}, len(arr))
	for i, row := range arr {
		rows[i] = toJSON(row).(map[string]interface{})
	}
	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[map[string]interface{}](&buf)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
