package format

import (
	"bytes"
	"encoding/json"

	"dsq/internal/value"
)

type jsonFormat struct{}

func (jsonFormat) Tag() Tag { return JSON }

func (jsonFormat) Read(data []byte) (value.Value, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return value.Null(), err
	}
	return fromJSON(raw), nil
}

func (jsonFormat) Write(v value.Value) ([]byte, error) {
	return json.MarshalIndent(toJSON(v), "", "  ")
}

type jsonlFormat struct{}

func (jsonlFormat) Tag() Tag { return JSONL }

func (jsonlFormat) Read(data []byte) (value.Value, error) {
	lines := bytes.Split(data, []byte("\n"))
	var out []value.Value
	for _, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var raw interface{}
		if err := json.Unmarshal(line, &raw); err != nil {
			return value.Null(), err
		}
		out = append(out, fromJSON(raw))
	}
	return value.Array(out), nil
}

func (jsonlFormat) Write(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	for _, row := range v.AsArray() {
		b, err := json.Marshal(toJSON(row))
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// fromJSON lifts encoding/json's decoded interface{} tree (numbers as
// float64, objects as map[string]interface{}, preserving no key order) into
// a Value, reconstructing Int where the float64 has no fractional part so
// round-tripping whole numbers doesn't introduce ".0" noise.
func fromJSON(raw interface{}) value.Value {
	switch t := raw.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(t)
	case string:
		return value.String(t)
	case float64:
		if t == float64(int64(t)) {
			return value.Int(int64(t))
		}
		return value.Float(t)
	case []interface{}:
		out := make([]value.Value, len(t))
		for i, e := range t {
			out[i] = fromJSON(e)
		}
		return value.Array(out)
	case map[string]interface{}:
		b := value.NewObjectBuilder()
		for k, v := range t {
			b.Set(k, fromJSON(v))
		}
		return b.Build()
	default:
		return value.Null()
	}
}

func toJSON(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.AsBool()
	case value.KindInt:
		return v.AsInt()
	case value.KindBigInt:
		return v.AsBigInt().String()
	case value.KindFloat:
		return v.AsFloat()
	case value.KindString:
		return v.AsString()
	case value.KindArray:
		arr := v.AsArray()
		out := make([]interface{}, len(arr))
		for i, e := range arr {
			out[i] = toJSON(e)
		}
		return out
	case value.KindObject:
		out := make(map[string]interface{})
		for _, e := range v.AsObject() {
			out[e.Key] = toJSON(e.Val)
		}
		return out
	default:
		return nil
	}
}
