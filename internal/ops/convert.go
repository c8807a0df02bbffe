package ops

import "dsq/internal/value"

// FromGo lifts a raw Go value (as stored in a dataframe.Series/DataFrame
// cell) into a value.Value, the boundary crossed every time a columnar
// operation feeds data into the tree-walking Operation execution model.
func FromGo(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null()
	case value.Value:
		return t
	case bool:
		return value.Bool(t)
	case string:
		return value.String(t)
	case int:
		return value.Int(int64(t))
	case int64:
		return value.Int(t)
	case int32:
		return value.Int(int64(t))
	case float64:
		return value.Float(t)
	case float32:
		return value.Float(float64(t))
	case []interface{}:
		out := make([]value.Value, len(t))
		for i, e := range t {
			out[i] = FromGo(e)
		}
		return value.Array(out)
	case map[string]interface{}:
		return FromRecord(t)
	default:
		return value.Null()
	}
}

// FromRecord lifts a map[string]interface{} row (the Array-of-Object /
// dataframe.DataFrame.ToRecords shape) into an Object Value.
func FromRecord(rec map[string]interface{}) value.Value {
	b := value.NewObjectBuilder()
	for k, v := range rec {
		b.Set(k, FromGo(v))
	}
	return b.Build()
}

// ToGo lowers a value.Value back to a plain Go value, for feeding rows back
// into dataframe.FromRecords or into format writers.
func ToGo(v value.Value) interface{} {
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
			out[i] = ToGo(e)
		}
		return out
	case value.KindObject:
		out := make(map[string]interface{})
		for _, e := range v.AsObject() {
			out[e.Key] = ToGo(e.Val)
		}
		return out
	default:
		return nil
	}
}

// ToRecord lowers an Object Value to a map[string]interface{} row.
func ToRecord(v value.Value) map[string]interface{} {
	out := make(map[string]interface{})
	for _, e := range v.AsObject() {
		out[e.Key] = ToGo(e.Val)
	}
	return out
}
