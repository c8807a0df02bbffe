package format

import (
	"encoding/json"

	"github.com/tailscale/hujson"

	"dsq/internal/value"
)

// jsoncFormat reads JSON-with-comments (jsonc) via tailscale/hujson, the
// only JSONC-capable library in the retrieval pack: hujson standardizes the
// input (stripping comments/trailing commas) and then the result is decoded
// the same way plain JSON is.
type jsoncFormat struct{}

func (jsoncFormat) Tag() Tag { return JSONC }

func (jsoncFormat) Read(data []byte) (value.Value, error) {
	clean, err := hujson.Standardize(data)
	if err != nil {
		return value.Null(), err
	}
	var raw interface{}
	if err := json.Unmarshal(clean, &raw); err != nil {
		return value.Null(), err
	}
	return fromJSON(raw), nil
}

func (jsoncFormat) Write(v value.Value) ([]byte, error) {
	return json.MarshalIndent(toJSON(v), "", "  ")
}
