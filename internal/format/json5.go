package format

import (
	"encoding/json"
	"regexp"

	"github.com/tailscale/hujson"

	"dsq/internal/value"
)

// json5Format supports the common subset of JSON5 (comments, trailing
// commas, unquoted object keys, single-quoted strings) by normalizing to
// strict JSON before decoding. No JSON5 library appears anywhere in the
// retrieval pack, so this preprocessing step is a documented standard
// library exception (see DESIGN.md); it reuses hujson for the
// comment/trailing-comma handling it already implements for jsonc and only
// hand-rolls the two JSON5-specific rewrites hujson doesn't cover.
type json5Format struct{}

func (json5Format) Tag() Tag { return JSON5 }

var (
	unquotedKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][A-Za-z0-9_$]*)(\s*:)`)
	singleQuotedString = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'`)
)

func (json5Format) Read(data []byte) (value.Value, error) {
	normalized := unquotedKeyPattern.ReplaceAll(data, []byte(`$1"$2"$3`))
	normalized = singleQuotedString.ReplaceAllFunc(normalized, func(m []byte) []byte {
		inner := m[1 : len(m)-1]
		return append(append([]byte{'"'}, inner...), '"')
	})
	clean, err := hujson.Standardize(normalized)
	if err != nil {
		return value.Null(), err
	}
	var raw interface{}
	if err := json.Unmarshal(clean, &raw); err != nil {
		return value.Null(), err
	}
	return fromJSON(raw), nil
}

func (json5Format) Write(v value.Value) ([]byte, error) {
	return json.MarshalIndent(toJSON(v), "", "  ")
}
