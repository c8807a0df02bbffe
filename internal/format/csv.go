package format

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"dsq/internal/value"
)

// csvFormat implements csv/tsv/adt: all three are delimiter-separated text,
// differing only in their field separator rune, matching the teacher's own
// CSV reader (internal/dataframe.ReadCSV) generalized to an arbitrary
// separator instead of being hardcoded to comma.
type csvFormat struct {
	sep rune
	tag Tag
}

func (f csvFormat) Tag() Tag { return f.tag }

func (f csvFormat) Read(data []byte) (value.Value, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = f.sep
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return value.Null(), err
	}
	if len(records) == 0 {
		return value.Array(nil), nil
	}
	header := records[0]
	rows := make([]value.Value, 0, len(records)-1)
	for _, rec := range records[1:] {
		b := value.NewObjectBuilder()
		for i, col := range header {
			if i >= len(rec) {
				b.Set(col, value.Null())
				continue
			}
			b.Set(col, inferCell(rec[i]))
		}
		rows = append(rows, b.Build())
	}
	return value.Array(rows), nil
}

func (f csvFormat) Write(v value.Value) ([]byte, error) {
	arr := v.AsArray()
	var header []string
	seen := make(map[string]bool)
	for _, row := range arr {
		for _, e := range row.AsObject() {
			if !seen[e.Key] {
				seen[e.Key] = true
				header = append(header, e.Key)
			}
		}
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = f.sep
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range arr {
		rec := make([]string, len(header))
		for i, col := range header {
			if cell, ok := row.Get(col); ok {
				rec[i] = cell.String()
			}
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// inferCell types one CSV cell: an empty cell is null, otherwise try int,
// then float, then bool, falling back to string.
func inferCell(s string) value.Value {
	if s == "" {
		return value.Null()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return value.Float(f)
	}
	if b, err := strconv.ParseBool(strings.ToLower(s)); err == nil {
		return value.Bool(b)
	}
	return value.String(s)
}
