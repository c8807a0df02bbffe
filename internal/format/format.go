// Package format implements the pluggable byte<->Value collaborators of
// spec §6.2: one Format per supported file type, detected by explicit flag,
// then extension, then magic bytes, then structural sniffing, per spec
// §6.2's precedence order.
package format

import (
	"bytes"
	"path/filepath"
	"strings"

	"dsq/internal/value"
)

// Tag names a supported format.
type Tag string

const (
	CSV     Tag = "csv"
	TSV     Tag = "tsv"
	ADT     Tag = "adt"
	JSON    Tag = "json"
	JSONL   Tag = "jsonl"
	JSONC   Tag = "jsonc"
	JSON5   Tag = "json5"
	Parquet Tag = "parquet"
	Avro    Tag = "avro"
	Arrow   Tag = "arrow"
	Excel   Tag = "xlsx"
	ORC     Tag = "orc"
)

// Format is the contract every collaborator implements: Read turns bytes
// into a Value (normally an Array of Object rows, or a DataFrame for
// columnar formats), Write turns a Value back into bytes.
type Format interface {
	Tag() Tag
	Read(data []byte) (value.Value, error)
	Write(v value.Value) ([]byte, error)
}

var registry = map[Tag]Format{}

func register(f Format) { registry[f.Tag()] = f }

// Get looks up a Format by tag.
func Get(tag Tag) (Format, bool) {
	f, ok := registry[tag]
	return f, ok
}

// Detect resolves a Tag using spec §6.2's precedence: an explicit flag
// wins outright; otherwise the file extension; otherwise the content's
// magic bytes; otherwise structural sniffing of the raw bytes.
func Detect(explicit Tag, filename string, data []byte) Tag {
	if explicit != "" {
		return explicit
	}
	if tag := detectByExtension(filename); tag != "" {
		return tag
	}
	if tag := detectByMagicBytes(data); tag != "" {
		return tag
	}
	return detectByStructure(data)
}

func detectByExtension(filename string) Tag {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "csv":
		return CSV
	case "tsv":
		return TSV
	case "adt":
		return ADT
	case "json":
		return JSON
	case "jsonl", "ndjson":
		return JSONL
	case "jsonc":
		return JSONC
	case "json5":
		return JSON5
	case "parquet":
		return Parquet
	case "avro":
		return Avro
	case "arrow", "feather":
		return Arrow
	case "xlsx":
		return Excel
	case "orc":
		return ORC
	default:
		return ""
	}
}

func detectByMagicBytes(data []byte) Tag {
	switch {
	case bytes.HasPrefix(data, []byte("PAR1")):
		return Parquet
	case bytes.HasPrefix(data, []byte("Obj\x01")):
		return Avro
	case bytes.HasPrefix(data, []byte("ARROW1")):
		return Arrow
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return Excel
	case bytes.HasPrefix(data, []byte("ORC")):
		return ORC
	default:
		return ""
	}
}

// detectByStructure sniffs the bytes when neither extension nor magic bytes
// resolved the format: a leading '{'/'[' after whitespace is json (jsonl
// when "\n{" occurs more than once), a leading '/' or '#' is jsonc, a first
// line with more tabs than commas is tsv, and anything else (including
// empty input) is csv. It never returns json5.
func detectByStructure(data []byte) Tag {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case len(trimmed) == 0:
		return CSV
	case trimmed[0] == '{' || trimmed[0] == '[':
		if bytes.Count(data, []byte("\n{")) > 1 {
			return JSONL
		}
		return JSON
	case trimmed[0] == '/' || trimmed[0] == '#':
		return JSONC
	default:
		firstLine := trimmed
		if i := bytes.IndexByte(trimmed, '\n'); i >= 0 {
			firstLine = trimmed[:i]
		}
		if bytes.Count(firstLine, []byte("\t")) > bytes.Count(firstLine, []byte(",")) {
			return TSV
		}
		return CSV
	}
}

func init() {
	register(csvFormat{sep: ',', tag: CSV})
	register(csvFormat{sep: '\t', tag: TSV})
	register(csvFormat{sep: 0x1F, tag: ADT}) // unit separator, per teacher's adt convention
	register(jsonFormat{})
	register(jsonlFormat{})
	register(jsoncFormat{})
	register(json5Format{})
	register(parquetFormat{})
	register(avroFormat{})
	register(arrowFormat{})
	register(excelFormat{})
	register(orcFormat{})
}
