// Package commands implements dsq's subcommands (convert, inspect,
// validate, merge, completions, config) plus the I/O helpers shared with
// the root command's default "run filter" invocation.
package commands

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"dsq/internal/errors"
	"dsq/internal/format"
	"dsq/internal/value"
)

// ReadInput reads and decodes a single input source: "-" or "" means stdin.
// explicitFormat overrides detection when non-empty.
func ReadInput(path string, explicitFormat string) (value.Value, format.Tag, error) {
	var data []byte
	var err error
	name := path
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
		name = ""
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return value.Null(), "", errors.New(errors.KindIO, "reading %q: %v", path, err)
	}
	tag := format.Detect(format.Tag(explicitFormat), name, data)
	fm, ok := format.Get(tag)
	if !ok {
		return value.Null(), tag, errors.New(errors.KindFormatDetection, "unsupported format %q", tag)
	}
	v, err := fm.Read(data)
	if err != nil {
		return value.Null(), tag, errors.New(errors.KindFormatParse, "parsing %q as %s: %v", path, tag, err)
	}
	return v, tag, nil
}

// WriteOutput encodes v with the format named by tag and writes it to path
// ("-" or "" means stdout). When ndjson is true and v is an Array, one line
// is emitted per element instead of a single encoded document (spec §6.4).
func WriteOutput(v value.Value, tag format.Tag, path string, ndjson bool) error {
	var data []byte
	var err error

	if ndjson {
		data, err = encodeNDJSON(v, tag)
	} else {
		fm, ok := format.Get(tag)
		if !ok {
			return errors.New(errors.KindFormatDetection, "unsupported output format %q", tag)
		}
		data, err = fm.Write(v)
	}
	if err != nil {
		return errors.New(errors.KindFormatParse, "encoding as %s: %v", tag, err)
	}

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && filepath.Dir(path) != "." {
		return errors.New(errors.KindIO, "creating output directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(errors.KindIO, "writing %q: %v", path, err)
	}
	return nil
}

func encodeNDJSON(v value.Value, tag format.Tag) ([]byte, error) {
	jsonl, ok := format.Get(format.JSONL)
	if !ok {
		return nil, errors.New(errors.KindConfiguration, "jsonl codec unavailable")
	}
	if v.Kind() == value.KindArray {
		return jsonl.Write(v)
	}
	return jsonl.Write(value.Array([]value.Value{v}))
}

// DefaultOutputTag picks spec §6.4's stdout default: JSON for scalar/record
// results, and the configured tabular tag when the result is a table shape.
func DefaultOutputTag(v value.Value, tabular format.Tag) format.Tag {
	switch v.Kind() {
	case value.KindDataFrame, value.KindLazyFrame, value.KindSeries:
		return tabular
	default:
		return format.JSON
	}
}

// ResolveQueryDir implements the `query.dsq` directory convention: if path
// is a directory containing query.dsq, returns its contents as the filter
// source plus the directory's data.* files as additional inputs.
func ResolveQueryDir(path string) (filterSource string, dataFiles []string, matched bool, err error) {
	info, statErr := os.Stat(path)
	if statErr != nil || !info.IsDir() {
		return "", nil, false, nil
	}
	queryPath := filepath.Join(path, "query.dsq")
	data, readErr := os.ReadFile(queryPath)
	if readErr != nil {
		return "", nil, false, nil
	}
	entries, readDirErr := os.ReadDir(path)
	if readDirErr != nil {
		return "", nil, false, errors.New(errors.KindIO, "reading %q: %v", path, readDirErr)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "data.") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	return string(data), files, true, nil
}
