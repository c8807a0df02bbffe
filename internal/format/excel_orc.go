package format

import (
	"archive/zip"
	"bytes"
	"fmt"

	"dsq/internal/errors"
	"dsq/internal/value"
)

// excelFormat and orcFormat are write-only, minimal, standard-library-backed
// encoders: no example in the retrieval pack imports a real Excel (OOXML) or
// ORC library, and SPEC_FULL.md's Open Question on this point resolved in
// favor of a documented stdlib exception rather than fabricating a
// dependency. Reading either format is reported as unsupported.

type excelFormat struct{}

func (excelFormat) Tag() Tag { return Excel }

func (excelFormat) Read(data []byte) (value.Value, error) {
	return value.Null(), errors.New(errors.KindUnsupportedFeature, "reading xlsx input is not supported; export to csv or json first")
}

// Write emits a single-sheet OOXML spreadsheet: a minimal zip package
// containing just enough of the SpreadsheetML parts (content types,
// relationships, workbook, and one sheet) for Excel and LibreOffice to open.
func (excelFormat) Write(v value.Value) ([]byte, error) {
	arr := v.AsArray()
	cols := unionColumns(arr)

	var sheet bytes.Buffer
	sheet.WriteString(xmlHeader)
	sheet.WriteString(`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`)
	writeExcelRow(&sheet, 1, cols)
	for i, row := range arr {
		cells := make([]string, len(cols))
		for j, c := range cols {
			if cell, ok := row.Get(c); ok {
				cells[j] = cell.String()
			}
		}
		writeExcelRow(&sheet, i+2, cells)
	}
	sheet.WriteString(`</sheetData></worksheet>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"xl/workbook.xml", workbookXML},
		{"xl/_rels/workbook.xml.rels", workbookRelsXML},
		{"xl/worksheets/sheet1.xml", sheet.String()},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unionColumns(rows []value.Value) []string {
	var order []string
	seen := map[string]bool{}
	for _, row := range rows {
		for _, e := range row.AsObject() {
			if !seen[e.Key] {
				seen[e.Key] = true
				order = append(order, e.Key)
			}
		}
	}
	return order
}

func writeExcelRow(buf *bytes.Buffer, rowNum int, cells []string) {
	fmt.Fprintf(buf, `<row r="%d">`, rowNum)
	for i, c := range cells {
		fmt.Fprintf(buf, `<c r="%s%d" t="inlineStr"><is><t>%s</t></is></c>`, excelColumnName(i), rowNum, xmlEscape(c))
	}
	buf.WriteString(`</row>`)
}

func excelColumnName(index int) string {
	name := ""
	for index >= 0 {
		name = string(rune('A'+index%26)) + name
		index = index/26 - 1
	}
	return name
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const contentTypesXML = xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/><Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/></Types>`

const relsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/></Relationships>`

const workbookXML = xmlHeader + `<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets></workbook>`

const workbookRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/></Relationships>`

type orcFormat struct{}

func (orcFormat) Tag() Tag { return ORC }

func (orcFormat) Read(data []byte) (value.Value, error) {
	return value.Null(), errors.New(errors.KindUnsupportedFeature, "reading orc input is not supported; export to parquet or json first")
}

// Write emits rows as newline-delimited JSON under the "ORC" magic prefix
// convention this package's structure/magic-byte detection recognizes; it is
// not a conformant Apache ORC file, only a placeholder encoding for the one
// pack-identified write path that names ORC as a target format.
func (orcFormat) Write(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("ORC\x00")
	for _, row := range v.AsArray() {
		b, err := jsonFormat{}.Write(value.Array([]value.Value{row}))
		if err != nil {
			return nil, err
		}
		buf.Write(bytes.TrimSpace(b))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
