package fileimport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
)

// Format is the declared container format of an uploaded file
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// IsSpreadsheet reports whether the format is a workbook rather than delimited text
func (f Format) IsSpreadsheet() bool {
	return f == FormatXLSX || f == FormatXLS
}

// FormatFromFilename derives the format from a file extension, case-insensitively
func FormatFromFilename(name string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch Format(ext) {
	case FormatCSV, FormatXLSX, FormatXLS:
		return Format(ext), nil
	}
	return "", ErrUnsupportedFormat
}

// RawRow is one data row keyed by header. A header missing from Values had no
// cell in the source row and is treated as null.
type RawRow struct {
	// Row is the 1-based index among emitted data rows
	Row int
	// Line is the 1-based source line where the row starts: the physical
	// text line for CSV and the sheet row for workbooks
	Line    int
	Values  map[string]string
	headers []string
}

// Get returns the value under header and whether the cell was present
func (r RawRow) Get(header string) (string, bool) {
	v, ok := r.Values[header]
	return v, ok
}

// MarshalJSON renders the row as an object in header order with null for absent cells
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, h := range r.headers {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v, ok := r.Values[h]
		if !ok {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Table is the parsed content of a file: header order plus data rows
type Table struct {
	Headers []string
	Rows    []RawRow
}

// Preview returns at most n leading rows
func (t *Table) Preview(n int) []RawRow {
	if n < 0 || len(t.Rows) <= n {
		return t.Rows
	}
	return t.Rows[:n]
}

// Parser converts raw file bytes into a Table
type Parser struct {
	delimiter rune
	lazy      bool
	fallback  encoding.Encoding
	maxRows   int
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*Parser)

// WithDelimiter sets the CSV field delimiter. Zero sniffs it from the header line.
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// WithLazyQuotes tolerates stray quotes in CSV fields instead of failing
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *Parser) {
		p.lazy = lazy
	}
}

// WithFallbackEncoding sets the decoder for CSV input that is not valid UTF-8.
// A nil encoding makes such input a format error.
func WithFallbackEncoding(enc encoding.Encoding) ParserOption {
	return func(p *Parser) {
		p.fallback = enc
	}
}

// WithMaxRows limits the number of data rows. Zero means unlimited.
func WithMaxRows(n int) ParserOption {
	return func(p *Parser) {
		p.maxRows = n
	}
}

// NewParser creates a parser with the given options
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		fallback: DefaultFallbackEncoding,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse decodes data in the declared format. The first row is always the header.
func (p *Parser) Parse(data []byte, format Format) (*Table, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	var (
		records [][]string
		lines   []int
		err     error
	)
	switch format {
	case FormatCSV:
		records, lines, err = p.readCSV(data)
	case FormatXLSX, FormatXLS:
		records, err = readWorkbook(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return p.buildTable(records, lines)
}

// Parse decodes data with a default parser
func Parse(data []byte, format Format) (*Table, error) {
	return NewParser().Parse(data, format)
}

// buildTable turns records into a Table. lines holds the source line of each
// record; when nil, record i sits on line i+1 as workbook rows do.
func (p *Parser) buildTable(records [][]string, lines []int) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	lineOf := func(i int) int {
		if lines != nil {
			return lines[i]
		}
		return i + 1
	}

	headers, err := normalizeHeaders(records[0])
	if err != nil {
		return nil, err
	}

	table := &Table{Headers: headers}
	for i, record := range records[1:] {
		values := make(map[string]string, len(headers))
		blank := true
		for j, h := range headers {
			if j >= len(record) {
				break
			}
			v := strings.TrimSpace(record[j])
			if v != "" {
				blank = false
			}
			values[h] = v
		}
		if blank {
			continue
		}
		if p.maxRows > 0 && len(table.Rows) >= p.maxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, p.maxRows)
		}
		table.Rows = append(table.Rows, RawRow{
			Row:     len(table.Rows) + 1,
			Line:    lineOf(i + 1),
			Values:  values,
			headers: headers,
		})
	}

	if len(table.Rows) == 0 {
		return nil, ErrEmptyInput
	}
	return table, nil
}

// normalizeHeaders trims header cells, names blank ones by position and
// suffixes duplicates so every column stays addressable
func normalizeHeaders(raw []string) ([]string, error) {
	headers := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	blank := true
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h != "" {
			blank = false
		} else {
			h = "column_" + strconv.Itoa(i+1)
		}
		name := h
		for n := 2; used[name]; n++ {
			name = h + "_" + strconv.Itoa(n)
		}
		used[name] = true
		headers[i] = name
	}
	if blank {
		return nil, ErrMissingHeader
	}
	return headers, nil
}
