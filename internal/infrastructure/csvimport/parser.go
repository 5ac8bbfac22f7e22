package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Parser reads a delimited upload into header-keyed rows. It fails only on
// structurally unreadable input (empty file, invalid encoding, missing
// header); malformed rows are data, not errors.
type Parser struct {
	delimiter  rune
	lazyQuotes bool
	headerMap  map[string]int
	headers    []string
	currentRow int
	dataRows   int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *Parser) {
		p.lazyQuotes = lazy
	}
}

// NewParser creates a parser from a reader, validating encoding up front
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		delimiter:  ',',
		lazyQuotes: true,
		headerMap:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.bufReader = bufio.NewReader(r)

	// Strip the UTF-8 BOM some spreadsheet exports prepend
	head, err := p.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = p.bufReader.Discard(3)
	}

	if err := validateUTF8(p.bufReader); err != nil {
		return nil, err
	}

	p.reader = csv.NewReader(p.bufReader)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = p.lazyQuotes
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1 // rows with missing trailing fields are data-level problems

	return p, nil
}

// ParseBytes creates a parser from a byte slice
func ParseBytes(data []byte, opts ...ParserOption) (*Parser, error) {
	return NewParser(bytes.NewReader(data), opts...)
}

func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader reads the required header row. Comment lines starting with '#'
// (the upload template ships with instruction lines) are skipped.
func (p *Parser) ParseHeader() error {
	for {
		record, err := p.reader.Read()
		if err == io.EOF {
			return ErrMissingHeader
		}
		if err != nil {
			return fmt.Errorf("failed to read header: %w", err)
		}
		p.currentRow++

		if len(record) > 0 && strings.HasPrefix(strings.TrimSpace(record[0]), "#") {
			continue
		}

		p.headers = make([]string, len(record))
		for i, h := range record {
			header := strings.TrimSpace(h)
			p.headers[i] = header
			p.headerMap[header] = i
		}
		if len(p.headers) == 0 || (len(p.headers) == 1 && p.headers[0] == "") {
			return ErrMissingHeader
		}
		return nil
	}
}

// Headers returns the parsed header names
func (p *Parser) Headers() []string {
	return p.headers
}

// HasHeader checks if a header exists
func (p *Parser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// MissingHeaders returns the required headers not present in the file
func (p *Parser) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one parsed line with its source ordinal for error reporting
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// GetOrDefault returns the value for a column, or the default if empty
func (r *Row) GetOrDefault(header, defaultVal string) string {
	if val, ok := r.Data[header]; ok && val != "" {
		return val
	}
	return defaultVal
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next data row, skipping blank and comment lines.
// Returns io.EOF when the file is exhausted.
func (p *Parser) ReadRow() (*Row, error) {
	for {
		record, err := p.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		p.currentRow++
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
		}

		if len(record) > 0 && strings.HasPrefix(strings.TrimSpace(record[0]), "#") {
			continue
		}

		row := &Row{
			LineNumber: p.currentRow,
			Data:       make(map[string]string, len(p.headers)),
		}
		for i, header := range p.headers {
			if i < len(record) {
				row.Data[header] = strings.TrimSpace(record[i])
			} else {
				row.Data[header] = ""
			}
		}
		if row.IsEmpty() {
			continue
		}

		p.dataRows++
		return row, nil
	}
}

// RowsRead returns the number of data rows read so far, used in the
// rows-parsed-before-failure part of a whole-file error report
func (p *Parser) RowsRead() int {
	return p.dataRows
}
