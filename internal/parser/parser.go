package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Row maps header names to cell values for one data line.
type Row map[string]string

// Table is a parsed upload: the header as written plus its data rows.
type Table struct {
	Name   string
	Header []string
	Rows   []Row
}

// HasColumn reports whether name appears verbatim in the header.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// Parser turns the bytes of one upload into a Table.
type Parser interface {
	CanParse(filename string) bool
	Parse(name string, content []byte) (*Table, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ParseUpload selects a parser based on filename; anything unrecognised is
// treated as delimited text.
func ParseUpload(name string, content []byte) (*Table, error) {
	for _, p := range registry {
		if p.CanParse(name) {
			return p.Parse(name, content)
		}
	}
	return csvParser{}.Parse(name, content)
}

// ParseFile reads path from disk and parses it like an upload.
func ParseFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseUpload(filepath.Base(path), data)
}

func init() {
	Register(xlsxParser{})
	Register(csvParser{})
}

var (
	// ErrEmptyInput means there was no header line to read.
	ErrEmptyInput = errors.New("no header row")
	// ErrTooManyFields means a data row is wider than the header.
	ErrTooManyFields = errors.New("row has more fields than the header")
)

// ParseError reports a structural problem in an upload. Line is 1-based and
// zero when the problem is not tied to a line.
type ParseError struct {
	Name string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Name, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// newRow zips a record against the header. Short records are padded with
// empty cells; for duplicated header names the first column wins.
func newRow(header, rec []string) Row {
	row := make(Row, len(header))
	for i, h := range header {
		if _, dup := row[h]; dup {
			continue
		}
		if i < len(rec) {
			row[h] = rec[i]
		} else {
			row[h] = ""
		}
	}
	return row
}
