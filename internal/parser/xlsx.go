package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Parse reads the first sheet; its first row is the header and cells are
// taken as displayed.
func (xlsxParser) Parse(name string, content []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("open xlsx: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Name: name, Err: ErrEmptyInput}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &ParseError{Name: name, Err: ErrEmptyInput}
	}

	header := rows[0]
	t := &Table{Name: name, Header: header}
	for i, rec := range rows[1:] {
		if isBlank(rec) {
			continue
		}
		if len(rec) > len(header) {
			// GetRows trims trailing empty cells, so extra width is real data.
			return nil, &ParseError{Name: name, Line: i + 2, Err: ErrTooManyFields}
		}
		t.Rows = append(t.Rows, newRow(header, rec))
	}
	return t, nil
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if c != "" {
			return false
		}
	}
	return true
}
