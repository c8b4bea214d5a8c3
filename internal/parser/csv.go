package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/KaramelBytes/csvtally/internal/textenc"
)

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvParser) Parse(name string, content []byte) (*Table, error) {
	text, err := textenc.DecodeString(content)
	if err != nil {
		return nil, err
	}
	return ParseCSV(name, text)
}

// ParseCSV parses decoded text whose first record is the header.
func ParseCSV(name, text string) (*Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.Comma = sniffDelimiter(name)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Name: name, Err: ErrEmptyInput}
		}
		return nil, &ParseError{Name: name, Err: err}
	}
	t := &Table{Name: name, Header: header}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &ParseError{Name: name, Err: err}
		}
		if len(rec) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, &ParseError{Name: name, Line: line, Err: ErrTooManyFields}
		}
		t.Rows = append(t.Rows, newRow(header, rec))
	}
	return t, nil
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	// Default to comma; the filename is the only hint an upload carries.
	return ','
}
