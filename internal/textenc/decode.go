// Package textenc turns uploaded bytes into text, probing UTF-8 first and
// falling back to cp932 (the Windows flavour of Shift-JIS) that spreadsheet
// exports on Japanese systems tend to use.
package textenc

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names, in probe order.
const (
	UTF8  = "utf-8"
	CP932 = "cp932"
)

// ErrUndecodable is wrapped by every DecodeError.
var ErrUndecodable = errors.New("input is neither utf-8 nor cp932")

// DecodeError reports that none of the probed encodings could decode the input.
type DecodeError struct {
	Tried []string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode (tried %s): %v", strings.Join(e.Tried, ", "), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode returns the text of b and the encoding it was decoded with.
// A leading UTF-8 byte order mark is dropped.
func Decode(b []byte) (string, string, error) {
	if utf8.Valid(b) {
		out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), b)
		if err == nil {
			return string(out), UTF8, nil
		}
	}
	s, err := decodeCP932(b)
	if err != nil {
		return "", "", &DecodeError{Tried: []string{UTF8, CP932}, Err: fmt.Errorf("%w: %v", ErrUndecodable, err)}
	}
	return s, CP932, nil
}

// DecodeString is Decode without the detected encoding.
func DecodeString(b []byte) (string, error) {
	s, _, err := Decode(b)
	return s, err
}

// decodeCP932 fails on bytes the codec cannot map. The x/text decoder
// substitutes U+FFFD for those instead of erroring, so the output is checked.
func decodeCP932(b []byte) (string, error) {
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), b)
	if err != nil {
		return "", err
	}
	if i := strings.IndexRune(string(out), utf8.RuneError); i >= 0 {
		return "", fmt.Errorf("invalid cp932 sequence near decoded offset %d", i)
	}
	return string(out), nil
}
