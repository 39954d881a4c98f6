package fileimport

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DefaultFallbackEncoding is used for CSV files that are not valid UTF-8
var DefaultFallbackEncoding encoding.Encoding = charmap.Windows1254

// EncodingByName resolves a WHATWG encoding label such as "windows-1254" or "iso-8859-9"
func EncodingByName(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultFallbackEncoding, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// decodeText returns data as UTF-8. A byte order mark selects UTF-8 or UTF-16;
// without one, valid UTF-8 passes through and anything else is decoded with fallback.
func decodeText(data []byte, fallback encoding.Encoding) ([]byte, error) {
	if hasBOM(data) {
		out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
		if err != nil {
			return nil, formatError(err)
		}
		return out, nil
	}
	if utf8.Valid(data) {
		return data, nil
	}
	if fallback == nil {
		return nil, fmt.Errorf("%w: invalid file encoding", ErrFormat)
	}
	out, _, err := transform.Bytes(fallback.NewDecoder(), data)
	if err != nil {
		return nil, formatError(err)
	}
	return out, nil
}

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF8) ||
		bytes.HasPrefix(data, bomUTF16LE) ||
		bytes.HasPrefix(data, bomUTF16BE)
}
