// Package textenc converts between text and bytes under the encoding names
// used by stream APIs: utf8, ascii, latin1 (binary), ucs2 (utf16le), hex and
// base64.
package textenc

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/capsela/capsela-util/internal/errors"
)

// Encoding names a text encoding. The empty Encoding means "none": text is
// taken as UTF-8 when encoding and data is left as bytes when decoding.
type Encoding string

// Supported encodings.
const (
	None    Encoding = ""
	UTF8    Encoding = "utf8"
	ASCII   Encoding = "ascii"
	Latin1  Encoding = "latin1"
	UCS2    Encoding = "ucs2"
	Hex     Encoding = "hex"
	Base64  Encoding = "base64"
	Binary  Encoding = "binary"
	UTF16LE Encoding = "utf16le"
)

var aliases = map[string]Encoding{
	"utf8":     UTF8,
	"utf-8":    UTF8,
	"ascii":    ASCII,
	"latin1":   Latin1,
	"binary":   Latin1,
	"ucs2":     UCS2,
	"ucs-2":    UCS2,
	"utf16le":  UCS2,
	"utf-16le": UCS2,
	"hex":      Hex,
	"base64":   Base64,
}

// Parse resolves an encoding name, case-insensitively. The empty string
// parses to None.
func Parse(name string) (Encoding, error) {
	if name == "" {
		return None, nil
	}
	enc, ok := aliases[strings.ToLower(name)]
	if !ok {
		return None, errors.NewValidationError("unsupported encoding").
			WithField("encoding").WithValue(name).WithCause(errors.ErrUnknownEncoding)
	}
	return enc, nil
}

// Valid reports whether e names a supported encoding.
func (e Encoding) Valid() bool {
	_, err := Parse(string(e))
	return err == nil
}

func (e Encoding) canonical() (Encoding, error) {
	return Parse(string(e))
}

func charset(e Encoding) encoding.Encoding {
	switch e {
	case Latin1:
		return charmap.ISO8859_1
	case UCS2:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	}
	return nil
}

// Encode converts text to bytes.
func (e Encoding) Encode(s string) ([]byte, error) {
	enc, err := e.canonical()
	if err != nil {
		return nil, err
	}
	switch enc {
	case None, UTF8:
		return []byte(s), nil
	case ASCII:
		b := []byte(s)
		for i := range b {
			b[i] &= 0x7f
		}
		return b, nil
	case Hex:
		return hex.DecodeString(s)
	case Base64:
		return base64.StdEncoding.DecodeString(s)
	default:
		return charset(enc).NewEncoder().Bytes([]byte(s))
	}
}

// Decode converts bytes to text.
func (e Encoding) Decode(b []byte) (string, error) {
	enc, err := e.canonical()
	if err != nil {
		return "", err
	}
	switch enc {
	case None, UTF8:
		return string(b), nil
	case ASCII:
		out := make([]byte, len(b))
		for i, c := range b {
			out[i] = c & 0x7f
		}
		return string(out), nil
	case Hex:
		return hex.EncodeToString(b), nil
	case Base64:
		return base64.StdEncoding.EncodeToString(b), nil
	default:
		out, err := charset(enc).NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}
