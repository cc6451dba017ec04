// Package charset resolves character-encoding names and converts text between
// Go strings (UTF-8) and the bytes of a named encoding.
package charset

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Lookup returns the encoding registered under name. IANA names are tried
// first, then the WHATWG labels ("latin1", "utf8", ...).
func Lookup(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "UTF-8", "UTF8":
		return unicode.UTF8, nil
	case "ISO-8859-1", "ISO8859-1", "ISO_8859-1", "LATIN1":
		return charmap.ISO8859_1, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err == nil && enc != nil {
		return enc, nil
	}
	enc, err = htmlindex.Get(name)
	if err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("charset: unsupported encoding %q", name)
}

// Unmappable replaces runes the target encoding cannot represent.
const Unmappable = '?'

// NewEncoder returns an encoder for name that writes Unmappable for runes the
// encoding cannot represent instead of failing.
func NewEncoder(name string) (*encoding.Encoder, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return &encoding.Encoder{
		Transformer: transform.Chain(unmappable(enc), encoding.ReplaceUnsupported(enc.NewEncoder())),
	}, nil
}

// unmappable maps every rune enc cannot encode to Unmappable.
func unmappable(enc encoding.Encoding) transform.Transformer {
	if cm, ok := enc.(*charmap.Charmap); ok {
		return runes.Map(func(r rune) rune {
			if _, ok := cm.EncodeRune(r); !ok {
				return Unmappable
			}
			return r
		})
	}
	check := enc.NewEncoder()
	return runes.Map(func(r rune) rune {
		if _, err := check.String(string(r)); err != nil {
			return Unmappable
		}
		return r
	})
}

// NewWriter wraps w so that UTF-8 text written to it reaches w encoded as
// name. Close must be called to flush a trailing partial rune.
func NewWriter(w io.Writer, name string) (io.WriteCloser, error) {
	enc, err := NewEncoder(name)
	if err != nil {
		return nil, err
	}
	return transform.NewWriter(w, enc), nil
}

// NewReader wraps r so that bytes encoded as name are read back as UTF-8.
func NewReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// Encode converts s to the bytes of encoding name.
func Encode(s, name string) ([]byte, error) {
	enc, err := NewEncoder(name)
	if err != nil {
		return nil, err
	}
	return enc.Bytes([]byte(s))
}

// Decode converts b from encoding name to a UTF-8 string.
func Decode(b []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
