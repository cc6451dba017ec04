package support

import (
	"net/url"
	"sort"
	"strings"

	"github.com/shapestone/shape-httpmock/internal/charset"
	"github.com/shapestone/shape-httpmock/pkg/servlet"
)

// Values maps query parameter names to their values in order of appearance.
// A nil entry stands for a bare name without '=' ("a" in "a&b=1"); an empty
// string stands for "a=".
type Values map[string][]*string

// StringPtr returns a pointer to s, for building Values literals.
func StringPtr(s string) *string {
	return &s
}

// Strings flattens v into plain strings, mapping bare names to "". Names
// without values are dropped.
func (v Values) Strings() map[string][]string {
	out := make(map[string][]string, len(v))
	for name, vals := range v {
		if len(vals) == 0 {
			continue
		}
		flat := make([]string, len(vals))
		for i, val := range vals {
			if val != nil {
				flat[i] = *val
			}
		}
		out[name] = flat
	}
	return out
}

// ParseQueryString splits qs on '&' and each pair on its first '='. Names
// and values are form-decoded and then converted from encoding enc.
// An empty query string yields empty Values.
func ParseQueryString(qs, enc string) (Values, error) {
	values := make(Values)
	if qs == "" {
		return values, nil
	}
	for _, pair := range strings.Split(qs, "&") {
		rawName, rawValue, hasValue := strings.Cut(pair, "=")
		name, err := decodeComponent(rawName, enc)
		if err != nil {
			return nil, err
		}
		if !hasValue {
			values[name] = append(values[name], nil)
			continue
		}
		value, err := decodeComponent(rawValue, enc)
		if err != nil {
			return nil, err
		}
		values[name] = append(values[name], &value)
	}
	return values, nil
}

// FormatQueryString is the inverse of ParseQueryString. Names are emitted in
// sorted order. A name with no values, or a nil value, is emitted bare.
func FormatQueryString(values Values, enc string) (string, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		encName, err := encodeComponent(name, enc)
		if err != nil {
			return "", err
		}
		vals := values[name]
		if len(vals) == 0 {
			parts = append(parts, encName)
			continue
		}
		for _, v := range vals {
			if v == nil {
				parts = append(parts, encName)
				continue
			}
			encValue, err := encodeComponent(*v, enc)
			if err != nil {
				return "", err
			}
			parts = append(parts, encName+"="+encValue)
		}
	}
	return strings.Join(parts, "&"), nil
}

func decodeComponent(s, enc string) (string, error) {
	raw, err := url.QueryUnescape(s)
	if err != nil {
		return "", servlet.NewFormatError("query string", s, err)
	}
	if isUTF8(enc) {
		return raw, nil
	}
	decoded, err := charset.Decode([]byte(raw), enc)
	if err != nil {
		return "", servlet.NewFormatError("query string", s, err)
	}
	return decoded, nil
}

// formEscaper adjusts url.QueryEscape to the form-urlencoded set, which keeps
// '*' literal and escapes '~'.
var formEscaper = strings.NewReplacer("%2A", "*", "~", "%7E")

func encodeComponent(s, enc string) (string, error) {
	if isUTF8(enc) {
		return formEscaper.Replace(url.QueryEscape(s)), nil
	}
	b, err := charset.Encode(s, enc)
	if err != nil {
		return "", err
	}
	return formEscaper.Replace(url.QueryEscape(string(b))), nil
}

func isUTF8(enc string) bool {
	return enc == "" || strings.EqualFold(enc, "UTF-8") || strings.EqualFold(enc, "UTF8")
}
