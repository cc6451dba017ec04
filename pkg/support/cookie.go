package support

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shapestone/shape-httpmock/internal/tokenizer"
	"github.com/shapestone/shape-httpmock/pkg/servlet"
)

// now is the reference time for converting Expires to Max-Age.
var now = time.Now

// ParseCookie parses a single Cookie or Set-Cookie line such as
// "sid=abc; Path=/; Max-Age=60; HttpOnly".
//
// Expires is converted to a Max-Age relative to the current time, and
// Discard forces Max-Age to -1. Unknown attributes are ignored. Attribute
// names are matched case-insensitively.
func ParseCookie(line string) (*servlet.Cookie, error) {
	records, err := tokenizer.Records(line)
	if err != nil {
		return nil, servlet.NewFormatError("cookie", line, err)
	}
	if len(records) == 0 {
		return nil, servlet.NewFormatError("cookie", line, nil)
	}

	name, value, _ := tokenizer.SplitRecord(records[0])
	if name == "" {
		return nil, servlet.NewFormatError("cookie", line, nil)
	}
	cookie := servlet.NewCookie(name, value)

	for _, record := range records[1:] {
		attr, val, _ := tokenizer.SplitRecord(record)
		switch strings.ToLower(attr) {
		case "domain":
			cookie.Domain = val
		case "path":
			cookie.Path = val
		case "comment":
			cookie.Comment = val
		case "version":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, servlet.NewFormatError("cookie version", val, err)
			}
			cookie.Version = n
		case "httponly":
			cookie.HTTPOnly = true
		case "secure":
			cookie.Secure = true
		case "max-age":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, servlet.NewFormatError("cookie max-age", val, err)
			}
			cookie.MaxAge = n
		case "expires":
			ms, err := ParseDate(val)
			if err != nil {
				return nil, err
			}
			delta := time.UnixMilli(ms).Sub(now())
			cookie.MaxAge = int(math.Floor(delta.Seconds()))
		case "discard":
			cookie.MaxAge = -1
		}
	}
	return cookie, nil
}

// FormatCookie formats c as a Set-Cookie value. Attributes at their default
// are omitted: Max-Age and Version only appear when positive.
func FormatCookie(c *servlet.Cookie) string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('=')
	sb.WriteString(c.Value)
	if c.Domain != "" {
		sb.WriteString("; Domain=")
		sb.WriteString(c.Domain)
	}
	if c.Path != "" {
		sb.WriteString("; Path=")
		sb.WriteString(c.Path)
	}
	if c.MaxAge > 0 {
		sb.WriteString("; Max-Age=")
		sb.WriteString(strconv.Itoa(c.MaxAge))
	}
	if c.Comment != "" {
		sb.WriteString("; Comment=")
		sb.WriteString(c.Comment)
	}
	if c.Version > 0 {
		sb.WriteString("; Version=")
		sb.WriteString(strconv.Itoa(c.Version))
	}
	if c.Secure {
		sb.WriteString("; Secure")
	}
	if c.HTTPOnly {
		sb.WriteString("; HttpOnly")
	}
	return sb.String()
}
