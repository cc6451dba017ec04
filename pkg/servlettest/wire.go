package servlettest

import (
	"strconv"

	"github.com/shapestone/shape-httpmock/pkg/servlet"
)

// appendCRLF appends \r\n to buf.
func appendCRLF(buf []byte) []byte {
	return append(buf, '\r', '\n')
}

// appendStatusLine appends "PROTOCOL STATUS REASON\r\n" to buf.
func appendStatusLine(buf []byte, protocol string, status int, reason string) []byte {
	buf = append(buf, protocol...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(status), 10)
	buf = append(buf, ' ')
	buf = append(buf, reason...)
	return appendCRLF(buf)
}

// appendHeaders appends one "Name: Value\r\n" line per value. Names are
// emitted in sorted order, values in the order they were added.
func appendHeaders(buf []byte, h servlet.Header) []byte {
	for _, name := range h.Names() {
		for _, value := range h[name] {
			buf = append(buf, name...)
			buf = append(buf, ':', ' ')
			buf = append(buf, value...)
			buf = appendCRLF(buf)
		}
	}
	return buf
}

// appendHead appends the complete head of a response: status line, headers
// and the blank line that ends them.
func appendHead(buf []byte, protocol string, status int, reason string, h servlet.Header) []byte {
	buf = appendStatusLine(buf, protocol, status, reason)
	buf = appendHeaders(buf, h)
	return appendCRLF(buf)
}
