package fastparser

import (
	"bytes"
	"strconv"
)

// Dechunk decodes a chunked body: hex-size CRLF data CRLF ... 0 CRLF CRLF.
// Chunk extensions after ';' and trailers are ignored. ok is false when the
// framing is broken, in which case the caller keeps the raw bytes.
func Dechunk(data []byte) (body []byte, ok bool) {
	pos := 0
	for {
		end := bytes.Index(data[pos:], crlf)
		if end < 0 {
			return nil, false
		}
		sizeLine := data[pos : pos+end]
		pos += end + len(crlf)

		if semi := bytes.IndexByte(sizeLine, ';'); semi >= 0 {
			sizeLine = sizeLine[:semi]
		}
		size, err := strconv.ParseUint(string(bytes.TrimSpace(sizeLine)), 16, 31)
		if err != nil {
			return nil, false
		}
		if size == 0 {
			return body, true
		}

		n := int(size)
		if pos+n+len(crlf) > len(data) || !bytes.Equal(data[pos+n:pos+n+len(crlf)], crlf) {
			return nil, false
		}
		body = append(body, data[pos:pos+n]...)
		pos += n + len(crlf)
	}
}
