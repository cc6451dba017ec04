// Package fastparser scans the bytes a response fixture emitted (status
// line, header block, body) back into a structured response without building
// an AST.
package fastparser

import (
	"bytes"
	"fmt"
	"strconv"
)

// Response is a recorded response split into its parts.
type Response struct {
	Version    string
	StatusCode int
	Reason     string
	Headers    []Header
	Body       []byte
}

// Header is a key-value pair in the order it was emitted.
type Header struct {
	Key   string
	Value string
}

// Parser scans one recorded response.
type Parser struct {
	data   []byte
	pos    int
	length int
	line   int // 1-indexed line number for error reporting
}

// NewParser creates a parser for the given recorded bytes.
func NewParser(data []byte) *Parser {
	return &Parser{
		data:   data,
		length: len(data),
		line:   1,
	}
}

// ParseResponse parses a recorded response.
//
// Unlike a wire parser, the body is not framed by Content-Length: the
// recorder holds exactly the bytes that were sent, so everything after the
// header block is body. A declared length that disagrees with the body is
// left for the caller to assert on. A chunked body is decoded when it is
// well formed and kept verbatim otherwise.
func (p *Parser) ParseResponse() (*Response, error) {
	version, statusCode, reason, err := p.parseStatusLine()
	if err != nil {
		return nil, err
	}

	headers, err := p.parseHeaders()
	if err != nil {
		return nil, err
	}

	var body []byte
	if p.pos < p.length {
		body = make([]byte, p.length-p.pos)
		copy(body, p.data[p.pos:])
		p.pos = p.length
	}
	if isChunked(headers) && body != nil {
		if decoded, ok := Dechunk(body); ok {
			body = decoded
		}
	}

	return &Response{
		Version:    version,
		StatusCode: statusCode,
		Reason:     reason,
		Headers:    headers,
		Body:       body,
	}, nil
}

// ParseResponse parses data as a recorded response.
func ParseResponse(data []byte) (*Response, error) {
	return NewParser(data).ParseResponse()
}

// parseStatusLine parses "VERSION SP STATUS SP REASON CRLF".
func (p *Parser) parseStatusLine() (version string, statusCode int, reason string, err error) {
	line, ok := p.readLine()
	if !ok {
		return "", 0, "", p.errorf("missing status line")
	}

	sp1 := bytes.IndexByte(line, ' ')
	if sp1 < 0 {
		return "", 0, "", p.errorf("malformed status line: no version separator")
	}
	version = internVersion(line[:sp1])

	rest := line[sp1+1:]
	codeBytes := rest
	if sp2 := bytes.IndexByte(rest, ' '); sp2 >= 0 {
		codeBytes = rest[:sp2]
		reason = internReason(rest[sp2+1:])
	}

	code, convErr := strconv.Atoi(string(codeBytes))
	if convErr != nil {
		return "", 0, "", p.errorf("invalid status code: %s", string(codeBytes))
	}
	return version, code, reason, nil
}

// parseHeaders parses "Key: Value" lines up to the blank line that ends the
// header block.
func (p *Parser) parseHeaders() ([]Header, error) {
	headers := make([]Header, 0, 8)

	for {
		line, ok := p.readLine()
		if !ok {
			return nil, p.errorf("header block not terminated")
		}
		if len(line) == 0 {
			return headers, nil
		}

		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			return nil, p.errorf("malformed header line (no colon): %s", string(line))
		}

		key := internHeaderName(line[:colon])
		value := string(trimOWS(line[colon+1:]))
		headers = append(headers, Header{Key: key, Value: value})
	}
}

// readLine returns the bytes up to the next CRLF and advances past it.
// ok is false when no complete line remains.
func (p *Parser) readLine() (line []byte, ok bool) {
	if p.pos >= p.length {
		return nil, false
	}
	end := bytes.Index(p.data[p.pos:], crlf)
	if end < 0 {
		return nil, false
	}
	line = p.data[p.pos : p.pos+end]
	p.pos += end + len(crlf)
	p.line++
	return line, true
}

var crlf = []byte("\r\n")

// trimOWS trims optional whitespace (SP and HTAB) from both ends of b.
func trimOWS(b []byte) []byte {
	return bytes.Trim(b, " \t")
}

// isChunked checks if headers contain Transfer-Encoding: chunked.
func isChunked(headers []Header) bool {
	for _, h := range headers {
		if eqFold(h.Key, "Transfer-Encoding") && containsFold(h.Value, "chunked") {
			return true
		}
	}
	return false
}

// Get returns the first value of key, compared case-insensitively.
func (r *Response) Get(key string) (string, bool) {
	for _, h := range r.Headers {
		if eqFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}

// eqFold is a fast ASCII case-insensitive string comparison.
func eqFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// containsFold checks if haystack contains needle (case-insensitive).
func containsFold(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if eqFold(haystack[i:i+len(needle)], needle) {
			return true
		}
	}
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("fastparser: recorded response line %d: %s", p.line, msg)
}
