package servlettest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/shapestone/shape-httpmock/internal/charset"
	"github.com/shapestone/shape-httpmock/pkg/servlet"
	"github.com/shapestone/shape-httpmock/pkg/support"
)

// Logger receives lifecycle traces from a fixture. *testing.T satisfies it.
type Logger interface {
	Logf(format string, args ...interface{})
}

// ResponseOption configures a ResponseMock.
type ResponseOption func(*ResponseMock)

// WithProtocol sets the protocol written in the status line.
func WithProtocol(protocol string) ResponseOption {
	return func(r *ResponseMock) {
		r.protocol = protocol
	}
}

// WithLogger traces commit, flush and close through l.
func WithLogger(l Logger) ResponseOption {
	return func(r *ResponseMock) {
		r.logger = l
	}
}

// sinkFlusher is implemented by sinks that buffer, such as *bufio.Writer.
type sinkFlusher interface {
	Flush() error
}

// ResponseMock is a servlet.Response that writes to an io.Writer sink and
// records everything it sent.
type ResponseMock struct {
	sink     io.Writer
	protocol string
	logger   Logger

	status        int
	statusMessage string
	headers       servlet.Header
	encoding      string
	locale        language.Tag
	localeSet     bool

	buffer bytes.Buffer
	stream *outputStream
	writer *printWriter

	committed bool
	closed    bool

	committedStatus        int
	committedStatusMessage string
	committedHeaders       servlet.Header

	headerRecorder bytes.Buffer
	bodyRecorder   bytes.Buffer
	bodyText       strings.Builder
}

var _ servlet.Response = (*ResponseMock)(nil)

// NewResponse returns an open response writing to sink. A nil sink discards
// output; the recorders still capture it.
func NewResponse(sink io.Writer, opts ...ResponseOption) *ResponseMock {
	if sink == nil {
		sink = io.Discard
	}
	r := &ResponseMock{
		sink:     sink,
		protocol: servlet.DefaultProtocol,
		status:   servlet.StatusOK,
		headers:  servlet.Header{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ResponseMock) logf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Logf("servlettest: "+format, args...)
	}
}

// checkOpen fails with a state error once the response is committed.
func (r *ResponseMock) checkOpen(op string) error {
	if r.committed {
		return servlet.NewStateError(op, "response already committed")
	}
	return nil
}

// Status returns the current status code.
func (r *ResponseMock) Status() int {
	return r.status
}

// SetStatus sets the status code. It keeps a previously set status message.
func (r *ResponseMock) SetStatus(code int) error {
	if err := r.checkOpen("SetStatus"); err != nil {
		return err
	}
	r.status = code
	return nil
}

// SetStatusWithMessage sets the status code and the reason phrase written in
// the status line.
func (r *ResponseMock) SetStatusWithMessage(code int, message string) error {
	if err := r.checkOpen("SetStatusWithMessage"); err != nil {
		return err
	}
	r.status = code
	r.statusMessage = message
	return nil
}

func (r *ResponseMock) ContainsHeader(name string) bool {
	return r.headers.Has(name)
}

// Header returns the first value of name, or "".
func (r *ResponseMock) Header(name string) string {
	return r.headers.Value(name)
}

// Headers returns a copy of the values of name.
func (r *ResponseMock) Headers(name string) []string {
	return append([]string{}, r.headers.Values(name)...)
}

func (r *ResponseMock) HeaderNames() []string {
	return r.headers.Names()
}

func (r *ResponseMock) setHeader(op, name, value string) error {
	if err := r.checkOpen(op); err != nil {
		return err
	}
	r.headers.Set(name, value)
	return nil
}

func (r *ResponseMock) addHeader(op, name, value string) error {
	if err := r.checkOpen(op); err != nil {
		return err
	}
	r.headers.Add(name, value)
	return nil
}

func (r *ResponseMock) SetHeader(name, value string) error {
	return r.setHeader("SetHeader", name, value)
}

func (r *ResponseMock) AddHeader(name, value string) error {
	return r.addHeader("AddHeader", name, value)
}

// SetDateHeader sets name to the RFC 1123 form of epochMillis.
func (r *ResponseMock) SetDateHeader(name string, epochMillis int64) error {
	return r.setHeader("SetDateHeader", name, support.FormatDate(epochMillis))
}

// AddDateHeader adds the RFC 1123 form of epochMillis to name.
func (r *ResponseMock) AddDateHeader(name string, epochMillis int64) error {
	return r.addHeader("AddDateHeader", name, support.FormatDate(epochMillis))
}

func (r *ResponseMock) SetIntHeader(name string, value int) error {
	return r.setHeader("SetIntHeader", name, strconv.Itoa(value))
}

func (r *ResponseMock) AddIntHeader(name string, value int) error {
	return r.addHeader("AddIntHeader", name, strconv.Itoa(value))
}

// AddCookie adds a Set-Cookie line for cookie.
func (r *ResponseMock) AddCookie(cookie *servlet.Cookie) error {
	if cookie == nil {
		return errors.New("servlettest: AddCookie: nil cookie")
	}
	return r.addHeader("AddCookie", "Set-Cookie", support.FormatCookie(cookie))
}

func (r *ResponseMock) SetContentLength(length int) error {
	return r.setHeader("SetContentLength", "Content-Length", strconv.Itoa(length))
}

func (r *ResponseMock) SetContentLengthLong(length int64) error {
	return r.setHeader("SetContentLengthLong", "Content-Length", strconv.FormatInt(length, 10))
}

// ContentType returns the Content-Type header, including any charset.
func (r *ResponseMock) ContentType() string {
	return r.headers.Value("Content-Type")
}

// SetContentType sets the Content-Type header. A "; charset=" suffix also
// sets the character encoding; without one the current explicit encoding,
// if any, is appended. It does nothing once the response is committed.
func (r *ResponseMock) SetContentType(contentType string) {
	if r.committed {
		return
	}
	r.headers.Set("Content-Type", contentType)
	if _, cs, ok := strings.Cut(contentType, "; charset="); ok {
		r.SetCharacterEncoding(cs)
		return
	}
	r.SetCharacterEncoding(r.encoding)
}

// CharacterEncoding returns the explicit encoding if one was set, else
// servlet.DefaultCharset if a locale was set, else ISO-8859-1.
func (r *ResponseMock) CharacterEncoding() string {
	switch {
	case r.encoding != "":
		return r.encoding
	case r.localeSet:
		return servlet.DefaultCharset
	}
	return servlet.ISO88591
}

// SetCharacterEncoding sets the explicit encoding and rewrites the charset
// of an existing Content-Type. An empty charset removes it. It does nothing
// once the response is committed or a writer has been obtained.
func (r *ResponseMock) SetCharacterEncoding(cs string) {
	if r.committed || r.writer != nil {
		return
	}
	if ct, ok := r.headers.Get("Content-Type"); ok {
		base, _, _ := strings.Cut(ct, "; charset=")
		if cs == "" {
			r.headers.Set("Content-Type", base)
		} else {
			r.headers.Set("Content-Type", base+"; charset="+cs)
		}
	}
	r.encoding = cs
}

// Locale returns the locale set on the response, or servlet.DefaultLocale.
func (r *ResponseMock) Locale() language.Tag {
	if r.localeSet {
		return r.locale
	}
	return servlet.DefaultLocale
}

// SetLocale sets the locale and the Content-Language header to its base
// language.
func (r *ResponseMock) SetLocale(tag language.Tag) error {
	if err := r.checkOpen("SetLocale"); err != nil {
		return err
	}
	base, _ := tag.Base()
	r.locale = tag
	r.localeSet = true
	r.headers.Set("Content-Language", base.String())
	return nil
}

// OutputStream returns the byte stream of the body. Asking again returns the
// same stream; asking after Writer fails.
func (r *ResponseMock) OutputStream() (servlet.OutputStream, error) {
	if r.writer != nil {
		return nil, servlet.NewStateError("OutputStream", "writer already obtained")
	}
	if r.stream == nil {
		r.stream = &outputStream{resp: r, ready: true}
	}
	return r.stream, nil
}

// Writer returns the text writer of the body. The first call fixes the
// character encoding and adds it to the Content-Type. Asking again returns
// the same writer; asking after OutputStream fails.
func (r *ResponseMock) Writer() (servlet.PrintWriter, error) {
	if r.writer != nil {
		return r.writer, nil
	}
	if r.stream != nil {
		return nil, servlet.NewStateError("Writer", "output stream already obtained")
	}

	r.SetCharacterEncoding(r.CharacterEncoding())
	stream := &outputStream{resp: r, ready: true}
	enc, err := charset.NewWriter(stream, r.CharacterEncoding())
	if err != nil {
		return nil, fmt.Errorf("servlettest: Writer: %w", err)
	}
	r.stream = stream
	r.writer = &printWriter{resp: r, stream: stream, enc: enc}
	return r.writer, nil
}

// append adds p to the body buffer. Both body handles write through here.
func (r *ResponseMock) append(p []byte) (int, error) {
	return r.buffer.Write(p)
}

// BufferSize reports a buffer that never fills.
func (r *ResponseMock) BufferSize() int {
	return math.MaxInt32 - 8
}

// SetBufferSize is accepted and ignored while the response is open.
func (r *ResponseMock) SetBufferSize(size int) error {
	return r.checkOpen("SetBufferSize")
}

// FlushBuffer commits the response if needed, then sends the buffered body.
// It never adds a Content-Length. After Close it does nothing.
func (r *ResponseMock) FlushBuffer() error {
	if r.closed {
		return nil
	}
	if !r.committed {
		if err := r.Commit(); err != nil {
			return err
		}
	}
	r.logf("flush %d body bytes", r.buffer.Len())
	if err := r.transfer(); err != nil {
		return err
	}
	return r.flushSink()
}

// ResetBuffer discards the buffered body.
func (r *ResponseMock) ResetBuffer() error {
	if err := r.checkOpen("ResetBuffer"); err != nil {
		return err
	}
	r.buffer.Reset()
	return nil
}

// Reset restores status 200, drops all headers and the buffered body, and
// releases the writer or stream so either may be obtained again.
func (r *ResponseMock) Reset() error {
	if err := r.checkOpen("Reset"); err != nil {
		return err
	}
	r.status = servlet.StatusOK
	r.statusMessage = ""
	r.headers = servlet.Header{}
	r.buffer.Reset()
	r.stream = nil
	r.writer = nil
	return nil
}

func (r *ResponseMock) IsCommitted() bool {
	return r.committed
}

// Commit writes the status line and headers to the sink and freezes them.
// Committing twice is a state error.
func (r *ResponseMock) Commit() error {
	if r.committed {
		return servlet.NewStateError("Commit", "response already committed")
	}
	reason := r.statusMessage
	if reason == "" {
		reason = servlet.StatusText(r.status)
	}
	head := appendHead(nil, r.protocol, r.status, reason, r.headers)
	if _, err := r.sink.Write(head); err != nil {
		return fmt.Errorf("servlettest: commit: %w", err)
	}

	r.headerRecorder.Write(head)
	r.committedStatus = r.status
	r.committedStatusMessage = r.statusMessage
	r.committedHeaders = r.headers.Clone()
	r.committed = true
	r.logf("commit %d %s with %d header(s)", r.status, reason, len(r.headers.Names()))
	return r.flushSink()
}

// Close finishes the response. An uncommitted response gets a Content-Length
// for the buffered body, unless it already has one or uses identity transfer
// encoding, and is committed. The body is sent and the sink closed if it is
// an io.Closer. Closing again does nothing.
func (r *ResponseMock) Close() error {
	if r.closed {
		return nil
	}
	if r.writer != nil && !r.writer.closed {
		return r.writer.Close()
	}
	if r.stream != nil && r.stream.ready {
		return r.stream.Close()
	}
	if !r.committed {
		_, hasLength := r.headers.Get("Content-Length")
		if !hasLength && r.headers.Value("Transfer-Encoding") != "identity" {
			r.headers.Set("Content-Length", strconv.Itoa(r.buffer.Len()))
		}
		// A failed commit leaves the response open so Close can be retried.
		if err := r.Commit(); err != nil {
			return err
		}
	}
	r.closed = true
	r.logf("close with %d body bytes", r.buffer.Len())
	if err := r.transfer(); err != nil {
		return err
	}
	if c, ok := r.sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("servlettest: close: %w", err)
		}
	}
	return nil
}

// transfer moves the buffered body to the sink and the body recorder.
func (r *ResponseMock) transfer() error {
	body := r.buffer.Bytes()
	r.bodyRecorder.Write(body)
	_, err := r.sink.Write(body)
	r.buffer.Reset()
	if err != nil {
		return fmt.Errorf("servlettest: send body: %w", err)
	}
	return nil
}

func (r *ResponseMock) flushSink() error {
	if f, ok := r.sink.(sinkFlusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("servlettest: flush: %w", err)
		}
	}
	return nil
}

// SendError sets the status and a text/html content type, then flushes.
func (r *ResponseMock) SendError(code int) error {
	if err := r.SetStatus(code); err != nil {
		return err
	}
	r.SetContentType("text/html")
	return r.FlushBuffer()
}

// SendErrorMessage is SendError with message written through the writer.
func (r *ResponseMock) SendErrorMessage(code int, message string) error {
	if err := r.SetStatus(code); err != nil {
		return err
	}
	r.SetContentType("text/html")
	w, err := r.Writer()
	if err != nil {
		return err
	}
	if _, err := w.WriteString(message); err != nil {
		return err
	}
	return w.Flush()
}

// SendRedirect sets status 302 and the Location header, then flushes.
func (r *ResponseMock) SendRedirect(location string) error {
	if err := r.SetStatus(servlet.StatusFound); err != nil {
		return err
	}
	if err := r.SetHeader("Location", location); err != nil {
		return err
	}
	return r.FlushBuffer()
}

// EncodeURL returns url unchanged; the fixture never rewrites session ids
// into URLs.
func (r *ResponseMock) EncodeURL(url string) string {
	return url
}

func (r *ResponseMock) EncodeRedirectURL(url string) string {
	return url
}

// CommittedStatus returns the status frozen at commit, or 0 before commit.
func (r *ResponseMock) CommittedStatus() int {
	return r.committedStatus
}

// CommittedStatusMessage returns the status message frozen at commit.
func (r *ResponseMock) CommittedStatusMessage() string {
	return r.committedStatusMessage
}

// CommittedHeaders returns a copy of the headers frozen at commit, or nil
// before commit.
func (r *ResponseMock) CommittedHeaders() servlet.Header {
	return r.committedHeaders.Clone()
}

// HeaderBytes returns the status line and header block that were sent.
func (r *ResponseMock) HeaderBytes() []byte {
	return append([]byte(nil), r.headerRecorder.Bytes()...)
}

// SentBodyBytes returns every body byte sent so far, across flushes.
func (r *ResponseMock) SentBodyBytes() []byte {
	return append([]byte(nil), r.bodyRecorder.Bytes()...)
}

// SentBody returns the text written through the writer, before encoding.
func (r *ResponseMock) SentBody() string {
	return r.bodyText.String()
}
