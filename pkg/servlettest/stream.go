package servlettest

import (
	"fmt"
	"io"

	"github.com/shapestone/shape-httpmock/pkg/servlet"
)

// outputStream writes raw body bytes into the owning response's buffer.
type outputStream struct {
	resp  *ResponseMock
	ready bool
}

var _ servlet.OutputStream = (*outputStream)(nil)

func (s *outputStream) Write(p []byte) (int, error) {
	if !s.ready {
		return 0, servlet.NewStateError("Write", "output stream closed")
	}
	return s.resp.append(p)
}

// Flush flushes the response buffer.
func (s *outputStream) Flush() error {
	if !s.ready {
		return nil
	}
	return s.resp.FlushBuffer()
}

// Close closes the response.
func (s *outputStream) Close() error {
	s.ready = false
	return s.resp.Close()
}

// IsReady reports whether the stream still accepts writes.
func (s *outputStream) IsReady() bool {
	return s.ready
}

// printWriter encodes text with the response's character encoding and
// records it, unencoded, for SentBody.
type printWriter struct {
	resp   *ResponseMock
	stream *outputStream
	enc    io.WriteCloser
	closed bool
}

var _ servlet.PrintWriter = (*printWriter)(nil)

func (w *printWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, servlet.NewStateError("Write", "writer closed")
	}
	n, err := w.enc.Write(p)
	w.resp.bodyText.Write(p[:n])
	return n, err
}

func (w *printWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *printWriter) Printf(format string, args ...interface{}) (int, error) {
	return fmt.Fprintf(w, format, args...)
}

func (w *printWriter) Println(args ...interface{}) (int, error) {
	return fmt.Fprintln(w, args...)
}

func (w *printWriter) Flush() error {
	if w.closed {
		return nil
	}
	return w.stream.Flush()
}

// Close flushes any pending encoder state and closes the response.
func (w *printWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("servlettest: close writer: %w", err)
	}
	return w.stream.Close()
}
