package servlettest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"

	"github.com/shapestone/shape-httpmock/pkg/servlet"
)

func newTestResponse(t *testing.T) (*ResponseMock, *bytes.Buffer) {
	t.Helper()
	sink := new(bytes.Buffer)
	return NewResponse(sink, WithLogger(t)), sink
}

func TestResponse_DefaultStatusIs200(t *testing.T) {
	resp, sink := newTestResponse(t)

	if err := resp.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if resp.Status() != 200 {
		t.Errorf("Status() = %d, want 200", resp.Status())
	}
	want := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestResponse_StatusCanBeSet(t *testing.T) {
	resp, sink := newTestResponse(t)

	if err := resp.SetStatus(204); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if resp.Status() != 204 {
		t.Errorf("Status() = %d, want 204", resp.Status())
	}
	if err := resp.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := "HTTP/1.1 204 No Content\r\nContent-Length: 0\r\n\r\n"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestResponse_CustomStatusMessage(t *testing.T) {
	resp, sink := newTestResponse(t)

	if err := resp.SetStatusWithMessage(999, "Not the Beast"); err != nil {
		t.Fatalf("SetStatusWithMessage() error = %v", err)
	}
	if resp.Status() != 999 {
		t.Errorf("Status() = %d, want 999", resp.Status())
	}
	if err := resp.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := "HTTP/1.1 999 Not the Beast\r\nContent-Length: 0\r\n\r\n"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestResponse_UnknownStatusUsesClassName(t *testing.T) {
	resp, sink := newTestResponse(t)
	_ = resp.SetStatus(299)
	_ = resp.Close()

	if !strings.HasPrefix(sink.String(), "HTTP/1.1 299 Success\r\n") {
		t.Errorf("sink = %q, want status line %q", sink.String(), "HTTP/1.1 299 Success")
	}
}

func TestResponse_SizeIsCalculatedOnClose(t *testing.T) {
	resp, sink := newTestResponse(t)

	w, err := resp.Writer()
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	if _, err := w.WriteString("message body"); err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := "HTTP/1.1 200 OK\r\nContent-Length: 12\r\n\r\nmessage body"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestResponse_SizeIsNotCalculatedOnFlush(t *testing.T) {
	resp, sink := newTestResponse(t)

	w, _ := resp.Writer()
	_, _ = w.WriteString("message body")
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := "HTTP/1.1 200 OK\r\n\r\nmessage body"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestResponse_Headers(t *testing.T) {
	resp, sink := newTestResponse(t)

	steps := []func() error{
		func() error { return resp.SetHeader("X-Singleton", "i was first") },
		func() error { return resp.SetHeader("X-Singleton", "there can only be one") },
		func() error { return resp.AddHeader("X-List", "first") },
		func() error { return resp.AddHeader("X-List", "second") },
		func() error { return resp.SetDateHeader("X-Singleton-Date", 100000000) },
		func() error { return resp.SetDateHeader("X-Singleton-Date", 200000000) },
		func() error { return resp.AddDateHeader("X-List-Date", 300000000) },
		func() error { return resp.AddDateHeader("X-List-Date", 400000000) },
		func() error { return resp.SetIntHeader("X-Singleton-Int", 100000000) },
		func() error { return resp.SetIntHeader("X-Singleton-Int", 200000000) },
		func() error { return resp.AddIntHeader("X-List-Int", 300000000) },
		func() error { return resp.AddIntHeader("X-List-Int", 400000000) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d error = %v", i, err)
		}
	}

	w, _ := resp.Writer()
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := []string{
		"HTTP/1.1 200 OK",
		"Content-Length: 0",
		"X-List: first",
		"X-List: second",
		"X-List-Date: Sun, 4 Jan 1970 11:20:00 GMT",
		"X-List-Date: Mon, 5 Jan 1970 15:06:40 GMT",
		"X-List-Int: 300000000",
		"X-List-Int: 400000000",
		"X-Singleton: there can only be one",
		"X-Singleton-Date: Sat, 3 Jan 1970 07:33:20 GMT",
		"X-Singleton-Int: 200000000",
		"",
		"",
	}
	got := strings.Split(sink.String(), "\r\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("header lines mismatch (-want +got):\n%s", diff)
	}
}

func TestResponse_SetContentLengthIsNotOverwritten(t *testing.T) {
	tests := []struct {
		name   string
		finish func(resp *ResponseMock) error
	}{
		{"flush", func(resp *ResponseMock) error { return resp.FlushBuffer() }},
		{"close", func(resp *ResponseMock) error { return resp.Close() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, sink := newTestResponse(t)
			if err := resp.SetContentLength(123); err != nil {
				t.Fatalf("SetContentLength() error = %v", err)
			}
			w, _ := resp.Writer()
			_, _ = w.WriteString("message body")
			if err := tt.finish(resp); err != nil {
				t.Fatalf("finish error = %v", err)
			}

			want := "HTTP/1.1 200 OK\r\nContent-Length: 123\r\n\r\nmessage body"
			if got := sink.String(); got != want {
				t.Errorf("sink = %q, want %q", got, want)
			}
		})
	}
}

func TestResponse_IdentityTransferEncodingSkipsLength(t *testing.T) {
	resp, sink := newTestResponse(t)
	_ = resp.SetHeader("Transfer-Encoding", "identity")
	_ = resp.Close()

	want := "HTTP/1.1 200 OK\r\nTransfer-Encoding: identity\r\n\r\n"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestResponse_ContentTypeCanBeAdded(t *testing.T) {
	resp, sink := newTestResponse(t)
	resp.SetContentType("text/plain")
	_ = resp.Close()

	want := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nContent-Type: text/plain\r\n\r\n"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

type contentState struct {
	ContentType       string
	CharacterEncoding string
}

func stateOf(resp *ResponseMock) contentState {
	return contentState{resp.ContentType(), resp.CharacterEncoding()}
}

func TestResponse_WriterAddsISO88591WithoutLocaleOrEncoding(t *testing.T) {
	resp, sink := newTestResponse(t)

	resp.SetContentType("text/plain")
	if diff := cmp.Diff(contentState{"text/plain", "ISO-8859-1"}, stateOf(resp)); diff != "" {
		t.Errorf("before Writer (-want +got):\n%s", diff)
	}

	w, err := resp.Writer()
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	want := contentState{"text/plain; charset=ISO-8859-1", "ISO-8859-1"}
	if diff := cmp.Diff(want, stateOf(resp)); diff != "" {
		t.Errorf("after Writer (-want +got):\n%s", diff)
	}

	_ = w.Close()
	if diff := cmp.Diff(want, stateOf(resp)); diff != "" {
		t.Errorf("after Close (-want +got):\n%s", diff)
	}
	wantWire := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nContent-Type: text/plain; charset=ISO-8859-1\r\n\r\n"
	if got := sink.String(); got != wantWire {
		t.Errorf("sink = %q, want %q", got, wantWire)
	}
}

func TestResponse_WriterAddsDefaultCharsetWhenOnlyLocaleSet(t *testing.T) {
	resp, sink := newTestResponse(t)

	resp.SetContentType("text/plain")
	if err := resp.SetLocale(language.English); err != nil {
		t.Fatalf("SetLocale() error = %v", err)
	}
	if diff := cmp.Diff(contentState{"text/plain", "UTF-8"}, stateOf(resp)); diff != "" {
		t.Errorf("after SetLocale (-want +got):\n%s", diff)
	}

	w, _ := resp.Writer()
	want := contentState{"text/plain; charset=UTF-8", "UTF-8"}
	if diff := cmp.Diff(want, stateOf(resp)); diff != "" {
		t.Errorf("after Writer (-want +got):\n%s", diff)
	}

	_ = w.Close()
	wantWire := "HTTP/1.1 200 OK\r\n" +
		"Content-Language: en\r\n" +
		"Content-Length: 0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n"
	if got := sink.String(); got != wantWire {
		t.Errorf("sink = %q, want %q", got, wantWire)
	}
}

func TestResponse_OutputStreamLeavesContentTypeAlone(t *testing.T) {
	resp, sink := newTestResponse(t)

	resp.SetContentType("text/plain")
	_ = resp.SetLocale(language.English)

	out, err := resp.OutputStream()
	if err != nil {
		t.Fatalf("OutputStream() error = %v", err)
	}
	want := contentState{"text/plain", "UTF-8"}
	if diff := cmp.Diff(want, stateOf(resp)); diff != "" {
		t.Errorf("after OutputStream (-want +got):\n%s", diff)
	}

	_ = out.Close()
	if diff := cmp.Diff(want, stateOf(resp)); diff != "" {
		t.Errorf("after Close (-want +got):\n%s", diff)
	}
	wantWire := "HTTP/1.1 200 OK\r\n" +
		"Content-Language: en\r\n" +
		"Content-Length: 0\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n"
	if got := sink.String(); got != wantWire {
		t.Errorf("sink = %q, want %q", got, wantWire)
	}
}

func TestResponse_ContentTypeIsExtendedWithCharset(t *testing.T) {
	resp, sink := newTestResponse(t)

	resp.SetCharacterEncoding("UTF-8")
	if got := resp.CharacterEncoding(); got != "UTF-8" {
		t.Errorf("CharacterEncoding() = %q, want UTF-8", got)
	}

	resp.SetContentType("text/plain")
	if diff := cmp.Diff(contentState{"text/plain; charset=UTF-8", "UTF-8"}, stateOf(resp)); diff != "" {
		t.Errorf("after SetContentType (-want +got):\n%s", diff)
	}

	resp.SetCharacterEncoding("ISO-8859-15")
	want := contentState{"text/plain; charset=ISO-8859-15", "ISO-8859-15"}
	if diff := cmp.Diff(want, stateOf(resp)); diff != "" {
		t.Errorf("after SetCharacterEncoding (-want +got):\n%s", diff)
	}

	w, err := resp.Writer()
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	if diff := cmp.Diff(want, stateOf(resp)); diff != "" {
		t.Errorf("after Writer (-want +got):\n%s", diff)
	}

	resp.SetCharacterEncoding("Big5")
	if diff := cmp.Diff(want, stateOf(resp)); diff != "" {
		t.Errorf("encoding changed after Writer (-want +got):\n%s", diff)
	}

	_ = w.Close()
	wantWire := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nContent-Type: text/plain; charset=ISO-8859-15\r\n\r\n"
	if got := sink.String(); got != wantWire {
		t.Errorf("sink = %q, want %q", got, wantWire)
	}
}

func TestResponse_ContentTypeCharsetSetsEncoding(t *testing.T) {
	resp, _ := newTestResponse(t)
	resp.SetContentType("application/json; charset=UTF-16")

	want := contentState{"application/json; charset=UTF-16", "UTF-16"}
	if diff := cmp.Diff(want, stateOf(resp)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestResponse_ContentTypeIgnoredAfterCommit(t *testing.T) {
	resp, _ := newTestResponse(t)
	resp.SetContentType("text/plain")
	_ = resp.FlushBuffer()

	resp.SetContentType("text/html")
	resp.SetCharacterEncoding("UTF-8")

	want := contentState{"text/plain", "ISO-8859-1"}
	if diff := cmp.Diff(want, stateOf(resp)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestResponse_WriterEncodesText(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		text     string
		wantBody []byte
	}{
		{"latin1", "ISO-8859-1", "Grüße", []byte{'G', 'r', 0xfc, 0xdf, 'e'}},
		{"utf8", "UTF-8", "Grüße", []byte("Grüße")},
		{"unrepresentable replaced", "ISO-8859-1", "a€b", []byte("a?b")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := newTestResponse(t)
			resp.SetCharacterEncoding(tt.encoding)
			w, err := resp.Writer()
			if err != nil {
				t.Fatalf("Writer() error = %v", err)
			}
			_, _ = w.WriteString(tt.text)
			_ = w.Close()

			if diff := cmp.Diff(tt.wantBody, resp.SentBodyBytes()); diff != "" {
				t.Errorf("SentBodyBytes() mismatch (-want +got):\n%s", diff)
			}
			if got := resp.SentBody(); got != tt.text {
				t.Errorf("SentBody() = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestResponse_WriterUnknownEncoding(t *testing.T) {
	resp, _ := newTestResponse(t)
	resp.SetCharacterEncoding("no-such-charset")

	if _, err := resp.Writer(); err == nil {
		t.Error("Writer() should fail for an unknown encoding")
	}
}

func TestResponse_PrintfAndPrintln(t *testing.T) {
	resp, _ := newTestResponse(t)
	w, _ := resp.Writer()

	_, _ = w.Printf("%d items", 3)
	_, _ = w.Println()
	_, _ = w.Println("done")
	_ = w.Close()

	want := "3 items\ndone\n"
	if got := string(resp.SentBodyBytes()); got != want {
		t.Errorf("SentBodyBytes() = %q, want %q", got, want)
	}
}

func TestResponse_WriterAndStreamAreExclusive(t *testing.T) {
	t.Run("stream then writer", func(t *testing.T) {
		resp, _ := newTestResponse(t)
		first, err := resp.OutputStream()
		if err != nil {
			t.Fatalf("OutputStream() error = %v", err)
		}
		second, err := resp.OutputStream()
		if err != nil {
			t.Fatalf("second OutputStream() error = %v", err)
		}
		if first != second {
			t.Error("OutputStream() should return the same stream")
		}
		if _, err := resp.Writer(); !errors.Is(err, servlet.ErrIllegalState) {
			t.Errorf("Writer() error = %v, want ErrIllegalState", err)
		}
	})

	t.Run("writer then stream", func(t *testing.T) {
		resp, _ := newTestResponse(t)
		first, err := resp.Writer()
		if err != nil {
			t.Fatalf("Writer() error = %v", err)
		}
		second, err := resp.Writer()
		if err != nil {
			t.Fatalf("second Writer() error = %v", err)
		}
		if first != second {
			t.Error("Writer() should return the same writer")
		}
		if _, err := resp.OutputStream(); !errors.Is(err, servlet.ErrIllegalState) {
			t.Errorf("OutputStream() error = %v, want ErrIllegalState", err)
		}
	})

	t.Run("reset releases the handle", func(t *testing.T) {
		resp, _ := newTestResponse(t)
		_, _ = resp.OutputStream()
		if err := resp.Reset(); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		if _, err := resp.Writer(); err != nil {
			t.Errorf("Writer() after Reset error = %v", err)
		}
	})
}

func TestResponse_MutateAfterCommit(t *testing.T) {
	mutations := []struct {
		name string
		op   string
		call func(resp *ResponseMock) error
	}{
		{"SetStatus", "SetStatus", func(r *ResponseMock) error { return r.SetStatus(500) }},
		{"SetStatusWithMessage", "SetStatusWithMessage", func(r *ResponseMock) error { return r.SetStatusWithMessage(500, "x") }},
		{"SetHeader", "SetHeader", func(r *ResponseMock) error { return r.SetHeader("X-A", "1") }},
		{"AddHeader", "AddHeader", func(r *ResponseMock) error { return r.AddHeader("X-A", "1") }},
		{"SetDateHeader", "SetDateHeader", func(r *ResponseMock) error { return r.SetDateHeader("Date", 0) }},
		{"AddDateHeader", "AddDateHeader", func(r *ResponseMock) error { return r.AddDateHeader("Date", 0) }},
		{"SetIntHeader", "SetIntHeader", func(r *ResponseMock) error { return r.SetIntHeader("X-A", 1) }},
		{"AddIntHeader", "AddIntHeader", func(r *ResponseMock) error { return r.AddIntHeader("X-A", 1) }},
		{"AddCookie", "AddCookie", func(r *ResponseMock) error { return r.AddCookie(servlet.NewCookie("a", "b")) }},
		{"SetContentLength", "SetContentLength", func(r *ResponseMock) error { return r.SetContentLength(1) }},
		{"SetContentLengthLong", "SetContentLengthLong", func(r *ResponseMock) error { return r.SetContentLengthLong(1) }},
		{"SetLocale", "SetLocale", func(r *ResponseMock) error { return r.SetLocale(language.German) }},
		{"SetBufferSize", "SetBufferSize", func(r *ResponseMock) error { return r.SetBufferSize(1024) }},
		{"ResetBuffer", "ResetBuffer", func(r *ResponseMock) error { return r.ResetBuffer() }},
		{"Reset", "Reset", func(r *ResponseMock) error { return r.Reset() }},
		{"Commit", "Commit", func(r *ResponseMock) error { return r.Commit() }},
		{"SendError", "SetStatus", func(r *ResponseMock) error { return r.SendError(500) }},
		{"SendRedirect", "SetStatus", func(r *ResponseMock) error { return r.SendRedirect("/x") }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := newTestResponse(t)
			if err := resp.FlushBuffer(); err != nil {
				t.Fatalf("FlushBuffer() error = %v", err)
			}

			err := tt.call(resp)
			if !errors.Is(err, servlet.ErrIllegalState) {
				t.Fatalf("%s() error = %v, want ErrIllegalState", tt.name, err)
			}
			var stateErr *servlet.StateError
			if !errors.As(err, &stateErr) || stateErr.Op != tt.op {
				t.Errorf("%s() error = %#v, want *StateError with Op %q", tt.name, err, tt.op)
			}
			if resp.Status() != 200 {
				t.Errorf("Status() = %d, want 200", resp.Status())
			}
		})
	}
}

func TestResponse_CommittedAfterCloseAndFlush(t *testing.T) {
	tests := []struct {
		name   string
		finish func(resp *ResponseMock) error
	}{
		{"close", func(resp *ResponseMock) error { return resp.Close() }},
		{"flush", func(resp *ResponseMock) error { return resp.FlushBuffer() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := newTestResponse(t)
			if resp.IsCommitted() {
				t.Fatal("IsCommitted() = true before finishing")
			}
			if err := tt.finish(resp); err != nil {
				t.Fatalf("finish error = %v", err)
			}
			if !resp.IsCommitted() {
				t.Error("IsCommitted() = false after finishing")
			}
		})
	}
}

func TestResponse_BodyAcrossFlushes(t *testing.T) {
	resp, sink := newTestResponse(t)
	out, _ := resp.OutputStream()

	_, _ = out.Write([]byte("one,"))
	_ = out.Flush()
	_, _ = out.Write([]byte("two"))
	_ = resp.Close()

	want := "HTTP/1.1 200 OK\r\n\r\none,two"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
	if got := string(resp.SentBodyBytes()); got != "one,two" {
		t.Errorf("SentBodyBytes() = %q, want %q", got, "one,two")
	}
	if got := string(resp.HeaderBytes()); got != "HTTP/1.1 200 OK\r\n\r\n" {
		t.Errorf("HeaderBytes() = %q", got)
	}
}

func TestResponse_ResetBufferDropsPendingBody(t *testing.T) {
	resp, sink := newTestResponse(t)
	out, _ := resp.OutputStream()
	_, _ = out.Write([]byte("discarded"))

	if err := resp.ResetBuffer(); err != nil {
		t.Fatalf("ResetBuffer() error = %v", err)
	}
	_, _ = out.Write([]byte("kept"))
	_ = resp.Close()

	want := "HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\nkept"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestResponse_Reset(t *testing.T) {
	resp, sink := newTestResponse(t)
	_ = resp.SetStatusWithMessage(500, "Broken")
	_ = resp.SetHeader("X-A", "1")

	if err := resp.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	_ = resp.Close()

	want := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestResponse_CommittedSnapshot(t *testing.T) {
	resp, _ := newTestResponse(t)
	_ = resp.SetStatusWithMessage(201, "Made")
	_ = resp.SetHeader("X-A", "1")

	if resp.CommittedHeaders() != nil {
		t.Error("CommittedHeaders() should be nil before commit")
	}
	if err := resp.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if resp.CommittedStatus() != 201 {
		t.Errorf("CommittedStatus() = %d, want 201", resp.CommittedStatus())
	}
	if resp.CommittedStatusMessage() != "Made" {
		t.Errorf("CommittedStatusMessage() = %q, want Made", resp.CommittedStatusMessage())
	}
	want := servlet.Header{"X-A": {"1"}}
	if diff := cmp.Diff(want, resp.CommittedHeaders()); diff != "" {
		t.Errorf("CommittedHeaders() mismatch (-want +got):\n%s", diff)
	}

	snapshot := resp.CommittedHeaders()
	snapshot.Add("X-A", "2")
	if diff := cmp.Diff(want, resp.CommittedHeaders()); diff != "" {
		t.Errorf("CommittedHeaders() shares storage (-want +got):\n%s", diff)
	}
}

func TestResponse_HeaderAccessors(t *testing.T) {
	resp, _ := newTestResponse(t)
	_ = resp.AddHeader("X-List", "a")
	_ = resp.AddHeader("X-List", "b")
	_ = resp.AddCookie(&servlet.Cookie{Name: "sid", Value: "42", Path: "/", MaxAge: 60})

	if !resp.ContainsHeader("X-List") {
		t.Error("ContainsHeader(X-List) = false")
	}
	if resp.ContainsHeader("x-list") {
		t.Error("response header names should be case-sensitive")
	}
	if got := resp.Header("X-List"); got != "a" {
		t.Errorf("Header() = %q, want a", got)
	}
	if got := resp.Header("Missing"); got != "" {
		t.Errorf("Header(Missing) = %q, want empty", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, resp.Headers("X-List")); diff != "" {
		t.Errorf("Headers() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{}, resp.Headers("Missing")); diff != "" {
		t.Errorf("Headers(Missing) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Set-Cookie", "X-List"}, resp.HeaderNames()); diff != "" {
		t.Errorf("HeaderNames() mismatch (-want +got):\n%s", diff)
	}
	if got := resp.Header("Set-Cookie"); got != "sid=42; Path=/; Max-Age=60" {
		t.Errorf("Set-Cookie = %q", got)
	}
}

func TestResponse_Locale(t *testing.T) {
	resp, _ := newTestResponse(t)
	if resp.Locale().String() != servlet.DefaultLocale.String() {
		t.Errorf("Locale() = %v, want %v", resp.Locale(), servlet.DefaultLocale)
	}

	_ = resp.SetLocale(language.MustParse("de-CH"))
	if got := resp.Header("Content-Language"); got != "de" {
		t.Errorf("Content-Language = %q, want de", got)
	}
	if got := resp.Locale().String(); got != "de-CH" {
		t.Errorf("Locale() = %v, want de-CH", got)
	}
}

func TestResponse_SendError(t *testing.T) {
	resp, sink := newTestResponse(t)

	if err := resp.SendError(404); err != nil {
		t.Fatalf("SendError() error = %v", err)
	}

	want := "HTTP/1.1 404 Not Found\r\nContent-Type: text/html\r\n\r\n"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
	if !resp.IsCommitted() {
		t.Error("IsCommitted() = false after SendError")
	}
}

func TestResponse_SendErrorMessage(t *testing.T) {
	resp, sink := newTestResponse(t)

	if err := resp.SendErrorMessage(500, "<h1>boom</h1>"); err != nil {
		t.Fatalf("SendErrorMessage() error = %v", err)
	}

	want := "HTTP/1.1 500 Internal Server Error\r\n" +
		"Content-Type: text/html; charset=ISO-8859-1\r\n" +
		"\r\n" +
		"<h1>boom</h1>"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
	if got := resp.SentBody(); got != "<h1>boom</h1>" {
		t.Errorf("SentBody() = %q", got)
	}
}

func TestResponse_SendRedirect(t *testing.T) {
	resp, sink := newTestResponse(t)

	if err := resp.SendRedirect("/login"); err != nil {
		t.Fatalf("SendRedirect() error = %v", err)
	}

	want := "HTTP/1.1 302 Found\r\nLocation: /login\r\n\r\n"
	if got := sink.String(); got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestResponse_WithProtocol(t *testing.T) {
	sink := new(bytes.Buffer)
	resp := NewResponse(sink, WithProtocol("HTTP/1.0"))
	_ = resp.Close()

	if !strings.HasPrefix(sink.String(), "HTTP/1.0 200 OK\r\n") {
		t.Errorf("sink = %q, want HTTP/1.0 status line", sink.String())
	}
}

func TestResponse_NilSinkStillRecords(t *testing.T) {
	resp := NewResponse(nil)
	out, _ := resp.OutputStream()
	_, _ = out.Write([]byte("x"))
	_ = resp.Close()

	if got := string(resp.HeaderBytes()); got != "HTTP/1.1 200 OK\r\nContent-Length: 1\r\n\r\n" {
		t.Errorf("HeaderBytes() = %q", got)
	}
	if got := string(resp.SentBodyBytes()); got != "x" {
		t.Errorf("SentBodyBytes() = %q, want x", got)
	}
}

func TestResponse_EncodeURL(t *testing.T) {
	resp, _ := newTestResponse(t)
	if got := resp.EncodeURL("/a?b=c"); got != "/a?b=c" {
		t.Errorf("EncodeURL() = %q", got)
	}
	if got := resp.EncodeRedirectURL("/a"); got != "/a" {
		t.Errorf("EncodeRedirectURL() = %q", got)
	}
	if got := resp.BufferSize(); got != 1<<31-1-8 {
		t.Errorf("BufferSize() = %d", got)
	}
}

type countingSink struct {
	bytes.Buffer
	flushes int
	closes  int
}

func (s *countingSink) Flush() error {
	s.flushes++
	return nil
}

func (s *countingSink) Close() error {
	s.closes++
	return nil
}

func TestResponse_SinkLifecycle(t *testing.T) {
	sink := &countingSink{}
	resp := NewResponse(sink, WithLogger(t))
	w, _ := resp.Writer()
	_, _ = w.WriteString("body")

	if err := resp.FlushBuffer(); err != nil {
		t.Fatalf("FlushBuffer() error = %v", err)
	}
	if sink.flushes != 2 {
		t.Errorf("flushes after FlushBuffer = %d, want 2 (commit and body)", sink.flushes)
	}

	if err := resp.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := resp.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("writer Close() after response Close error = %v", err)
	}
	if sink.closes != 1 {
		t.Errorf("closes = %d, want 1", sink.closes)
	}
	if err := resp.FlushBuffer(); err != nil {
		t.Errorf("FlushBuffer() after Close error = %v", err)
	}
	if got := sink.String(); got != "HTTP/1.1 200 OK\r\n\r\nbody" {
		t.Errorf("sink = %q", got)
	}
}

func TestResponse_WriteAfterClose(t *testing.T) {
	t.Run("stream", func(t *testing.T) {
		resp, _ := newTestResponse(t)
		out, _ := resp.OutputStream()
		_ = resp.Close()

		if out.IsReady() {
			t.Error("IsReady() = true after Close")
		}
		if _, err := out.Write([]byte("late")); !errors.Is(err, servlet.ErrIllegalState) {
			t.Errorf("Write() error = %v, want ErrIllegalState", err)
		}
	})

	t.Run("writer", func(t *testing.T) {
		resp, _ := newTestResponse(t)
		w, _ := resp.Writer()
		_ = resp.Close()

		if _, err := w.WriteString("late"); !errors.Is(err, servlet.ErrIllegalState) {
			t.Errorf("WriteString() error = %v, want ErrIllegalState", err)
		}
	})
}

// flakySink fails the first failures writes and then behaves like countingSink.
type flakySink struct {
	countingSink
	failures int
}

var errSinkDown = errors.New("sink down")

func (s *flakySink) Write(p []byte) (int, error) {
	if s.failures > 0 {
		s.failures--
		return 0, errSinkDown
	}
	return s.countingSink.Write(p)
}

func TestResponse_FailedCommitLeavesResponseOpen(t *testing.T) {
	sink := &flakySink{failures: 1}
	resp := NewResponse(sink, WithLogger(t))
	resp.SetStatus(404)

	if err := resp.Commit(); !errors.Is(err, errSinkDown) {
		t.Fatalf("Commit() error = %v, want %v", err, errSinkDown)
	}
	if resp.IsCommitted() {
		t.Error("IsCommitted() = true after failed commit")
	}
	if got := resp.HeaderBytes(); len(got) != 0 {
		t.Errorf("HeaderBytes() = %q, want empty", got)
	}
	if got := resp.CommittedHeaders(); got != nil {
		t.Errorf("CommittedHeaders() = %v, want nil", got)
	}

	resp.SetStatus(410)
	if err := resp.Commit(); err != nil {
		t.Fatalf("retried Commit() error = %v", err)
	}
	if got := resp.CommittedStatus(); got != 410 {
		t.Errorf("CommittedStatus() = %d, want 410", got)
	}
	if !strings.HasPrefix(sink.String(), "HTTP/1.1 410 ") {
		t.Errorf("sink = %q, want a single 410 head", sink.String())
	}
}

func TestResponse_CloseRetriesAfterFailedCommit(t *testing.T) {
	sink := &flakySink{failures: 1}
	resp := NewResponse(sink, WithLogger(t))
	w, _ := resp.Writer()
	_, _ = w.WriteString("body")

	if err := resp.Close(); !errors.Is(err, errSinkDown) {
		t.Fatalf("Close() error = %v, want %v", err, errSinkDown)
	}
	if sink.closes != 0 {
		t.Errorf("closes after failed Close = %d, want 0", sink.closes)
	}

	if err := resp.Close(); err != nil {
		t.Fatalf("retried Close() error = %v", err)
	}
	if got := string(resp.SentBodyBytes()); got != "body" {
		t.Errorf("SentBodyBytes() = %q, want body", got)
	}
	if sink.closes != 1 {
		t.Errorf("closes = %d, want 1", sink.closes)
	}
	if !strings.HasSuffix(sink.String(), "\r\n\r\nbody") {
		t.Errorf("sink = %q, want head followed by body", sink.String())
	}
}
