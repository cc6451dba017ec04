// Package servlettest provides in-memory fixtures for the servlet contract:
// a response that records exactly what it would have sent, a request built
// with chained With* calls, and a session.
//
// A ResponseMock buffers body bytes until it is flushed or closed. The first
// flush or close commits it: the status line and header block are written to
// the sink and further status or header changes fail with
// servlet.ErrIllegalState.
//
//	sink := new(bytes.Buffer)
//	resp := servlettest.NewResponse(sink)
//	w, _ := resp.Writer()
//	w.WriteString("message body")
//	resp.Close()
//	// sink: "HTTP/1.1 200 OK\r\nContent-Length: 12\r\n\r\nmessage body"
//
// Fixtures are not safe for concurrent use.
package servlettest
