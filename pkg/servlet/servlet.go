// Package servlet describes the servlet-style HTTP contract that the fixtures
// in servlettest implement.
//
// The contract is split into three interfaces, Response, Request and
// Session, mirroring the triad a request handler receives. Operations that
// only make sense inside a running container (multipart parts, async
// dispatch, protocol upgrade) are part of the contract but may fail with
// ErrNotSupported.
//
// # Errors
//
// Lifecycle violations are reported as *StateError and match ErrIllegalState
// with errors.Is. Malformed header, cookie or query values are reported as
// *FormatError.
package servlet

import (
	"io"

	"golang.org/x/text/language"
)

const (
	// DefaultProtocol is written in the status line unless configured otherwise.
	DefaultProtocol = "HTTP/1.1"

	// ISO88591 is the response encoding when neither an encoding nor a
	// locale has been set.
	ISO88591 = "ISO-8859-1"

	// DefaultCharset is the platform encoding used once a locale is set
	// without an explicit encoding.
	DefaultCharset = "UTF-8"
)

// DefaultLocale is reported when nothing more specific is known.
var DefaultLocale = language.English

// DispatcherType tells how a request reached its handler.
type DispatcherType int

const (
	DispatchRequest DispatcherType = iota
	DispatchForward
	DispatchInclude
	DispatchAsync
	DispatchError
)

func (d DispatcherType) String() string {
	switch d {
	case DispatchRequest:
		return "REQUEST"
	case DispatchForward:
		return "FORWARD"
	case DispatchInclude:
		return "INCLUDE"
	case DispatchAsync:
		return "ASYNC"
	case DispatchError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Principal identifies an authenticated user.
type Principal interface {
	Name() string
}

// UserPrincipal is a Principal that is just a name.
type UserPrincipal string

// Name returns the user name.
func (u UserPrincipal) Name() string { return string(u) }

// Cookie is a single HTTP cookie.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Comment  string
	Version  int
	MaxAge   int // seconds; negative means "until the browser exits"
	Secure   bool
	HTTPOnly bool
}

// NewCookie returns a cookie with the contract defaults (MaxAge -1).
func NewCookie(name, value string) *Cookie {
	return &Cookie{Name: name, Value: value, MaxAge: -1}
}

// OutputStream is the raw byte channel of a response body.
type OutputStream interface {
	io.WriteCloser
	Flush() error
	IsReady() bool
}

// PrintWriter is the text channel of a response body. Text is encoded with
// the response's character encoding.
type PrintWriter interface {
	io.WriteCloser
	io.StringWriter
	Printf(format string, args ...interface{}) (int, error)
	Println(args ...interface{}) (int, error)
	Flush() error
}

// Response is the servlet response contract.
type Response interface {
	Status() int
	SetStatus(code int) error
	SetStatusWithMessage(code int, message string) error

	ContainsHeader(name string) bool
	Header(name string) string
	Headers(name string) []string
	HeaderNames() []string
	SetHeader(name, value string) error
	AddHeader(name, value string) error
	SetDateHeader(name string, epochMillis int64) error
	AddDateHeader(name string, epochMillis int64) error
	SetIntHeader(name string, value int) error
	AddIntHeader(name string, value int) error
	AddCookie(cookie *Cookie) error

	SetContentLength(length int) error
	SetContentLengthLong(length int64) error
	ContentType() string
	SetContentType(contentType string)
	CharacterEncoding() string
	SetCharacterEncoding(charset string)
	Locale() language.Tag
	SetLocale(tag language.Tag) error

	OutputStream() (OutputStream, error)
	Writer() (PrintWriter, error)
	BufferSize() int
	SetBufferSize(size int) error
	FlushBuffer() error
	ResetBuffer() error
	Reset() error
	IsCommitted() bool

	SendError(code int) error
	SendErrorMessage(code int, message string) error
	SendRedirect(location string) error

	EncodeURL(url string) string
	EncodeRedirectURL(url string) string
}

// Session is the servlet session contract.
type Session interface {
	ID() string
	CreationTime() int64
	LastAccessedTime() int64
	MaxInactiveInterval() int
	SetMaxInactiveInterval(seconds int)
	Attribute(name string) interface{}
	SetAttribute(name string, value interface{})
	RemoveAttribute(name string)
	AttributeNames() []string
	Invalidate()
	IsNew() bool
	ServletContext() (ServletContext, error)
}

// Request is the servlet request contract.
type Request interface {
	Header(name string) string
	Headers(name string) []string
	HeaderNames() []string
	IntHeader(name string) (int, error)
	DateHeader(name string) (int64, error)
	Cookies() ([]*Cookie, error)
	Locale() language.Tag
	Locales() []language.Tag

	Protocol() string
	Scheme() string
	Method() string
	PathInfo() string
	PathTranslated() string
	ContextPath() string
	ServletPath() string
	QueryString() string
	RequestURI() string
	RequestURL() string

	RemotePort() int
	RemoteAddr() string
	RemoteHost() string
	LocalPort() int
	LocalName() string
	LocalAddr() string
	ServerName() string
	ServerPort() int
	IsSecure() bool

	AuthType() string
	RemoteUser() string
	UserPrincipal() Principal
	IsUserInRole(role string) bool
	Authenticate(resp Response) (bool, error)
	Login(username, password string) error
	Logout() error

	Session(create bool) Session
	ChangeSessionID() string
	RequestedSessionID() string
	IsRequestedSessionIDValid() bool
	IsRequestedSessionIDFromCookie() bool
	IsRequestedSessionIDFromURL() bool

	Attribute(name string) interface{}
	AttributeNames() []string
	SetAttribute(name string, value interface{})
	RemoveAttribute(name string)

	CharacterEncoding() string
	SetCharacterEncoding(charset string) error
	ContentLength() (int, error)
	ContentLengthLong() (int64, error)
	ContentType() string
	InputStream() io.Reader
	Reader() (io.Reader, error)

	Parameter(name string) string
	ParameterNames() []string
	ParameterValues(name string) []string
	ParameterMap() map[string][]string

	Parts() ([]Part, error)
	Part(name string) (Part, error)
	RealPath(path string) (string, error)
	RequestDispatcher(path string) (RequestDispatcher, error)
	ServletContext() (ServletContext, error)
	StartAsync() (AsyncContext, error)
	AsyncContext() (AsyncContext, error)
	IsAsyncStarted() bool
	IsAsyncSupported() bool
	DispatcherType() DispatcherType
	Upgrade() error
}

// ServletContext is the application a request belongs to.
type ServletContext interface {
	ContextPath() string
	Attribute(name string) interface{}
}

// AsyncContext controls a request whose processing continues after the
// handler returns.
type AsyncContext interface {
	Request() Request
	Response() Response
	Complete()
}

// Part is one section of a multipart body.
type Part interface {
	Name() string
	Header(name string) string
	Size() int64
	Open() (io.ReadCloser, error)
}

// RequestDispatcher forwards or includes another resource.
type RequestDispatcher interface {
	Forward(req Request, resp Response) error
	Include(req Request, resp Response) error
}
