package servlettest

import (
	"bytes"
	"io"
	"math"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/language"

	"github.com/shapestone/shape-httpmock/internal/charset"
	"github.com/shapestone/shape-httpmock/pkg/servlet"
	"github.com/shapestone/shape-httpmock/pkg/support"
)

// RequestMock is a servlet.Request configured through With* methods, each
// of which modifies and returns the same request.
//
// Header names are case-insensitive: they are stored and looked up in lower
// case.
type RequestMock struct {
	input      *bytes.Reader
	attributes map[string]interface{}

	authType      string
	userPrincipal servlet.Principal
	remoteUser    string

	session            *SessionMock
	store              *SessionStore
	requestedSessionID string

	protocol    string
	method      string
	contextPath string
	servletPath string
	path        string
	pathSet     bool
	queryString string
	headers     servlet.Header
	parameters  map[string][]string
	encoding    string

	scheme     string
	localPort  int
	localIP    string
	localHost  string
	remotePort int
	remoteIP   string
	remoteHost string
}

var _ servlet.Request = (*RequestMock)(nil)

// NewRequest returns a GET request for http://localHost:8080/ with an
// empty body.
func NewRequest() *RequestMock {
	return &RequestMock{
		input:      bytes.NewReader(nil),
		attributes: make(map[string]interface{}),
		protocol:   servlet.DefaultProtocol,
		method:     "GET",
		headers:    servlet.Header{},
		parameters: make(map[string][]string),
		scheme:     "http",
		localPort:  8080,
		localIP:    "127.0.0.1",
		localHost:  "localHost",
		remotePort: math.MaxInt32,
		remoteIP:   "0.0.0.0",
		remoteHost: "example.org",
	}
}

/* headers */

func (r *RequestMock) Header(name string) string {
	return r.headers.Value(strings.ToLower(name))
}

// Headers returns a copy of the values of name.
func (r *RequestMock) Headers(name string) []string {
	return append([]string{}, r.headers.Values(strings.ToLower(name))...)
}

// HeaderNames returns the lower-cased header names, sorted.
func (r *RequestMock) HeaderNames() []string {
	return r.headers.Names()
}

// IntHeader returns the header as an int, or -1 if absent.
func (r *RequestMock) IntHeader(name string) (int, error) {
	v, ok := r.headers.Get(strings.ToLower(name))
	if !ok {
		return -1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, servlet.NewFormatError("int header", v, err)
	}
	return n, nil
}

// DateHeader returns the header as epoch milliseconds, or -1 if absent.
func (r *RequestMock) DateHeader(name string) (int64, error) {
	v, ok := r.headers.Get(strings.ToLower(name))
	if !ok {
		return -1, nil
	}
	return support.ParseDate(v)
}

// Cookies parses every Cookie header value as one cookie. It returns nil if
// there is none.
func (r *RequestMock) Cookies() ([]*servlet.Cookie, error) {
	var cookies []*servlet.Cookie
	for _, line := range r.headers.Values("cookie") {
		c, err := support.ParseCookie(line)
		if err != nil {
			return nil, err
		}
		cookies = append(cookies, c)
	}
	return cookies, nil
}

// Locale returns the preferred locale of Accept-Language.
func (r *RequestMock) Locale() language.Tag {
	return r.Locales()[0]
}

// Locales returns the Accept-Language tags by preference, or
// servlet.DefaultLocale when the header is absent or malformed.
func (r *RequestMock) Locales() []language.Tag {
	v, ok := r.headers.Get("accept-language")
	if !ok {
		return []language.Tag{servlet.DefaultLocale}
	}
	tags, _, err := language.ParseAcceptLanguage(v)
	if err != nil || len(tags) == 0 {
		return []language.Tag{servlet.DefaultLocale}
	}
	return tags
}

/* request line */

func (r *RequestMock) Protocol() string    { return r.protocol }
func (r *RequestMock) Scheme() string      { return r.scheme }
func (r *RequestMock) Method() string      { return r.method }
func (r *RequestMock) PathInfo() string    { return r.path }
func (r *RequestMock) ContextPath() string { return r.contextPath }
func (r *RequestMock) ServletPath() string { return r.servletPath }
func (r *RequestMock) QueryString() string { return r.queryString }

// PathTranslated is always empty; there is no file system behind the fixture.
func (r *RequestMock) PathTranslated() string { return "" }

// RequestURI joins context path, servlet path and path info, using "/" when
// no path was set.
func (r *RequestMock) RequestURI() string {
	path := "/"
	if r.pathSet {
		path = r.path
	}
	return r.contextPath + r.servletPath + path
}

// RequestURL is scheme://server:port followed by RequestURI.
func (r *RequestMock) RequestURL() string {
	return r.scheme + "://" + r.ServerName() + ":" + strconv.Itoa(r.ServerPort()) + r.RequestURI()
}

/* connection */

func (r *RequestMock) RemotePort() int    { return r.remotePort }
func (r *RequestMock) RemoteAddr() string { return r.remoteIP }
func (r *RequestMock) RemoteHost() string { return r.remoteHost }
func (r *RequestMock) LocalPort() int     { return r.localPort }
func (r *RequestMock) LocalName() string  { return r.localHost }
func (r *RequestMock) LocalAddr() string  { return r.localIP }

// ServerName is the host part of the Host header, or the local name.
func (r *RequestMock) ServerName() string {
	host, ok := r.headers.Get("host")
	if !ok {
		return r.localHost
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// ServerPort is the port of the Host header, the scheme's default port when
// the Host header has none, or the local port without a Host header.
func (r *RequestMock) ServerPort() int {
	host, ok := r.headers.Get("host")
	if !ok {
		return r.localPort
	}
	if _, p, err := net.SplitHostPort(host); err == nil {
		if port, err := strconv.Atoi(p); err == nil {
			return port
		}
	}
	if r.IsSecure() {
		return 443
	}
	return 80
}

func (r *RequestMock) IsSecure() bool {
	return r.scheme == "https"
}

/* authentication */

func (r *RequestMock) AuthType() string                                 { return r.authType }
func (r *RequestMock) RemoteUser() string                               { return r.remoteUser }
func (r *RequestMock) UserPrincipal() servlet.Principal                 { return r.userPrincipal }
func (r *RequestMock) IsUserInRole(role string) bool                    { return false }
func (r *RequestMock) Authenticate(resp servlet.Response) (bool, error) { return false, nil }

// Login accepts any credentials and authenticates username with BasicAuth.
func (r *RequestMock) Login(username, password string) error {
	r.WithAuthentication("BasicAuth", servlet.UserPrincipal(username))
	return nil
}

func (r *RequestMock) Logout() error {
	r.authType = ""
	r.userPrincipal = nil
	r.remoteUser = ""
	return nil
}

/* session */

// Session returns the request's session. Without one it resolves the
// requested session id in the session store, and then, if create is true,
// starts a new session and stores it.
func (r *RequestMock) Session(create bool) servlet.Session {
	if r.session != nil {
		return r.session
	}
	if r.store != nil && r.requestedSessionID != "" {
		if s, ok := r.store.Get(r.requestedSessionID); ok {
			r.session = s
			return s
		}
	}
	if !create {
		return nil
	}
	r.session = NewSession()
	if r.store != nil {
		r.store.Put(r.session)
	}
	return r.session
}

// ChangeSessionID gives the session, created if needed, a new id and
// returns it.
func (r *RequestMock) ChangeSessionID() string {
	r.Session(true)
	oldID := r.session.id
	r.session.id = uuid.NewString()
	if r.store != nil {
		r.store.Rekey(oldID, r.session)
	}
	return r.session.id
}

func (r *RequestMock) RequestedSessionID() string { return r.requestedSessionID }

// IsRequestedSessionIDValid reports whether a session id was requested.
func (r *RequestMock) IsRequestedSessionIDValid() bool {
	return r.requestedSessionID != ""
}

func (r *RequestMock) IsRequestedSessionIDFromCookie() bool { return false }
func (r *RequestMock) IsRequestedSessionIDFromURL() bool    { return false }

/* attributes */

func (r *RequestMock) Attribute(name string) interface{} {
	return r.attributes[name]
}

// AttributeNames returns the attribute names, sorted.
func (r *RequestMock) AttributeNames() []string {
	names := make([]string, 0, len(r.attributes))
	for name := range r.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *RequestMock) SetAttribute(name string, value interface{}) {
	r.attributes[name] = value
}

func (r *RequestMock) RemoveAttribute(name string) {
	delete(r.attributes, name)
}

/* content */

// CharacterEncoding returns the encoding set with SetCharacterEncoding, else
// the charset of the Content-Type header, else "".
func (r *RequestMock) CharacterEncoding() string {
	if r.encoding != "" {
		return r.encoding
	}
	if _, cs, ok := strings.Cut(r.headers.Value("content-type"), "; charset="); ok {
		return cs
	}
	return ""
}

// SetCharacterEncoding overrides the body encoding. Unknown encodings are
// rejected.
func (r *RequestMock) SetCharacterEncoding(cs string) error {
	if _, err := charset.Lookup(cs); err != nil {
		return err
	}
	r.encoding = cs
	return nil
}

// ContentLength returns the Content-Length header, or -1 if absent.
func (r *RequestMock) ContentLength() (int, error) {
	n, err := r.ContentLengthLong()
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, servlet.NewFormatError("content length", strconv.FormatInt(n, 10), strconv.ErrRange)
	}
	return int(n), nil
}

// ContentLengthLong returns the Content-Length header, or -1 if absent.
func (r *RequestMock) ContentLengthLong() (int64, error) {
	v, ok := r.headers.Get("content-length")
	if !ok {
		return -1, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, servlet.NewFormatError("content length", v, err)
	}
	return n, nil
}

func (r *RequestMock) ContentType() string {
	return r.headers.Value("content-type")
}

// InputStream returns the body. Every call returns the same reader.
func (r *RequestMock) InputStream() io.Reader {
	return r.input
}

// Reader returns the body decoded from CharacterEncoding, ISO-8859-1 when
// none is known. It reads from the same position as InputStream.
func (r *RequestMock) Reader() (io.Reader, error) {
	enc := r.CharacterEncoding()
	if enc == "" {
		enc = servlet.ISO88591
	}
	return charset.NewReader(r.input, enc)
}

/* parameters */

// Parameter returns the first value of name, or "".
func (r *RequestMock) Parameter(name string) string {
	if vals := r.parameters[name]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// ParameterNames returns the parameter names, sorted.
func (r *RequestMock) ParameterNames() []string {
	names := make([]string, 0, len(r.parameters))
	for name := range r.parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParameterValues returns a copy of the values of name, or nil.
func (r *RequestMock) ParameterValues(name string) []string {
	vals, ok := r.parameters[name]
	if !ok {
		return nil
	}
	return append([]string(nil), vals...)
}

// ParameterMap returns a copy of all parameters.
func (r *RequestMock) ParameterMap() map[string][]string {
	m := make(map[string][]string, len(r.parameters))
	for name, vals := range r.parameters {
		m[name] = append([]string(nil), vals...)
	}
	return m
}

/* container operations */

func (r *RequestMock) Parts() ([]servlet.Part, error) {
	return nil, servlet.ErrNotSupported
}

func (r *RequestMock) Part(name string) (servlet.Part, error) {
	return nil, servlet.ErrNotSupported
}

func (r *RequestMock) RealPath(path string) (string, error) {
	return "", servlet.ErrNotSupported
}

func (r *RequestMock) RequestDispatcher(path string) (servlet.RequestDispatcher, error) {
	return nil, servlet.ErrNotSupported
}

func (r *RequestMock) ServletContext() (servlet.ServletContext, error) {
	return nil, servlet.ErrNotSupported
}

func (r *RequestMock) StartAsync() (servlet.AsyncContext, error) {
	return nil, servlet.ErrNotSupported
}

func (r *RequestMock) AsyncContext() (servlet.AsyncContext, error) {
	return nil, servlet.ErrNotSupported
}

func (r *RequestMock) IsAsyncStarted() bool   { return false }
func (r *RequestMock) IsAsyncSupported() bool { return false }

func (r *RequestMock) DispatcherType() servlet.DispatcherType {
	return servlet.DispatchRequest
}

func (r *RequestMock) Upgrade() error {
	return servlet.ErrNotSupported
}

/* builder */

// WithAuthentication sets the auth type and principal; the remote user is
// the principal's name.
func (r *RequestMock) WithAuthentication(authType string, principal servlet.Principal) *RequestMock {
	r.authType = authType
	r.userPrincipal = principal
	r.remoteUser = ""
	if principal != nil {
		r.remoteUser = principal.Name()
	}
	return r
}

// WithAttributes replaces all attributes with a copy of attributes.
func (r *RequestMock) WithAttributes(attributes map[string]interface{}) *RequestMock {
	r.attributes = make(map[string]interface{}, len(attributes))
	for k, v := range attributes {
		r.attributes[k] = v
	}
	return r
}

func (r *RequestMock) WithSession(session *SessionMock) *RequestMock {
	r.session = session
	return r
}

// WithSessionStore makes Session resolve and store sessions in store.
func (r *RequestMock) WithSessionStore(store *SessionStore) *RequestMock {
	r.store = store
	return r
}

func (r *RequestMock) WithRequestedSessionID(id string) *RequestMock {
	r.requestedSessionID = id
	return r
}

func (r *RequestMock) WithProtocol(protocol string) *RequestMock {
	r.protocol = protocol
	return r
}

func (r *RequestMock) WithMethod(method string) *RequestMock {
	r.method = method
	return r
}

func (r *RequestMock) WithContextPath(contextPath string) *RequestMock {
	r.contextPath = contextPath
	return r
}

func (r *RequestMock) WithServletPath(servletPath string) *RequestMock {
	r.servletPath = servletPath
	return r
}

// WithPath sets the path info.
func (r *RequestMock) WithPath(path string) *RequestMock {
	r.path = path
	r.pathSet = true
	return r
}

// WithHeaders adds every value of headers. Names are lower-cased.
func (r *RequestMock) WithHeaders(headers map[string][]string) *RequestMock {
	for name, vals := range headers {
		for _, v := range vals {
			r.headers.Add(strings.ToLower(name), v)
		}
	}
	return r
}

// WithHeader adds one header value.
func (r *RequestMock) WithHeader(name, value string) *RequestMock {
	r.headers.Add(strings.ToLower(name), value)
	return r
}

// WithParameters sets the given parameters, replacing existing values of
// the same names. Names with no values are skipped.
func (r *RequestMock) WithParameters(parameters map[string][]string) *RequestMock {
	for name, vals := range parameters {
		if len(vals) == 0 {
			continue
		}
		r.parameters[name] = append([]string(nil), vals...)
	}
	return r
}

// WithQueryString sets the query string and its parameters, decoded as
// UTF-8. Bare names become empty values. It panics if qs is malformed.
func (r *RequestMock) WithQueryString(qs string) *RequestMock {
	values, err := support.ParseQueryString(qs, servlet.DefaultCharset)
	if err != nil {
		panic("servlettest: WithQueryString: " + err.Error())
	}
	r.queryString = qs
	return r.WithParameters(values.Strings())
}

func (r *RequestMock) WithScheme(scheme string) *RequestMock {
	r.scheme = scheme
	return r
}

func (r *RequestMock) WithLocalPort(port int) *RequestMock {
	r.localPort = port
	return r
}

func (r *RequestMock) WithLocalIP(ip string) *RequestMock {
	r.localIP = ip
	return r
}

func (r *RequestMock) WithLocalHost(host string) *RequestMock {
	r.localHost = host
	return r
}

func (r *RequestMock) WithRemotePort(port int) *RequestMock {
	r.remotePort = port
	return r
}

func (r *RequestMock) WithRemoteIP(ip string) *RequestMock {
	r.remoteIP = ip
	return r
}

func (r *RequestMock) WithRemoteHost(host string) *RequestMock {
	r.remoteHost = host
	return r
}

// WithBody sets the body to the UTF-8 bytes of body.
func (r *RequestMock) WithBody(body string) *RequestMock {
	return r.WithBodyBytes([]byte(body))
}

func (r *RequestMock) WithBodyBytes(body []byte) *RequestMock {
	r.input = bytes.NewReader(body)
	return r
}

// WithJSONBody sets the body to v encoded as JSON and, unless already set,
// the Content-Type to application/json with UTF-8. It panics if v cannot be
// encoded.
func (r *RequestMock) WithJSONBody(v interface{}) *RequestMock {
	body, err := jsoniter.ConfigFastest.Marshal(v)
	if err != nil {
		panic("servlettest: WithJSONBody: " + err.Error())
	}
	if !r.headers.Has("content-type") {
		r.headers.Set("content-type", "application/json; charset="+servlet.DefaultCharset)
	}
	return r.WithBodyBytes(body)
}
