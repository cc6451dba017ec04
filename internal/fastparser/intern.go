package fastparser

// Interning for the tokens a response fixture emits over and over.
//
// Map lookups keyed by string(b) do not allocate the temporary string, so a
// hit costs nothing; only unknown tokens are copied.

var versions = map[string]string{
	"HTTP/1.0": "HTTP/1.0", "HTTP/1.1": "HTTP/1.1",
	"HTTP/2": "HTTP/2", "HTTP/2.0": "HTTP/2.0",
}

var headerNames = map[string]string{
	"Cache-Control":     "Cache-Control",
	"Content-Language":  "Content-Language",
	"Content-Length":    "Content-Length",
	"Content-Type":      "Content-Type",
	"Date":              "Date",
	"ETag":              "ETag",
	"Expires":           "Expires",
	"Last-Modified":     "Last-Modified",
	"Location":          "Location",
	"Set-Cookie":        "Set-Cookie",
	"Transfer-Encoding": "Transfer-Encoding",
	"Vary":              "Vary",
}

var reasons = map[string]string{
	"OK":                    "OK",
	"Created":               "Created",
	"No Content":            "No Content",
	"Found":                 "Found",
	"Not Modified":          "Not Modified",
	"Bad Request":           "Bad Request",
	"Unauthorized":          "Unauthorized",
	"Forbidden":             "Forbidden",
	"Not Found":             "Not Found",
	"Internal Server Error": "Internal Server Error",
}

func internVersion(b []byte) string {
	if s, ok := versions[string(b)]; ok {
		return s
	}
	return string(b)
}

func internHeaderName(b []byte) string {
	if s, ok := headerNames[string(b)]; ok {
		return s
	}
	return string(b)
}

func internReason(b []byte) string {
	if s, ok := reasons[string(b)]; ok {
		return s
	}
	return string(b)
}
