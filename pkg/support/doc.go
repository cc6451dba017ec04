// Package support holds the string codecs the fixtures are built on: query
// strings, cookies and RFC 1123 dates.
package support
