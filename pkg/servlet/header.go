package servlet

import "sort"

// Header maps a header name to its values in insertion order.
// Names are stored and matched exactly as given; callers that need
// case-insensitive lookup normalize names before using the store.
type Header map[string][]string

// Set replaces all values of name with value.
func (h Header) Set(name, value string) {
	h[name] = []string{value}
}

// Add appends value to the values of name.
func (h Header) Add(name, value string) {
	h[name] = append(h[name], value)
}

// Get returns the first value of name and whether one exists.
func (h Header) Get(name string) (string, bool) {
	vals := h[name]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Value returns the first value of name, or "" if absent.
func (h Header) Value(name string) string {
	v, _ := h.Get(name)
	return v
}

// Values returns all values of name. The result is empty, never nil, when
// name is absent.
func (h Header) Values(name string) []string {
	vals := h[name]
	if vals == nil {
		return []string{}
	}
	return vals
}

// Has reports whether name is present, even with no values.
func (h Header) Has(name string) bool {
	_, ok := h[name]
	return ok
}

// Del removes name.
func (h Header) Del(name string) {
	delete(h, name)
}

// Names returns the names that carry at least one value, sorted.
func (h Header) Names() []string {
	names := make([]string, 0, len(h))
	for name, vals := range h {
		if len(vals) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the header.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	clone := make(Header, len(h))
	for name, vals := range h {
		clone[name] = append([]string(nil), vals...)
	}
	return clone
}
