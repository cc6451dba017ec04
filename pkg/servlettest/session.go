package servlettest

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shapestone/shape-httpmock/pkg/servlet"
)

// SessionMock is a servlet.Session held in memory. It never expires.
type SessionMock struct {
	id                  string
	creationTime        int64
	lastAccessedTime    int64
	maxInactiveInterval int
	attributes          map[string]interface{}
}

var _ servlet.Session = (*SessionMock)(nil)

// NewSession returns a session with a fresh random id.
func NewSession() *SessionMock {
	now := time.Now().UnixMilli()
	return &SessionMock{
		id:               uuid.NewString(),
		creationTime:     now,
		lastAccessedTime: now,
		attributes:       make(map[string]interface{}),
	}
}

func (s *SessionMock) ID() string {
	return s.id
}

// CreationTime returns the creation time in epoch milliseconds.
func (s *SessionMock) CreationTime() int64 {
	return s.creationTime
}

// LastAccessedTime returns the last access time in epoch milliseconds.
func (s *SessionMock) LastAccessedTime() int64 {
	return s.lastAccessedTime
}

func (s *SessionMock) MaxInactiveInterval() int {
	return s.maxInactiveInterval
}

func (s *SessionMock) SetMaxInactiveInterval(seconds int) {
	s.maxInactiveInterval = seconds
}

func (s *SessionMock) Attribute(name string) interface{} {
	return s.attributes[name]
}

func (s *SessionMock) SetAttribute(name string, value interface{}) {
	s.attributes[name] = value
}

func (s *SessionMock) RemoveAttribute(name string) {
	delete(s.attributes, name)
}

// AttributeNames returns the attribute names, sorted.
func (s *SessionMock) AttributeNames() []string {
	names := make([]string, 0, len(s.attributes))
	for name := range s.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invalidate drops all attributes and sets the interval to -1.
func (s *SessionMock) Invalidate() {
	s.maxInactiveInterval = -1
	s.attributes = make(map[string]interface{})
}

// IsNew is always false.
func (s *SessionMock) IsNew() bool {
	return false
}

func (s *SessionMock) ServletContext() (servlet.ServletContext, error) {
	return nil, servlet.ErrNotSupported
}
