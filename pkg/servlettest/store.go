package servlettest

import (
	"sort"

	"github.com/patrickmn/go-cache"
)

// SessionStore keeps sessions by id so that requests sharing a store see
// the same sessions. Entries never expire and no janitor runs.
type SessionStore struct {
	sessions *cache.Cache
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: cache.New(cache.NoExpiration, 0)}
}

// Put stores s under its id, replacing any session with the same id.
func (st *SessionStore) Put(s *SessionMock) {
	st.sessions.Set(s.ID(), s, cache.NoExpiration)
}

// Get returns the session stored under id.
func (st *SessionStore) Get(id string) (*SessionMock, bool) {
	v, ok := st.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s, ok := v.(*SessionMock)
	return s, ok
}

func (st *SessionStore) Delete(id string) {
	st.sessions.Delete(id)
}

// Rekey moves s from oldID to its current id.
func (st *SessionStore) Rekey(oldID string, s *SessionMock) {
	st.sessions.Delete(oldID)
	st.Put(s)
}

// Len returns the number of stored sessions.
func (st *SessionStore) Len() int {
	return st.sessions.ItemCount()
}

// IDs returns the stored session ids, sorted.
func (st *SessionStore) IDs() []string {
	items := st.sessions.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
