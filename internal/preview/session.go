// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preview

import (
	"sync"

	"github.com/pdiddy/shipcheck/pkg/types"
)

// DefaultMaxDocuments bounds a Session built with a non-positive size.
const DefaultMaxDocuments = 256

// Entry is a previewed document and the headers its values were read under.
type Entry struct {
	Document types.Document
	Headers  map[types.Field]string
}

// Session remembers previewed documents so learning feedback can find the
// text a confirmed value came from. It holds at most max entries and evicts
// the oldest first. Safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	max     int
	entries map[string]Entry
	order   []string
}

// NewSession creates a Session holding up to max documents.
func NewSession(max int) *Session {
	if max <= 0 {
		max = DefaultMaxDocuments
	}
	return &Session{max: max, entries: make(map[string]Entry)}
}

// Put registers e under its doc_id, replacing any earlier entry with the
// same id.
func (s *Session) Put(e Entry) {
	id := e.Document.DocID
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		s.order = append(s.order, id)
	}
	s.entries[id] = e
	for len(s.order) > s.max {
		delete(s.entries, s.order[0])
		s.order = s.order[1:]
	}
}

// Get returns the entry for docID.
func (s *Session) Get(docID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[docID]
	return e, ok
}

// Len returns the number of registered documents.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
