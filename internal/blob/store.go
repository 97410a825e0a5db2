// Package blob keeps rendered images in memory behind local "blob:" URLs so
// they can be passed around like any other resource URL.
package blob

import (
	"sync"

	"github.com/google/uuid"
)

const scheme = "blob:superchat/"

type Blob struct {
	Data        []byte
	ContentType string
}

// Store is safe for concurrent use. URLs stay valid until revoked.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

func NewStore() *Store {
	return &Store{blobs: make(map[string]Blob)}
}

// Create registers data under a new URL.
func (s *Store) Create(data []byte, contentType string) string {
	u := scheme + uuid.NewString()
	s.mu.Lock()
	s.blobs[u] = Blob{Data: data, ContentType: contentType}
	s.mu.Unlock()
	return u
}

func (s *Store) Get(url string) (Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[url]
	return b, ok
}

// Revoke releases url. Unknown URLs are ignored.
func (s *Store) Revoke(url string) {
	s.mu.Lock()
	delete(s.blobs, url)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
