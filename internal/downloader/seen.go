package downloader

import "sync"

// SeenURLSet remembers which media URLs were already scheduled during one
// session. It only grows and is never persisted; the storage presence check
// stays authoritative across runs.
type SeenURLSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

func NewSeenURLSet() *SeenURLSet {
	return &SeenURLSet{urls: make(map[string]struct{})}
}

// Add records url and reports whether this was its first sighting
func (s *SeenURLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.urls[url]; ok {
		return false
	}
	s.urls[url] = struct{}{}
	return true
}

// Len returns the number of distinct URLs seen
func (s *SeenURLSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}
