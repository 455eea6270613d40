package kurz

import (
	"errors"
	"net/url"
	"sync"
	"time"
)

// ErrNotFound is returned when a key has no stored link.
var ErrNotFound = errors.New("link not found")

// Link is one stored redirect.
type Link struct {
	CreatedAt time.Time `json:"created_at"`
	Key       string    `json:"key"`
	Target    string    `json:"target"`
	Hits      uint64    `json:"hits"`
}

// Store is a thread-safe in-memory link store with sequential Base62 keys.
type Store struct {
	mu     sync.RWMutex
	links  map[string]*Link
	nextID uint64
}

// NewStore creates an empty store. Keys start at "1"; id 0 is skipped so
// no link ever gets the ambiguous key "0".
func NewStore() *Store {
	return &Store{links: make(map[string]*Link), nextID: 1}
}

// Add validates target and stores it under a fresh key.
func (s *Store) Add(target string) (*Link, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.New("target must be an absolute http(s) URL")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	link := &Link{
		Key:       Encode(s.nextID),
		Target:    target,
		CreatedAt: time.Now(),
	}
	s.nextID++
	s.links[link.Key] = link
	return copyLink(link), nil
}

// Resolve returns the target for a key and counts the hit.
func (s *Store) Resolve(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[key]
	if !ok {
		return "", ErrNotFound
	}
	link.Hits++
	return link.Target, nil
}

// Get returns a link without counting a hit.
func (s *Store) Get(key string) (*Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyLink(link), nil
}

// All returns a snapshot of every stored link.
func (s *Store) All() []Link {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Link, 0, len(s.links))
	for _, link := range s.links {
		out = append(out, *link)
	}
	return out
}

// Len returns the number of stored links.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}

func copyLink(l *Link) *Link {
	c := *l
	return &c
}
