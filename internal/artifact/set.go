package artifact

import (
	"slices"
	"sync"
)

// A packaged archive produced by one leg.
type Artifact struct {
	Index int    // Leg index, 0 for the native leg.
	Label string // Platform label of the leg.
	Path  string // Absolute path of the archive.
	Size  int64  // Archive size in bytes.
}

// Ordered collection of artifacts, safe for concurrent use.
type Set struct {
	mu    sync.Mutex
	items []Artifact
}

// Adds an artifact. Appends from concurrent legs may arrive in any order.
func (s *Set) Add(a Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, a)
}

// Returns a copy of the artifacts sorted by leg index.
func (s *Set) Items() []Artifact {
	s.mu.Lock()
	items := slices.Clone(s.items)
	s.mu.Unlock()

	slices.SortStableFunc(items, func(a, b Artifact) int {
		return a.Index - b.Index
	})
	return items
}

// Returns the archive paths in leg order.
func (s *Set) Paths() []string {
	items := s.Items()
	paths := make([]string, len(items))
	for i, a := range items {
		paths[i] = a.Path
	}
	return paths
}

// Returns the number of artifacts.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Returns the summed size of all artifacts.
func (s *Set) TotalSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, a := range s.items {
		total += a.Size
	}
	return total
}
