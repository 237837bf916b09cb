package sample

import "sync/atomic"

// Store publishes the current Buffer to the audio thread.
type Store struct {
	current atomic.Pointer[Buffer]
}

// Load returns the published buffer, or nil.
func (s *Store) Load() *Buffer {
	return s.current.Load()
}

// Swap publishes b and returns the previous buffer.
func (s *Store) Swap(b *Buffer) *Buffer {
	return s.current.Swap(b)
}

// Changed reports whether the published buffer differs in content from prev.
func (s *Store) Changed(prev *Buffer) bool {
	cur := s.current.Load()
	if cur == nil || prev == nil {
		return cur != prev
	}
	return cur.Hash != prev.Hash
}
