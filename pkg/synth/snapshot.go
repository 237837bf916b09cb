package synth

import (
	"sync"

	"github.com/justyntemme/granulator/pkg/granular"
)

// Stats describe the block a snapshot was taken at.
type Stats struct {
	Frame        int64  `json:"frame"`
	ActiveVoices int    `json:"active_voices"`
	Seq          uint64 `json:"seq"`
}

// Snapshot holds the most recently published grain descriptions. The audio
// thread publishes with TryLock and skips the block if a reader holds the
// lock, so it never waits.
type Snapshot struct {
	mu     sync.Mutex
	grains []granular.Description
	stats  Stats
}

// NewSnapshot creates a snapshot with room for n descriptions.
func NewSnapshot(n int) *Snapshot {
	return &Snapshot{grains: make([]granular.Description, 0, n)}
}

// Publish copies grains in. It reports false when a reader held the lock.
func (s *Snapshot) Publish(grains []granular.Description, frame int64, active int) bool {
	if !s.mu.TryLock() {
		return false
	}
	s.grains = append(s.grains[:0], grains...)
	s.stats.Frame = frame
	s.stats.ActiveVoices = active
	s.stats.Seq++
	s.mu.Unlock()
	return true
}

// Read appends the published descriptions to dst.
func (s *Snapshot) Read(dst []granular.Description) ([]granular.Description, Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(dst, s.grains...), s.stats
}
