package timesync

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Sync tracks the estimated offset between the local clock and the auction
// server's clock, so that authoritative time = local time + offset.
//
// The offset is replaced wholesale on every SERVER_TIME sample; samples are
// never smoothed or averaged. The server re-sends a sample on every
// (re)connect, so drift is bounded by reconnect frequency.
type Sync struct {
	clock clockwork.Clock

	mu     sync.RWMutex
	offset time.Duration
}

// New creates a Sync with a zero offset. Until the first sample arrives,
// Now() degrades to the local clock.
func New(clock clockwork.Clock) *Sync {
	return &Sync{clock: clock}
}

// Apply recomputes the offset from a fresh server timestamp, replacing any
// prior estimate.
func (s *Sync) Apply(serverTime time.Time) {
	now := s.clock.Now()

	s.mu.Lock()
	s.offset = serverTime.Sub(now)
	offset := s.offset
	s.mu.Unlock()

	log.Debug().Dur("offset", offset).Msg("server time synced")
}

// Now returns the current authoritative-time estimate.
func (s *Sync) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock.Now().Add(s.offset)
}

// Offset returns the current offset estimate.
func (s *Sync) Offset() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset
}
