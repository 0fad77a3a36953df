package upstream

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	BASE_BACKOFF   = 2 * time.Second
	MAX_BACKOFF    = 2 * time.Minute
	BACKOFF_FACTOR = 2.0
	JITTER_FACTOR  = 0.5
)

type backoffData struct {
	BackoffDelay time.Duration
	NextRetryAt  time.Time
}

// BackoffStore tracks a cooldown window per feed. A feed that failed is
// skipped until its window passes; it is never retried within a request.
type BackoffStore struct {
	mu       sync.RWMutex
	backoffs map[string]backoffData
	now      func() time.Time
}

func NewBackoffStore() *BackoffStore {
	return &BackoffStore{
		backoffs: make(map[string]backoffData),
		now:      time.Now,
	}
}

func (s *BackoffStore) NextRetryAt(feed string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if backoff, exists := s.backoffs[feed]; exists {
		return backoff.NextRetryAt.UTC(), true
	}
	return time.Time{}, false
}

// CoolingDown reports whether feed is still inside its backoff window.
func (s *BackoffStore) CoolingDown(feed string) bool {
	next, ok := s.NextRetryAt(feed)
	return ok && s.now().Before(next)
}

func (s *BackoffStore) UpdateBackoff(feed string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if backoff, exists := s.backoffs[feed]; exists {
		backoff.BackoffDelay = calculateNewBackoffDelay(backoff.BackoffDelay)
		backoff.NextRetryAt = s.calculateNextRetryAt(backoff.BackoffDelay)
		s.backoffs[feed] = backoff
	} else {
		s.backoffs[feed] = backoffData{
			BackoffDelay: BASE_BACKOFF,
			NextRetryAt:  s.calculateNextRetryAt(BASE_BACKOFF),
		}
	}
}

func (s *BackoffStore) ResetBackoff(feed string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.backoffs, feed)
}

func (s *BackoffStore) calculateNextRetryAt(backoff time.Duration) time.Time {
	jitter := time.Duration(rand.Float64() * float64(backoff) * JITTER_FACTOR)
	backoff += jitter
	if backoff > MAX_BACKOFF {
		backoff = MAX_BACKOFF
	}
	return s.now().Add(backoff).UTC()
}

func calculateNewBackoffDelay(backoffDelay time.Duration) time.Duration {
	backoffDelay *= BACKOFF_FACTOR
	if backoffDelay >= MAX_BACKOFF {
		backoffDelay = MAX_BACKOFF
	}
	return backoffDelay
}
