package quiz

import (
	"sync"
	"time"
)

// expiryScheduler arms one cancellable timer per question. time.AfterFunc
// keeps the timers on the runtime's heap, so high question throughput never
// grows a goroutine per pending expiry.
type expiryScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newExpiryScheduler() *expiryScheduler {
	return &expiryScheduler{timers: make(map[string]*time.Timer)}
}

// arm schedules fire after delay. The callback runs on the timer goroutine
// and must not assume cancel always wins a race with firing; callers rely
// on the registry's idempotent expire instead.
func (s *expiryScheduler) arm(id string, delay time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		fire()
	})
}

// cancel best-effort stops a pending timer. A timer that already fired is
// simply gone.
func (s *expiryScheduler) cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// stopAll cancels every pending timer; used on session teardown.
func (s *expiryScheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
