package quiz

import (
	"fmt"
	"time"

	"flashquiz-service/internal/domain"
)

// record is the registry's mutable view of one question: the immutable
// broadcast data plus the per-question answer bookkeeping.
type record struct {
	q          domain.Question
	responders map[string]bool // userID -> their first attempt was correct
	credited   bool
}

// registry owns the bounded question history and the single active pointer.
// It is not safe for concurrent use on its own; the Coordinator serializes
// all access under its mutex.
type registry struct {
	capacity int
	counter  int
	items    []*record
	now      func() time.Time
}

func newRegistry(capacity int, now func() time.Time) *registry {
	return &registry{capacity: capacity, now: now}
}

// publish supersedes the current active question (if any), appends the new
// one in active state, and evicts the oldest entry past capacity. It returns
// the created question and the ID of the superseded one ("" if none).
func (r *registry) publish(card domain.Card, timeout time.Duration) (domain.Question, string) {
	superseded := ""
	if active := r.newest(); active != nil && active.q.State == domain.StateActive {
		active.q.State = domain.StateSuperseded
		superseded = active.q.ID
	}

	r.counter++
	now := r.now()
	rec := &record{
		q: domain.Question{
			ID:        fmt.Sprintf("%d_%d", r.counter, now.Unix()),
			Number:    r.counter,
			Prompt:    card.Definition,
			Example:   card.Example,
			Image:     card.Image,
			Answer:    Normalize(card.Word),
			CreatedAt: now,
			ExpiresAt: now.Add(timeout),
			State:     domain.StateActive,
		},
		responders: make(map[string]bool),
	}
	r.items = append(r.items, rec)
	if len(r.items) > r.capacity {
		r.items = r.items[len(r.items)-r.capacity:]
	}
	return rec.q, superseded
}

// expire transitions a question from active to expired. It reports whether
// the transition happened, so a timer racing a supersession (or a second
// timer firing) is a safe no-op.
func (r *registry) expire(id string) bool {
	rec, ok := r.lookup(id)
	if !ok || rec.q.State != domain.StateActive {
		return false
	}
	rec.q.State = domain.StateExpired
	return true
}

func (r *registry) lookup(id string) (*record, bool) {
	for _, rec := range r.items {
		if rec.q.ID == id {
			return rec, true
		}
	}
	return nil, false
}

// newest returns the most recently published record, or nil.
func (r *registry) newest() *record {
	if len(r.items) == 0 {
		return nil
	}
	return r.items[len(r.items)-1]
}

// accepting reports whether a question still takes credited answers.
func (r *registry) accepting(rec *record) bool {
	return rec.q.State == domain.StateActive && r.now().Before(rec.q.ExpiresAt)
}

// seed replaces the history with questions reconstructed from the archive.
// Seeded entries are read-mostly: they arrive expired and keep their
// original numbering, and the counter resumes past the highest number seen.
func (r *registry) seed(questions []domain.Question) {
	r.items = r.items[:0]
	for _, q := range questions {
		q.State = domain.StateExpired
		r.items = append(r.items, &record{q: q, responders: make(map[string]bool)})
		if q.Number > r.counter {
			r.counter = q.Number
		}
	}
	if len(r.items) > r.capacity {
		r.items = r.items[len(r.items)-r.capacity:]
	}
}
