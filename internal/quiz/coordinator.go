package quiz

import (
	"strings"
	"sync"
	"time"

	"flashquiz-service/internal/domain"
)

// Options configures a session. Zero fields fall back to the defaults the
// sync client expects (60s window, 50 retained questions, top 10 scores).
type Options struct {
	AnswerTimeout   time.Duration
	HistoryCapacity int
	LeaderboardSize int
}

func (o Options) withDefaults() Options {
	if o.AnswerTimeout <= 0 {
		o.AnswerTimeout = 60 * time.Second
	}
	if o.HistoryCapacity <= 0 {
		o.HistoryCapacity = 50
	}
	if o.LeaderboardSize <= 0 {
		o.LeaderboardSize = 10
	}
	return o
}

// Coordinator owns one live quiz session: the question history, the expiry
// timers, and the scoreboard. It is the only type collaborators call, and
// all of its methods are safe for concurrent use.
type Coordinator struct {
	opts   Options
	now    func() time.Time
	timers *expiryScheduler

	mu        sync.Mutex
	questions *registry
	board     *leaderboard

	subMu       sync.Mutex
	subscribers map[chan domain.Event]struct{}
	closed      bool
}

func NewCoordinator(opts Options) *Coordinator {
	return NewCoordinatorWithClock(opts, time.Now)
}

// NewCoordinatorWithClock allows deterministic timestamps in tests.
func NewCoordinatorWithClock(opts Options, now func() time.Time) *Coordinator {
	opts = opts.withDefaults()
	return &Coordinator{
		opts:        opts,
		now:         now,
		timers:      newExpiryScheduler(),
		questions:   newRegistry(opts.HistoryCapacity, now),
		board:       newLeaderboard(),
		subscribers: make(map[chan domain.Event]struct{}),
	}
}

// Publish creates and activates a question from a card, superseding the
// previous active question. The superseded state is visible to submissions
// before the new question's broadcast event is emitted.
func (c *Coordinator) Publish(card domain.Card) (domain.Question, error) {
	if strings.TrimSpace(card.Word) == "" {
		return domain.Question{}, domain.ErrMissingWord
	}
	if strings.TrimSpace(card.Definition) == "" {
		return domain.Question{}, domain.ErrMissingDefinition
	}

	c.mu.Lock()
	q, superseded := c.questions.publish(card, c.opts.AnswerTimeout)
	c.mu.Unlock()

	if superseded != "" {
		c.timers.cancel(superseded)
	}
	id := q.ID
	c.timers.arm(id, c.opts.AnswerTimeout, func() { c.expire(id) })

	view := viewOf(q, c.opts.AnswerTimeout)
	c.emit(domain.Event{Type: domain.EventQuestion, Question: &view})
	return q, nil
}

// expire is the timer callback. Supersession may have already closed the
// question; the registry transition is idempotent and question_end is only
// emitted when this call did the closing.
func (c *Coordinator) expire(id string) {
	c.mu.Lock()
	changed := c.questions.expire(id)
	c.mu.Unlock()
	if changed {
		c.emit(domain.Event{Type: domain.EventQuestionEnd, Expired: id})
	}
}

// SubmitAnswer judges one answer. Unknown question IDs and repeat
// submissions by the same user are swallowed (ok=false, nothing emitted):
// both are expected races under network latency, not errors. Each user gets
// exactly one attempt per question and at most one user is credited.
func (c *Coordinator) SubmitAnswer(userID, questionID, rawAnswer string, claimsCurrent bool) (domain.AnswerResult, bool) {
	userID = cleanUser(userID)
	if userID == "" {
		return domain.AnswerResult{}, false
	}
	key := Normalize(rawAnswer)

	c.mu.Lock()
	rec, found := c.questions.lookup(questionID)
	if !found {
		c.mu.Unlock()
		return domain.AnswerResult{}, false
	}
	if _, already := rec.responders[userID]; already {
		c.mu.Unlock()
		return domain.AnswerResult{}, false
	}

	correct := key == rec.q.Answer
	// The client's claim only ever narrows eligibility; the registry's
	// accepting check is the authoritative gate.
	scored := correct && claimsCurrent && c.questions.accepting(rec) && !rec.credited

	rec.responders[userID] = correct
	if scored {
		rec.credited = true
		c.board.increment(userID)
	}
	c.mu.Unlock()

	result := domain.AnswerResult{
		UserID:     userID,
		QuestionID: questionID,
		Correct:    correct,
		Scored:     scored,
	}
	c.emit(domain.Event{Type: domain.EventAnswerResult, Answer: &result})
	return result, true
}

// CurrentStatus reports the newest question's state for a reconnecting
// client: whether it still accepts answers, whether it already timed out,
// and whether this user's recorded attempt on it was correct.
func (c *Coordinator) CurrentStatus(userID string) domain.SessionStatus {
	userID = cleanUser(userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.questions.newest()
	if rec == nil {
		return domain.SessionStatus{}
	}
	return domain.SessionStatus{
		Active:                   c.questions.accepting(rec),
		AlreadyAnsweredCorrectly: rec.responders[userID],
		Expired:                  rec.q.State == domain.StateExpired,
	}
}

// History returns the retained questions, newest first, answers withheld.
func (c *Coordinator) History() []domain.QuestionView {
	c.mu.Lock()
	defer c.mu.Unlock()
	views := make([]domain.QuestionView, 0, len(c.questions.items))
	for i := len(c.questions.items) - 1; i >= 0; i-- {
		views = append(views, viewOf(c.questions.items[i].q, c.opts.AnswerTimeout))
	}
	return views
}

// ActiveQuestion returns the newest question's view if it still accepts
// answers, for the snapshot sent to a freshly connected client.
func (c *Coordinator) ActiveQuestion() (domain.QuestionView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.questions.newest()
	if rec == nil || !c.questions.accepting(rec) {
		return domain.QuestionView{}, false
	}
	return viewOf(rec.q, c.opts.AnswerTimeout), true
}

// Top returns the ranked leaderboard, truncated to the configured size.
func (c *Coordinator) Top() []domain.ScoreEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.topN(c.opts.LeaderboardSize)
}

// SeedHistory loads questions reconstructed from the archive. Call once at
// startup, before the first Publish.
func (c *Coordinator) SeedHistory(questions []domain.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions.seed(questions)
}

// SeedScores restores persisted leaderboard entries. Call once at startup.
func (c *Coordinator) SeedScores(entries []domain.ScoreEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.board.seed(entries)
}

// Subscribe returns a channel receiving every outbound event. The caller
// must invoke the cancel function to avoid leaks.
func (c *Coordinator) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	c.subMu.Lock()
	if c.closed {
		c.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.subMu.Unlock()
	}
	return ch, cancel
}

// Close tears the session down: pending timers are cancelled and all
// subscriber channels closed.
func (c *Coordinator) Close() {
	c.timers.stopAll()
	c.subMu.Lock()
	c.closed = true
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
	c.subMu.Unlock()
}

// emit fans an event out without holding the session mutex, so a timer
// firing can never deadlock against a concurrent submission. Slow
// subscribers lose their oldest queued event rather than blocking.
func (c *Coordinator) emit(ev domain.Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func viewOf(q domain.Question, timeout time.Duration) domain.QuestionView {
	return domain.QuestionView{
		ID:        q.ID,
		Number:    q.Number,
		Prompt:    q.Prompt,
		Example:   q.Example,
		Image:     q.Image,
		ExpiresAt: q.ExpiresAt,
		TimeoutMS: timeout.Milliseconds(),
	}
}

// cleanUser truncates a display name to 15 characters and trims whitespace.
// Names are identifiers for scoring only, never authentication.
func cleanUser(userID string) string {
	if r := []rune(userID); len(r) > 15 {
		userID = string(r[:15])
	}
	return strings.TrimSpace(userID)
}
