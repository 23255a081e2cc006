package memory

import (
	"context"
	"sort"
	"sync"

	"flashquiz-service/internal/domain"
)

// Archive is an in-memory archive backend, used when neither Postgres nor
// Redis is configured (demos, tests). It implements every archive interface.
type Archive struct {
	mu        sync.RWMutex
	questions []domain.Question
	scores    map[string]int
	order     []string
}

func NewArchive() *Archive {
	return &Archive{scores: make(map[string]int)}
}

// NewSeededArchive pre-fills the archive, useful for tests that exercise
// startup reconstruction.
func NewSeededArchive(questions []domain.Question, scores map[string]int) *Archive {
	a := NewArchive()
	a.questions = append(a.questions, questions...)
	for user, score := range scores {
		a.order = append(a.order, user)
		a.scores[user] = score
	}
	sort.Strings(a.order)
	return a
}

func (a *Archive) SaveQuestion(_ context.Context, q domain.Question) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.questions = append(a.questions, q)
	return nil
}

func (a *Archive) LoadHistory(_ context.Context, limit int) ([]domain.Question, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	qs := a.questions
	if limit > 0 && len(qs) > limit {
		qs = qs[len(qs)-limit:]
	}
	return append([]domain.Question(nil), qs...), nil
}

func (a *Archive) IncrementScore(_ context.Context, userID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.scores[userID]; !ok {
		a.order = append(a.order, userID)
	}
	a.scores[userID]++
	return nil
}

func (a *Archive) LoadScores(_ context.Context, limit int) ([]domain.ScoreEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	entries := make([]domain.ScoreEntry, 0, len(a.order))
	for _, user := range a.order {
		entries = append(entries, domain.ScoreEntry{UserID: user, Score: a.scores[user]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
