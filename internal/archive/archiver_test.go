package archive

import (
	"context"
	"sync"
	"testing"
	"time"

	"flashquiz-service/internal/domain"
)

type fakeStore struct {
	mu     sync.Mutex
	saved  []domain.Question
	scores map[string]int
}

func (f *fakeStore) SaveQuestion(_ context.Context, q domain.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, q)
	return nil
}

func (f *fakeStore) IncrementScore(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scores == nil {
		f.scores = make(map[string]int)
	}
	f.scores[userID]++
	return nil
}

func (f *fakeStore) snapshot() ([]domain.Question, map[string]int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scores := make(map[string]int, len(f.scores))
	for k, v := range f.scores {
		scores[k] = v
	}
	return append([]domain.Question(nil), f.saved...), scores
}

func TestArchiverPersistsQuestionsAndScores(t *testing.T) {
	store := &fakeStore{}
	events := make(chan domain.Event, 4)
	a := NewArchiver(store, store, events, func() {})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Run(ctx)
	}()

	a.RecordQuestion(domain.Question{ID: "1_100", Number: 1, Answer: "cat"})
	events <- domain.Event{
		Type:   domain.EventAnswerResult,
		Answer: &domain.AnswerResult{UserID: "ann", QuestionID: "1_100", Correct: true, Scored: true},
	}
	// Unscored results must not touch the score store.
	events <- domain.Event{
		Type:   domain.EventAnswerResult,
		Answer: &domain.AnswerResult{UserID: "bob", QuestionID: "1_100", Correct: true, Scored: false},
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		saved, scores := store.snapshot()
		if len(saved) == 1 && scores["ann"] == 1 {
			if _, ok := scores["bob"]; ok {
				t.Fatalf("unscored answer leaked into score store")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("archiver did not persist in time: saved=%d scores=%v", len(saved), scores)
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(events)
	<-done
}
