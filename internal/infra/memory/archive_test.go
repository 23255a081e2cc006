package memory

import (
	"context"
	"testing"

	"flashquiz-service/internal/domain"
)

func TestArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewArchive()

	for i := 1; i <= 3; i++ {
		q := domain.Question{ID: "q", Number: i, Answer: "cat"}
		if err := a.SaveQuestion(ctx, q); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	history, err := a.LoadHistory(ctx, 2)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history) != 2 || history[0].Number != 2 || history[1].Number != 3 {
		t.Fatalf("expected newest two in order, got %+v", history)
	}
}

func TestArchiveScores(t *testing.T) {
	ctx := context.Background()
	a := NewArchive()

	_ = a.IncrementScore(ctx, "ann")
	_ = a.IncrementScore(ctx, "ann")
	_ = a.IncrementScore(ctx, "bob")

	scores, err := a.LoadScores(ctx, 10)
	if err != nil {
		t.Fatalf("load scores: %v", err)
	}
	if len(scores) != 2 || scores[0].UserID != "ann" || scores[0].Score != 2 {
		t.Fatalf("expected ann leading with 2, got %+v", scores)
	}
}
