package quiz

import (
	"testing"

	"flashquiz-service/internal/domain"
)

func TestLeaderboardRankingAndTies(t *testing.T) {
	l := newLeaderboard()
	l.increment("ann")
	l.increment("bob")
	l.increment("bob")
	l.increment("cid") // ties with ann, inserted later

	top := l.topN(10)
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].UserID != "bob" || top[0].Score != 2 {
		t.Fatalf("expected bob leading with 2, got %+v", top[0])
	}
	// ann scored first, so the tie ranks her above cid.
	if top[1].UserID != "ann" || top[2].UserID != "cid" {
		t.Fatalf("expected tie ordered by first insertion, got %+v", top)
	}
}

func TestLeaderboardTruncation(t *testing.T) {
	l := newLeaderboard()
	for _, u := range []string{"a", "b", "c", "d"} {
		l.increment(u)
	}
	if got := len(l.topN(2)); got != 2 {
		t.Fatalf("expected 2 entries, got %d", got)
	}
}

func TestLeaderboardSeedNeverShrinks(t *testing.T) {
	l := newLeaderboard()
	l.increment("ann")
	l.increment("ann")
	l.seed([]domain.ScoreEntry{
		{UserID: "ann", Score: 1},
		{UserID: "bob", Score: 5},
	})

	top := l.topN(10)
	if top[0].UserID != "bob" || top[0].Score != 5 {
		t.Fatalf("expected seeded bob at 5, got %+v", top[0])
	}
	if top[1].UserID != "ann" || top[1].Score != 2 {
		t.Fatalf("seed must not lower ann's live score, got %+v", top[1])
	}
}
