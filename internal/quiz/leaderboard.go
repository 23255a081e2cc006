package quiz

import (
	"sort"

	"flashquiz-service/internal/domain"
)

// leaderboard accumulates per-user scores. Scores only grow and entries are
// never removed; ties rank by first insertion for deterministic output.
// Guarded by the Coordinator's mutex.
type leaderboard struct {
	scores map[string]int
	order  []string
}

func newLeaderboard() *leaderboard {
	return &leaderboard{scores: make(map[string]int)}
}

func (l *leaderboard) increment(userID string) {
	if _, ok := l.scores[userID]; !ok {
		l.order = append(l.order, userID)
	}
	l.scores[userID]++
}

// seed restores scores persisted by the archive collaborator. Existing
// entries keep the higher value so a replayed seed never shrinks a score.
func (l *leaderboard) seed(entries []domain.ScoreEntry) {
	for _, e := range entries {
		if _, ok := l.scores[e.UserID]; !ok {
			l.order = append(l.order, e.UserID)
		}
		if e.Score > l.scores[e.UserID] {
			l.scores[e.UserID] = e.Score
		}
	}
}

// topN returns up to n entries, highest score first, stable on ties.
func (l *leaderboard) topN(n int) []domain.ScoreEntry {
	entries := make([]domain.ScoreEntry, 0, len(l.order))
	for _, user := range l.order {
		entries = append(entries, domain.ScoreEntry{UserID: user, Score: l.scores[user]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
