package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"flashquiz-service/internal/domain"
)

const scoresKey = "quiz:scores"

// ScoreStore keeps the leaderboard mirror in a Redis sorted set so scores
// survive restarts: ZINCRBY quiz:scores 1 {user}.
type ScoreStore struct {
	client *redis.Client
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client}
}

func (s *ScoreStore) IncrementScore(ctx context.Context, userID string) error {
	return s.client.ZIncrBy(ctx, scoresKey, 1, userID).Err()
}

// LoadScores returns up to limit entries, highest score first.
func (s *ScoreStore) LoadScores(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	members, err := s.client.ZRevRangeWithScores(ctx, scoresKey, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]domain.ScoreEntry, 0, len(members))
	for _, m := range members {
		user, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, domain.ScoreEntry{UserID: user, Score: int(m.Score)})
	}
	return entries, nil
}
