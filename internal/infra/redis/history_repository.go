package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"flashquiz-service/internal/domain"
)

const historyKey = "quiz:history"

// HistoryBackend is the authoritative archive behind the cache.
type HistoryBackend interface {
	LoadHistory(ctx context.Context, limit int) ([]domain.Question, error)
	SaveQuestion(ctx context.Context, q domain.Question) error
}

// HistoryRepository caches archived questions in a Redis list (oldest first,
// one JSON document per question) in front of a slower backend. Reads fall
// back to the backend on a cold cache, coalesced through singleflight;
// writes go through to the backend and keep the cache warm.
type HistoryRepository struct {
	client   *redis.Client
	backend  HistoryBackend
	ttl      time.Duration
	capacity int
	sf       singleflight.Group
	rnd      *rand.Rand
}

func NewHistoryRepository(client *redis.Client, backend HistoryBackend, ttl time.Duration, capacity int) *HistoryRepository {
	return &HistoryRepository{
		client:   client,
		backend:  backend,
		ttl:      ttl,
		capacity: capacity,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *HistoryRepository) LoadHistory(ctx context.Context, limit int) ([]domain.Question, error) {
	if qs, ok := r.cached(ctx, limit); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(historyKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if qs, ok := r.cached(ctx, limit); ok {
			return qs, nil
		}

		questions, err := r.backend.LoadHistory(ctx, r.capacity)
		if err != nil {
			return nil, err
		}

		pipe := r.client.Pipeline()
		pipe.Del(ctx, historyKey)
		for _, q := range questions {
			raw, err := json.Marshal(q)
			if err != nil {
				continue
			}
			pipe.RPush(ctx, historyKey, raw)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, historyKey, r.ttlWithJitter())
		}
		_, _ = pipe.Exec(ctx)

		return clip(questions, limit), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// SaveQuestion writes through to the backend and appends to the cache so a
// warm cache never serves a stale tail.
func (r *HistoryRepository) SaveQuestion(ctx context.Context, q domain.Question) error {
	if err := r.backend.SaveQuestion(ctx, q); err != nil {
		return err
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.RPush(ctx, historyKey, raw)
	if r.capacity > 0 {
		pipe.LTrim(ctx, historyKey, int64(-r.capacity), -1)
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, historyKey, r.ttlWithJitter())
	}
	_, _ = pipe.Exec(ctx)
	return nil
}

func (r *HistoryRepository) cached(ctx context.Context, limit int) ([]domain.Question, bool) {
	raws, err := r.client.LRange(ctx, historyKey, 0, -1).Result()
	if err != nil || len(raws) == 0 {
		return nil, false
	}
	questions := make([]domain.Question, 0, len(raws))
	for _, raw := range raws {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, false
		}
		questions = append(questions, q)
	}
	return clip(questions, limit), true
}

// clip keeps the newest limit questions, preserving oldest-first order.
func clip(questions []domain.Question, limit int) []domain.Question {
	if limit > 0 && len(questions) > limit {
		questions = questions[len(questions)-limit:]
	}
	return questions
}

func (r *HistoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
