package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"flashquiz-service/internal/domain"
)

// HistoryStore is the authoritative question archive in Postgres.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

func (s *HistoryStore) SaveQuestion(ctx context.Context, q domain.Question) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO questions (id, number, prompt, example, image, answer, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		q.ID, q.Number, q.Prompt, q.Example, q.Image, q.Answer, q.CreatedAt, q.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	return nil
}

// LoadHistory returns the newest limit questions in oldest-first order, the
// shape the session expects for seeding.
func (s *HistoryStore) LoadHistory(ctx context.Context, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, number, prompt, example, image, answer, created_at, expires_at
		FROM questions ORDER BY number DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Number, &q.Prompt, &q.Example, &q.Image, &q.Answer, &q.CreatedAt, &q.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	// Flip newest-first query order to oldest-first.
	for i, j := 0, len(questions)-1; i < j; i, j = i+1, j-1 {
		questions[i], questions[j] = questions[j], questions[i]
	}
	return questions, nil
}
