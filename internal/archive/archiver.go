package archive

import (
	"context"
	"log"

	"flashquiz-service/internal/domain"
)

// QuestionWriter persists published questions for history reconstruction.
type QuestionWriter interface {
	SaveQuestion(ctx context.Context, q domain.Question) error
}

// ScoreWriter mirrors leaderboard credit so scores survive restarts.
type ScoreWriter interface {
	IncrementScore(ctx context.Context, userID string) error
}

// HistoryLoader reconstructs archived questions, oldest first, at startup.
type HistoryLoader interface {
	LoadHistory(ctx context.Context, limit int) ([]domain.Question, error)
}

// ScoreLoader restores persisted leaderboard entries at startup.
type ScoreLoader interface {
	LoadScores(ctx context.Context, limit int) ([]domain.ScoreEntry, error)
}

// Archiver is the persistence collaborator: it consumes the session's event
// stream plus published questions handed off by the ingest path and writes
// them out best-effort. The quiz core never waits on it.
type Archiver struct {
	questions QuestionWriter
	scores    ScoreWriter
	queue     chan domain.Question
	events    <-chan domain.Event
	cancel    func()
}

func NewArchiver(questions QuestionWriter, scores ScoreWriter, events <-chan domain.Event, cancel func()) *Archiver {
	return &Archiver{
		questions: questions,
		scores:    scores,
		queue:     make(chan domain.Question, 32),
		events:    events,
		cancel:    cancel,
	}
}

// RecordQuestion enqueues a published question for archival. The full
// question (including the canonical answer) only travels this path; the
// event stream carries the answer-free broadcast view.
func (a *Archiver) RecordQuestion(q domain.Question) {
	select {
	case a.queue <- q:
	default:
		log.Printf("archive: question queue full, dropping %s", q.ID)
	}
}

// Run drains the queue and the event stream until ctx is cancelled.
// Failures are logged and skipped: the archive is a mirror, not a
// correctness dependency.
func (a *Archiver) Run(ctx context.Context) {
	defer a.cancel()
	for {
		select {
		case q := <-a.queue:
			if err := a.questions.SaveQuestion(ctx, q); err != nil {
				log.Printf("archive: save question %s: %v", q.ID, err)
			}
		case ev, ok := <-a.events:
			if !ok {
				return
			}
			if ev.Type == domain.EventAnswerResult && ev.Answer != nil && ev.Answer.Scored {
				if err := a.scores.IncrementScore(ctx, ev.Answer.UserID); err != nil {
					log.Printf("archive: increment score for %s: %v", ev.Answer.UserID, err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
