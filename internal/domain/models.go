package domain

import "time"

// QuestionState tracks the lifecycle of a published question.
type QuestionState string

const (
	// StateActive is the unique question currently open for credited answers.
	StateActive QuestionState = "active"
	// StateExpired means the answer window elapsed before a new question arrived.
	StateExpired QuestionState = "expired"
	// StateSuperseded means a newer question forced this one closed.
	StateSuperseded QuestionState = "superseded"
)

// Card is a raw flashcard pushed by the sync client. Word carries the term
// the canonical answer is derived from; Definition is what players see.
type Card struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Example    string `json:"example"`
	Image      string `json:"image"`
}

// Question is one quiz round. The Answer field holds the normalized
// canonical key. Question is never serialized to clients; transports expose
// QuestionView, which withholds the answer.
type Question struct {
	ID        string        `json:"id"`
	Number    int           `json:"number"`
	Prompt    string        `json:"prompt"`
	Example   string        `json:"example"`
	Image     string        `json:"image"`
	Answer    string        `json:"answer"`
	CreatedAt time.Time     `json:"createdAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
	State     QuestionState `json:"state"`
}

// QuestionView is the broadcast/history-safe projection of a Question.
type QuestionView struct {
	ID        string    `json:"id"`
	Number    int       `json:"number"`
	Prompt    string    `json:"question"`
	Example   string    `json:"example"`
	Image     string    `json:"image"`
	ExpiresAt time.Time `json:"endTime"`
	TimeoutMS int64     `json:"timeout"`
}

// AnswerResult summarizes one submission. Correct is reported even for
// late answers; Scored only when the answer earned credit.
type AnswerResult struct {
	UserID     string `json:"user"`
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Scored     bool   `json:"scored"`
}

// SessionStatus lets a reconnecting client resynchronize against the
// newest question.
type SessionStatus struct {
	Active                   bool `json:"active"`
	AlreadyAnsweredCorrectly bool `json:"alreadyAnsweredCorrectly"`
	Expired                  bool `json:"expired"`
}

// ScoreEntry is one leaderboard row.
type ScoreEntry struct {
	UserID string `json:"user"`
	Score  int    `json:"score"`
}

// EventType names the outbound event kinds.
type EventType string

const (
	EventQuestion     EventType = "new_question"
	EventQuestionEnd  EventType = "question_end"
	EventAnswerResult EventType = "answer_result"
)

// Event is the outbound fan-out envelope consumed by the transport layer.
// Exactly one payload field is set, matching Type.
type Event struct {
	Type     EventType     `json:"type"`
	Question *QuestionView `json:"question,omitempty"`
	Expired  string        `json:"questionId,omitempty"`
	Answer   *AnswerResult `json:"answer,omitempty"`
}
