package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"flashquiz-service/internal/archive"
	"flashquiz-service/internal/domain"
	"flashquiz-service/internal/quiz"
)

// APIHandler serves the sync client's ingest endpoint and the read-only
// history/scores routes.
type APIHandler struct {
	session    *quiz.Coordinator
	archiver   *archive.Archiver
	syncSecret string
}

func NewAPIHandler(session *quiz.Coordinator, archiver *archive.Archiver, syncSecret string) *APIHandler {
	return &APIHandler{session: session, archiver: archiver, syncSecret: syncSecret}
}

// ReceiveCard accepts a flashcard push and publishes it as the next
// question. Authentication lives here at the ingest boundary, not in the
// quiz core.
func (h *APIHandler) ReceiveCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.syncSecret == "" || r.Header.Get("Authorization") != "Bearer "+h.syncSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var card domain.Card
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid card payload"})
		return
	}

	q, err := h.session.Publish(card)
	if err != nil {
		if errors.Is(err, domain.ErrMissingWord) || errors.Is(err, domain.ErrMissingDefinition) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "publish failed"})
		return
	}

	if h.archiver != nil {
		h.archiver.RecordQuestion(q)
	}
	log.Printf("published question %s (#%d)", q.ID, q.Number)
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// Questions returns the retained history, newest first, answers withheld.
func (h *APIHandler) Questions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.session.History())
}

// Scores returns the ranked leaderboard.
func (h *APIHandler) Scores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Top())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
