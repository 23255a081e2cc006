package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"flashquiz-service/internal/domain"
	"flashquiz-service/internal/quiz"
)

type WSHandler struct {
	session  *quiz.Coordinator
	upgrader websocket.Upgrader
}

func NewWSHandler(session *quiz.Coordinator) *WSHandler {
	return &WSHandler{
		session: session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	IsCurrent  bool   `json:"isCurrent"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type expiredPayload struct {
	QuestionID string `json:"questionId"`
}

// ServeWS upgrades HTTP requests to websockets, pushes a resync snapshot,
// fans out session events, and feeds answer submissions into the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundEvent(ev):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Resync snapshot: the newest question's status, and the question
	// itself if it still accepts answers.
	send <- outboundMessage[any]{Type: "status", Payload: h.session.CurrentStatus(user)}
	if active, ok := h.session.ActiveQuestion(); ok {
		send <- outboundMessage[any]{Type: string(domain.EventQuestion), Payload: active}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			// The result, if judged, reaches every client through the
			// event stream; swallowed submissions get no reply at all.
			h.session.SubmitAnswer(user, payload.QuestionID, payload.Answer, payload.IsCurrent)
		case "status":
			send <- outboundMessage[any]{Type: "status", Payload: h.session.CurrentStatus(user)}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func outboundEvent(ev domain.Event) outboundMessage[any] {
	switch ev.Type {
	case domain.EventQuestion:
		return outboundMessage[any]{Type: string(ev.Type), Payload: ev.Question}
	case domain.EventQuestionEnd:
		return outboundMessage[any]{Type: string(ev.Type), Payload: expiredPayload{QuestionID: ev.Expired}}
	case domain.EventAnswerResult:
		return outboundMessage[any]{Type: string(ev.Type), Payload: ev.Answer}
	default:
		return outboundMessage[any]{Type: string(ev.Type)}
	}
}
