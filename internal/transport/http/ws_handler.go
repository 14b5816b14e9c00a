package http

import (
	"encoding/json"
	"log"
	"net/http"

	"carpet-quiz-service/internal/app"
	"carpet-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler drives one quiz session per websocket connection. The protocol
// is strictly request/response: the single read loop is the only goroutine
// touching the session, which keeps its transitions single-threaded.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
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

type startPayload struct {
	Questions int    `json:"questions"`
	Mode      string `json:"mode"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type submitScorePayload struct {
	Name string `json:"name"`
}

type scoreRecorded struct {
	Recorded bool `json:"recorded"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz
// use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	defer h.service.EndSession(playerID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		h.handle(conn, r, playerID, inbound)
	}
}

func (h *WSHandler) handle(conn *websocket.Conn, r *http.Request, playerID string, inbound inboundMessage) {
	ctx := r.Context()

	switch inbound.Type {
	case "start", "restart":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(conn, "invalid start payload")
			return
		}
		cfg := domain.SessionConfig{Questions: payload.Questions, Mode: domain.Mode(payload.Mode)}
		view, err := h.service.StartSession(ctx, playerID, cfg)
		if err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.send(conn, "question", view)

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(conn, "invalid answer payload")
			return
		}
		result, err := h.service.SubmitAnswer(ctx, playerID, payload.Answer)
		if err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.send(conn, "answerResult", result)
		if !result.Final {
			// Two-step mode: follow up with the area-type question.
			view, err := h.service.Question(ctx, playerID)
			if err != nil {
				h.sendError(conn, err.Error())
				return
			}
			h.send(conn, "question", view)
		}

	case "advance":
		view, completion, err := h.service.Advance(ctx, playerID)
		if err != nil {
			h.sendError(conn, err.Error())
			return
		}
		if completion != nil {
			h.send(conn, "complete", *completion)
			return
		}
		h.send(conn, "question", *view)

	case "leaderboard":
		h.send(conn, "leaderboard", h.service.Leaderboard(ctx))

	case "submitScore":
		var payload submitScorePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(conn, "invalid submitScore payload")
			return
		}
		recorded, err := h.service.SubmitScore(ctx, playerID, payload.Name)
		if err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.send(conn, "scoreRecorded", scoreRecorded{Recorded: recorded})

	default:
		h.sendError(conn, "unsupported message type")
	}
}

func (h *WSHandler) send(conn *websocket.Conn, msgType string, payload any) {
	if err := conn.WriteJSON(outboundMessage[any]{Type: msgType, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, "error", errorPayload{Message: message})
}
