package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shukalink/agrolink/session"
)

// wsFrame is the wire format in both directions. Inbound frames use Type
// and Content (plus SessionID to continue a conversation); outbound frames
// are ai_message, session_created, voice_transcription, and error.
type wsFrame struct {
	Type          string `json:"type"`
	Content       string `json:"content,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	Transcription string `json:"transcription,omitempty"`
	Error         string `json:"error,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ChatSocketHandler is the realtime chat channel. Frames on one
// connection are processed serially; ordering within a session follows
// from that.
type ChatSocketHandler struct {
	agent         Agent
	store         session.Store
	directory     UserDirectory
	mgr           *ConnManager
	allowedOrigin string
	dev           bool
	turnTimeout   time.Duration
	log           zerolog.Logger
}

func NewChatSocketHandler(agent Agent, store session.Store, directory UserDirectory, mgr *ConnManager, cfg Config) *ChatSocketHandler {
	return &ChatSocketHandler{
		agent:         agent,
		store:         store,
		directory:     directory,
		mgr:           mgr,
		allowedOrigin: cfg.AllowedOrigin,
		dev:           cfg.Dev,
		turnTimeout:   cfg.TurnTimeout,
		log:           log.With().Str("component", "chat-ws").Logger(),
	}
}

func (h *ChatSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	if !h.originAllowed(r) {
		writeError(w, http.StatusForbidden, "origin not allowed")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("websocket accept failed")
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "session ended")

	h.mgr.Register(userID, ws)
	defer h.mgr.Unregister(userID, ws)
	h.log.Info().Str("user_id", userID).Msg("chat connected")

	ctx := r.Context()
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				h.log.Debug().Str("user_id", userID).Msg("chat disconnected")
			} else {
				h.log.Warn().Err(err).Str("user_id", userID).Msg("websocket read error")
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.send(ctx, ws, wsFrame{Type: "error", Error: "Invalid JSON format"})
			continue
		}

		switch frame.Type {
		case "text_message":
			h.handleText(ctx, ws, userID, frame)
		case "typing":
			// ignored; nothing to broadcast yet
		default:
			h.send(ctx, ws, wsFrame{Type: "error", Error: "Unknown message type: " + frame.Type})
		}
	}
}

func (h *ChatSocketHandler) handleText(ctx context.Context, ws *websocket.Conn, userID string, frame wsFrame) {
	content := strings.TrimSpace(frame.Content)
	if content == "" {
		h.send(ctx, ws, wsFrame{Type: "error", Error: "Message content cannot be empty"})
		return
	}

	sessionID := frame.SessionID
	created := sessionID == ""

	sessionID, err := h.store.GetOrCreate(ctx, userID, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		h.send(ctx, ws, wsFrame{Type: "error", Error: "Invalid session_id"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("session resolution failed")
		h.send(ctx, ws, wsFrame{Type: "error", Error: "Failed to process message"})
		return
	}

	if created {
		h.send(ctx, ws, wsFrame{Type: "session_created", SessionID: sessionID, Timestamp: nowStamp()})
	}

	turns, err := h.store.History(ctx, userID, sessionID, session.DefaultWindow)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("history load failed")
		turns = nil
	}

	info, _ := h.directory.Lookup(ctx, userID)
	reply := runTurn(ctx, h.agent, h.turnTimeout, userID, info, session.ToMessages(turns), content)

	if err := h.store.AppendExchange(ctx, userID, sessionID, content, reply); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("exchange persistence failed")
	}

	h.send(ctx, ws, wsFrame{
		Type:      "ai_message",
		Content:   reply,
		SessionID: sessionID,
		Timestamp: nowStamp(),
	})
}

func (h *ChatSocketHandler) send(ctx context.Context, ws *websocket.Conn, frame wsFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.log.Error().Err(err).Msg("frame marshal failed")
		return
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		h.log.Debug().Err(err).Msg("frame write failed")
	}
}

func (h *ChatSocketHandler) originAllowed(r *http.Request) bool {
	if h.dev || h.allowedOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || origin == h.allowedOrigin {
		return true
	}
	h.log.Warn().Str("origin", origin).Msg("websocket origin rejected")
	return false
}
