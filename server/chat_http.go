package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/shukalink/agrolink/agent/contract"
	"github.com/shukalink/agrolink/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ChatHandler serves the session REST API and the voice note upload.
type ChatHandler struct {
	agent       Agent
	store       session.Store
	directory   UserDirectory
	transcriber contractx.Transcriber
	mgr         *ConnManager
	turnTimeout time.Duration
	log         zerolog.Logger
}

func NewChatHandler(agent Agent, store session.Store, directory UserDirectory, transcriber contractx.Transcriber, mgr *ConnManager, cfg Config) *ChatHandler {
	return &ChatHandler{
		agent:       agent,
		store:       store,
		directory:   directory,
		transcriber: transcriber,
		mgr:         mgr,
		turnTimeout: cfg.TurnTimeout,
		log:         log.With().Str("component", "chat-api").Logger(),
	}
}

func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.listSessions)
	r.Delete("/sessions/{sessionID}", h.deleteSession)
	r.Get("/history", h.history)
	r.Get("/active-session", h.activeSession)
	r.Post("/voice", h.voice)
}

type sessionSummaryResponse struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
	LastMessage  string    `json:"last_message,omitempty"`
}

func (h *ChatHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	sums, err := h.store.Sessions(r.Context(), userID, 10)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("session list failed")
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	out := make([]sessionSummaryResponse, 0, len(sums))
	for _, s := range sums {
		out = append(out, sessionSummaryResponse{
			SessionID:    s.ID,
			CreatedAt:    s.CreatedAt,
			LastActivity: s.UpdatedAt,
			MessageCount: s.TurnCount,
			LastMessage:  s.LastMessage,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ChatHandler) deleteSession(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	err := h.store.Delete(r.Context(), userID, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("session delete failed")
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "Session deleted successfully",
		"session_id": sessionID,
	})
}

type turnResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func turnResponses(turns []session.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnResponse{Role: string(t.Role), Content: t.Content, Timestamp: t.CreatedAt})
	}
	return out
}

func (h *ChatHandler) history(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	turns, err := h.store.History(r.Context(), userID, sessionID, session.DefaultWindow)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("history load failed")
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":     sessionID,
		"messages":       turnResponses(turns),
		"total_messages": len(turns),
	})
}

// activeSession returns the user's most recent session with its history,
// creating a fresh one for first-time users.
func (h *ChatHandler) activeSession(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	sessionID, err := h.store.ActiveSession(r.Context(), userID)
	if errors.Is(err, session.ErrNotFound) {
		sessionID, err = h.store.GetOrCreate(r.Context(), userID, "")
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("active session resolution failed")
		writeError(w, http.StatusInternalServerError, "failed to resolve session")
		return
	}

	turns, err := h.store.History(r.Context(), userID, sessionID, session.DefaultWindow)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("history load failed")
		turns = nil
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":    sessionID,
		"messages":      turnResponses(turns),
		"message_count": len(turns),
	})
}

// voice accepts a multipart voice note, transcribes it, runs the agent,
// and mirrors the exchange to the user's websocket when one is connected.
func (h *ChatHandler) voice(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	if h.transcriber == nil {
		writeError(w, http.StatusServiceUnavailable, "voice transcription is not configured")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.Contains(strings.ToLower(ct), "audio") {
		writeError(w, http.StatusBadRequest, "File must be an audio file")
		return
	}

	sessionID := r.FormValue("session_id")
	created := sessionID == ""
	sessionID, err = h.store.GetOrCreate(r.Context(), userID, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Invalid session_id")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("session resolution failed")
		writeError(w, http.StatusInternalServerError, "failed to resolve session")
		return
	}
	if created {
		h.mgr.Push(r.Context(), userID, wsFrame{Type: "session_created", SessionID: sessionID, Timestamp: nowStamp()})
	}

	transcription, err := h.transcriber.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("transcription failed")
		writeError(w, http.StatusInternalServerError, "Transcription failed")
		return
	}
	if transcription == "" {
		writeError(w, http.StatusUnprocessableEntity, "could not understand the voice note")
		return
	}

	h.mgr.Push(r.Context(), userID, wsFrame{
		Type:          "voice_transcription",
		Transcription: transcription,
		SessionID:     sessionID,
		Timestamp:     nowStamp(),
	})

	turns, err := h.store.History(r.Context(), userID, sessionID, session.DefaultWindow)
	if err != nil {
		turns = nil
	}
	info, _ := h.directory.Lookup(r.Context(), userID)
	reply := runTurn(r.Context(), h.agent, h.turnTimeout, userID, info, session.ToMessages(turns), transcription)

	if err := h.store.AppendExchange(r.Context(), userID, sessionID, transcription, reply); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("exchange persistence failed")
	}

	h.mgr.Push(r.Context(), userID, wsFrame{
		Type:      "ai_message",
		Content:   reply,
		SessionID: sessionID,
		Timestamp: nowStamp(),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":    sessionID,
		"transcription": transcription,
		"response":      reply,
	})
}
