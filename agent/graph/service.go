package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

// User-facing degradation replies. Every inbound message gets exactly one
// of these or a real agent answer; the service never surfaces an error to
// the channel adapters.
const (
	ReplyNotConfigured = "System is currently initializing or missing configuration. Please try again later."
	ReplyFailure       = "I encountered an error while processing your request. Please try again or rephrase your question."
	ReplyNoAnswer      = "I processed your request but didn't generate a response."
)

// Service is the channel-facing entry point: one inbound message in, one
// reply string out.
type Service struct {
	graph *Graph
	ready bool
	log   zerolog.Logger
}

// NewService wraps a graph. ready=false means no reasoning provider is
// configured and every message gets the initializing reply.
func NewService(g *Graph, ready bool) *Service {
	return &Service{
		graph: g,
		ready: ready,
		log:   log.With().Str("component", "agent-service").Logger(),
	}
}

// Process runs one turn. history is the prior conversation window, oldest
// first; userText is the new inbound message. The returned string is
// always deliverable.
func (s *Service) Process(ctx context.Context, userID string, info contractx.UserInfo, history []contractx.Message, userText string) string {
	text := strings.TrimSpace(userText)
	if text == "" {
		return ReplyNoAnswer
	}
	if s == nil || s.graph == nil || !s.ready {
		return ReplyNotConfigured
	}

	st := &contractx.AgentState{
		Messages: append(append([]contractx.Message{}, history...), contractx.Message{
			Role:    contractx.RoleUser,
			Content: text,
		}),
		UserID:   userID,
		UserInfo: info,
	}

	if err := s.graph.Run(ctx, st); err != nil {
		switch {
		case errors.Is(err, contractx.ErrNotConfigured):
			return ReplyNotConfigured
		case errors.Is(err, contractx.ErrStepBudget):
			s.log.Error().Err(err).Str("user_id", userID).Msg("turn exceeded step budget")
			return ReplyFailure
		default:
			s.log.Error().Err(err).Str("user_id", userID).Msg("turn failed")
			return ReplyFailure
		}
	}

	if reply := strings.TrimSpace(st.LastAssistantText()); reply != "" {
		return reply
	}
	return ReplyNoAnswer
}
