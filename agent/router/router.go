// Package router implements the supervisor that assigns an inbound turn to
// one specialist capability.
package router

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

// Completer is the single-exchange reasoning call the supervisor needs.
type Completer interface {
	Complete(ctx context.Context, model string, temperature float64, system, user string) (string, error)
}

// Supervisor classifies the inbound user message of an invocation into a
// route. It never sees tool exchanges or specialist replies: once a turn
// has been routed, the decision stands for the rest of that invocation.
type Supervisor struct {
	completer   Completer
	prompt      string
	model       string
	temperature float64
	log         zerolog.Logger
}

func New(completer Completer, systemPrompt, model string, temperature float64) *Supervisor {
	return &Supervisor{
		completer:   completer,
		prompt:      systemPrompt,
		model:       model,
		temperature: temperature,
		log:         log.With().Str("component", "supervisor").Logger(),
	}
}

// Route classifies the latest user message. Every failure mode degrades
// to RouteFinish; the error return is always nil because a routing problem
// must never fail the turn.
func (s *Supervisor) Route(ctx context.Context, st *contractx.AgentState) (contractx.Route, error) {
	inbound := strings.TrimSpace(st.LatestUserMessage())
	if inbound == "" || s.completer == nil {
		return contractx.RouteFinish, nil
	}

	reply, err := s.completer.Complete(ctx, s.model, s.temperature, s.prompt, inbound)
	if err != nil {
		s.log.Warn().Err(err).Msg("classification failed, defaulting to finish")
		return contractx.RouteFinish, nil
	}
	return ParseRoute(reply), nil
}

// ParseRoute maps a one-word classifier reply onto a route, tolerating
// surrounding chatter. Anything unrecognized is Finish.
func ParseRoute(reply string) contractx.Route {
	upper := strings.ToUpper(reply)
	switch {
	case strings.Contains(upper, "ADVISORY"):
		return contractx.RouteAdvisory
	case strings.Contains(upper, "LOGISTICS"):
		return contractx.RouteLogistics
	case strings.Contains(upper, "SALES"), strings.Contains(upper, "PAYMENT"):
		return contractx.RouteSales
	default:
		return contractx.RouteFinish
	}
}
