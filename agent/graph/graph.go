// Package graph drives one invocation of the agent team: a supervisor
// routing step, then a bounded specialist/tool loop, then finish.
package graph

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

// DefaultMaxSteps bounds the specialist/tool loop. Each specialist
// reasoning call and each tool batch counts as one step.
const DefaultMaxSteps = 12

// node is an explicit position in the turn loop.
type node int

const (
	nodeSupervisor node = iota
	nodeSpecialist
	nodeTools
	nodeFinish
)

// Graph executes a single turn. It is stateless across invocations; all
// turn state lives in the AgentState passed to Run.
type Graph struct {
	router   contractx.Router
	registry contractx.Registry
	tools    contractx.ToolGateway
	maxSteps int
	log      zerolog.Logger
}

func New(router contractx.Router, registry contractx.Registry, tools contractx.ToolGateway, maxSteps int) *Graph {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Graph{
		router:   router,
		registry: registry,
		tools:    tools,
		maxSteps: maxSteps,
		log:      log.With().Str("component", "graph").Logger(),
	}
}

// Run routes the turn once, then alternates specialist reasoning with
// tool execution until the specialist answers in plain text or the step
// budget runs out. On success st.Next is RouteFinish and the reply is the
// last assistant message.
func (g *Graph) Run(ctx context.Context, st *contractx.AgentState) error {
	if g == nil || g.router == nil || g.registry == nil {
		return contractx.ErrNotConfigured
	}

	var (
		current    = nodeSupervisor
		specialist contractx.Specialist
		pending    []contractx.ToolCall
		steps      = 0
	)

	for current != nodeFinish {
		if err := ctx.Err(); err != nil {
			return err
		}
		if steps++; steps > g.maxSteps {
			return fmt.Errorf("%w: exceeded %d steps", contractx.ErrStepBudget, g.maxSteps)
		}

		switch current {
		case nodeSupervisor:
			route, err := g.router.Route(ctx, st)
			if err != nil {
				return err
			}
			st.Next = route
			g.log.Debug().Str("route", string(route)).Str("user_id", st.UserID).Msg("turn routed")

			s, ok := g.registry.Specialist(route)
			if !ok {
				current = nodeFinish
				continue
			}
			specialist = s
			current = nodeSpecialist

		case nodeSpecialist:
			msg, err := specialist.Invoke(ctx, st)
			if err != nil {
				return err
			}
			st.Append(msg)
			if len(msg.ToolCalls) == 0 {
				current = nodeFinish
				continue
			}
			pending = msg.ToolCalls
			current = nodeTools

		case nodeTools:
			results, err := g.tools.Execute(ctx, st.Next, pending)
			if err != nil {
				// The specialist allow-list makes this unreachable in
				// practice; still deliver something rather than fail the turn.
				g.log.Error().Err(err).Msg("tool execution rejected")
				st.Append(contractx.Message{
					Role:    contractx.RoleAssistant,
					Content: "I encountered an error while processing your request. Please try again or rephrase your question.",
				})
				current = nodeFinish
				continue
			}
			for _, res := range results {
				st.Append(toolMessage(res))
			}
			pending = nil
			current = nodeSpecialist
		}
	}

	st.Next = contractx.RouteFinish
	return nil
}

// toolMessage encodes one tool outcome as a turn-log entry paired to its
// originating call.
func toolMessage(res contractx.ToolResult) contractx.Message {
	content := res.Result
	if res.Error != "" {
		content = fmt.Sprintf("Error: %s", res.Error)
	}
	return contractx.Message{
		Role:       contractx.RoleTool,
		Content:    content,
		ToolCallID: res.CallID,
	}
}
