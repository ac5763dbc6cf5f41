// Package specialist implements the tool-calling domain agents and the
// registry that maps routes to them.
package specialist

import (
	openaisdk "github.com/openai/openai-go/v2"

	contractx "github.com/shukalink/agrolink/agent/contract"
	"github.com/shukalink/agrolink/agent/llm"
	promptx "github.com/shukalink/agrolink/agent/prompt"
)

// Registry holds the closed set of specialists. Routes outside it simply
// resolve to nothing; the turn loop treats that as Finish.
type Registry struct {
	specialists map[contractx.Route]contractx.Specialist
}

// NewRegistry builds the three domain specialists over a shared client.
// A nil client yields a registry whose specialists report not-configured
// on invoke, so callers can degrade gracefully.
func NewRegistry(client *openaisdk.Client, cfg llm.Config, prompts promptx.PromptSet) *Registry {
	build := func(route contractx.Route, systemPrompt string) contractx.Specialist {
		model, temp := cfg.ModelFor(route)
		return newSpecialist(route, client, model, temp, cfg.MaxCompletionToken, systemPrompt)
	}

	return &Registry{
		specialists: map[contractx.Route]contractx.Specialist{
			contractx.RouteAdvisory:  build(contractx.RouteAdvisory, prompts.Advisory),
			contractx.RouteLogistics: build(contractx.RouteLogistics, prompts.Logistics),
			contractx.RouteSales:     build(contractx.RouteSales, prompts.Sales),
		},
	}
}

// Specialist resolves a route to its agent.
func (r *Registry) Specialist(route contractx.Route) (contractx.Specialist, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.specialists[route]
	return s, ok
}
