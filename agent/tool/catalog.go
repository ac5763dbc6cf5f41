package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

// Tool identifiers. The set is closed: anything outside it is rejected at
// the gateway boundary instead of failing a dynamic lookup.
const (
	ToolCropAdvice        = "get_crop_advice"
	ToolTransportInfo     = "get_transport_info"
	ToolScheduleTransport = "schedule_transport"
	ToolPaymentInfo       = "get_payment_info"
	ToolProcessPayment    = "process_payment"
)

type handler func(args map[string]any) contractx.ToolResult

// Spec describes one tool to the reasoning model: name, purpose, and a
// JSON-schema parameter object.
type Spec struct {
	Name        string
	Description string
	Parameters  map[string]any
	Required    []string
}

// ForRoute returns the tool specs a specialist is allowed to bind. The
// sets are disjoint apart from being empty for Finish.
func ForRoute(route contractx.Route) []Spec {
	switch route {
	case contractx.RouteAdvisory:
		return []Spec{cropAdviceSpec()}
	case contractx.RouteLogistics:
		return []Spec{transportInfoSpec(), scheduleTransportSpec()}
	case contractx.RouteSales:
		return []Spec{paymentInfoSpec(), processPaymentSpec()}
	default:
		return nil
	}
}

// Catalog is the closed tool registry implementing contract.ToolGateway.
// Each name is bound at construction to a typed handler; routes only reach
// the handlers in their own set.
type Catalog struct {
	handlers map[string]handler
	routes   map[contractx.Route]map[string]struct{}
	log      zerolog.Logger
}

func NewCatalog() *Catalog {
	c := &Catalog{
		handlers: map[string]handler{
			ToolCropAdvice:        executeCropAdvice,
			ToolTransportInfo:     executeTransportInfo,
			ToolScheduleTransport: executeScheduleTransport,
			ToolPaymentInfo:       executePaymentInfo,
			ToolProcessPayment:    executeProcessPayment,
		},
		routes: make(map[contractx.Route]map[string]struct{}),
		log:    log.With().Str("component", "tool_catalog").Logger(),
	}
	for _, route := range []contractx.Route{contractx.RouteAdvisory, contractx.RouteLogistics, contractx.RouteSales} {
		allowed := make(map[string]struct{})
		for _, spec := range ForRoute(route) {
			allowed[spec.Name] = struct{}{}
		}
		c.routes[route] = allowed
	}
	return c
}

func (c *Catalog) Execute(ctx context.Context, route contractx.Route, calls []contractx.ToolCall) ([]contractx.ToolResult, error) {
	allowed, ok := c.routes[route]
	if !ok {
		return nil, fmt.Errorf("%w: route=%s has no tool set", contractx.ErrValidation, route)
	}

	results := make([]contractx.ToolResult, 0, len(calls))
	for _, call := range calls {
		if _, known := c.handlers[call.Name]; !known {
			return nil, fmt.Errorf("%w: unknown tool=%s", contractx.ErrSchemaViolation, call.Name)
		}
		if _, permitted := allowed[call.Name]; !permitted {
			return nil, fmt.Errorf("%w: tool=%s is not allowed for route=%s", contractx.ErrSchemaViolation, call.Name, route)
		}

		out := c.handlers[call.Name](call.Args)
		out.CallID = call.ID
		out.Tool = call.Name
		if out.Error != "" {
			c.log.Warn().Str("tool", call.Name).Str("error", out.Error).Msg("tool returned error result")
		}
		results = append(results, out)
	}
	return results, nil
}

// stringArg extracts a required non-empty string argument.
func stringArg(args map[string]any, key string) (string, bool) {
	raw, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}
