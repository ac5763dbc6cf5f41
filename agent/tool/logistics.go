package tool

import (
	"fmt"
	"strings"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

// Per-bag transport rates in naira.
const (
	rateLocal    = 500
	rateRegional = 1500
	rateNational = 3000
)

func transportInfoSpec() Spec {
	return Spec{
		Name:        ToolTransportInfo,
		Description: "Get information about transport rates, availability, and delivery status. Use for questions about transport costs or tracking.",
		Parameters: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The transport question, e.g. \"cost to transport to Kano\"",
			},
		},
		Required: []string{"query"},
	}
}

func scheduleTransportSpec() Spec {
	return Spec{
		Name:        ToolScheduleTransport,
		Description: "Schedule a transport pickup for produce. Call only when produce, quantity, and destination are all known; otherwise ask the user first.",
		Parameters: map[string]any{
			"produce": map[string]any{
				"type":        "string",
				"description": "The type of produce, e.g. \"maize\"",
			},
			"quantity": map[string]any{
				"type":        "string",
				"description": "The quantity to transport, e.g. \"50 bags\"",
			},
			"destination": map[string]any{
				"type":        "string",
				"description": "The delivery destination, e.g. \"Kano market\"",
			},
		},
		Required: []string{"produce", "quantity", "destination"},
	}
}

func executeTransportInfo(args map[string]any) contractx.ToolResult {
	query, ok := stringArg(args, "query")
	if !ok {
		return contractx.ToolResult{Error: "query is required"}
	}

	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "rate") || strings.Contains(lower, "price") || strings.Contains(lower, "cost"):
		return contractx.ToolResult{Result: transportRates(lower)}
	case strings.Contains(lower, "track") || strings.Contains(lower, "status") || strings.Contains(lower, "delivery"):
		return contractx.ToolResult{
			Result: "To track a delivery, share your order reference. Current statuses: pending (awaiting pickup), in transit, delivered, or delayed.",
		}
	default:
		return contractx.ToolResult{
			Result: fmt.Sprintf(
				"*AgroLink Logistics Services*\n\nWe provide reliable transport for your produce:\n- Local transport: N%d per bag\n- Regional transport: N%d per bag\n- National transport: N%d per bag\n\nTell me the produce, quantity, and destination to schedule a pickup.",
				rateLocal, rateRegional, rateNational,
			),
		}
	}
}

func transportRates(query string) string {
	switch {
	case strings.Contains(query, "local"):
		return fmt.Sprintf("Local transport rate: N%d per bag", rateLocal)
	case strings.Contains(query, "national") || strings.Contains(query, "country"):
		return fmt.Sprintf("National transport rate: N%d per bag", rateNational)
	default:
		return fmt.Sprintf("Regional transport rate: N%d per bag", rateRegional)
	}
}

func executeScheduleTransport(args map[string]any) contractx.ToolResult {
	var missing []string
	produce, ok := stringArg(args, "produce")
	if !ok {
		missing = append(missing, "produce")
	}
	quantity, ok := stringArg(args, "quantity")
	if !ok {
		missing = append(missing, "quantity")
	}
	destination, ok := stringArg(args, "destination")
	if !ok {
		missing = append(missing, "destination")
	}
	if len(missing) > 0 {
		return contractx.ToolResult{
			Error: fmt.Sprintf("cannot schedule transport: missing %s", strings.Join(missing, ", ")),
		}
	}

	return contractx.ToolResult{
		Result: fmt.Sprintf(
			"Transport request received for %s of %s to %s. A driver will contact you shortly at your registered phone number.",
			quantity, produce, destination,
		),
	}
}
