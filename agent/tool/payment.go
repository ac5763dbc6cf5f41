package tool

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

func paymentInfoSpec() Spec {
	return Spec{
		Name:        ToolPaymentInfo,
		Description: "Get information about payments, transaction history, or payment status.",
		Parameters: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The payment question, e.g. \"check my payment status\"",
			},
		},
		Required: []string{"query"},
	}
}

func processPaymentSpec() Spec {
	return Spec{
		Name:        ToolProcessPayment,
		Description: "Initiate a payment. The amount MUST be a number, not a string. Call only with a specific numeric amount.",
		Parameters: map[string]any{
			"amount": map[string]any{
				"type":        "number",
				"description": "The amount to pay as a number, e.g. 5000.50",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "What the payment is for, e.g. \"Payment for tomatoes delivery\"",
			},
		},
		Required: []string{"amount", "description"},
	}
}

func executePaymentInfo(args map[string]any) contractx.ToolResult {
	query, ok := stringArg(args, "query")
	if !ok {
		return contractx.ToolResult{Error: "query is required"}
	}

	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "status") || strings.Contains(lower, "confirm") || strings.Contains(lower, "verify"):
		return contractx.ToolResult{
			Result: "Your most recent payment is pending: payment initiated, awaiting confirmation. You will be notified once it is confirmed.",
		}
	case strings.Contains(lower, "history") || strings.Contains(lower, "past") || strings.Contains(lower, "previous"):
		return contractx.ToolResult{
			Result: "Your payment history shows no completed transactions in the last 30 days. Completed payments appear here with their references.",
		}
	case strings.Contains(lower, "method") || strings.Contains(lower, "option"):
		return contractx.ToolResult{
			Result: "Available payment methods: bank transfer, mobile money, and cash on delivery. Card payments are processed through our secure gateway.",
		}
	default:
		return contractx.ToolResult{
			Result: "*AgroLink Payment Services*\n\nSecure payment options for your transactions: bank transfer, mobile money, and cash on delivery. Ask about status, history, or methods for details.",
		}
	}
}

// executeProcessPayment is the one commitment-style payment action; a
// non-numeric or missing amount blocks the call before any reference is
// generated.
func executeProcessPayment(args map[string]any) contractx.ToolResult {
	amount, err := numericAmount(args["amount"])
	if err != nil {
		return contractx.ToolResult{Error: err.Error()}
	}
	description, ok := stringArg(args, "description")
	if !ok {
		return contractx.ToolResult{Error: "description is required"}
	}

	ref := "PAY-" + strings.ToUpper(uuid.NewString()[:8])
	return contractx.ToolResult{
		Result: fmt.Sprintf(
			"Payment link generated for N%.2f (ref %s). Description: %s. Please follow the link sent to your WhatsApp to complete the transaction.",
			amount, ref, description,
		),
	}
}

func numericAmount(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("amount is required and must be a number")
	case float64:
		if v <= 0 {
			return 0, fmt.Errorf("amount must be greater than zero")
		}
		return v, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil || f <= 0 {
			return 0, fmt.Errorf("amount must be a positive number")
		}
		return f, nil
	case string:
		return 0, fmt.Errorf("amount must be a number, got string %q", v)
	default:
		return 0, fmt.Errorf("amount must be a number, got %T", raw)
	}
}
