package tool

import (
	"strings"
	"testing"
)

func TestProcessPaymentNumericAmount(t *testing.T) {
	t.Parallel()

	out := executeProcessPayment(map[string]any{
		"amount":      5000.0,
		"description": "Payment for tomatoes delivery",
	})
	if out.Error != "" {
		t.Fatalf("unexpected error: %s", out.Error)
	}
	if !strings.Contains(out.Result, "N5000.00") {
		t.Fatalf("confirmation missing amount: %s", out.Result)
	}
	if !strings.Contains(out.Result, "PAY-") {
		t.Fatalf("confirmation missing payment reference: %s", out.Result)
	}
}

func TestProcessPaymentStringAmountBlocked(t *testing.T) {
	t.Parallel()

	out := executeProcessPayment(map[string]any{
		"amount":      "five thousand",
		"description": "Payment for maize",
	})
	if out.Error == "" {
		t.Fatalf("expected error for string amount, got: %s", out.Result)
	}
	if out.Result != "" {
		t.Fatalf("no confirmation may be produced for string amount: %s", out.Result)
	}
	if !strings.Contains(out.Error, "number") {
		t.Fatalf("error is not descriptive: %s", out.Error)
	}
}

func TestProcessPaymentMissingAmountBlocked(t *testing.T) {
	t.Parallel()

	out := executeProcessPayment(map[string]any{"description": "Payment"})
	if out.Error == "" || out.Result != "" {
		t.Fatalf("expected blocking error, got result=%q error=%q", out.Result, out.Error)
	}
}

func TestProcessPaymentNonPositiveAmountBlocked(t *testing.T) {
	t.Parallel()

	out := executeProcessPayment(map[string]any{"amount": 0.0, "description": "x"})
	if out.Error == "" {
		t.Fatal("expected error for zero amount")
	}
}

func TestPaymentInfoStatus(t *testing.T) {
	t.Parallel()

	out := executePaymentInfo(map[string]any{"query": "check my payment status"})
	if out.Error != "" {
		t.Fatalf("unexpected error: %s", out.Error)
	}
	if !strings.Contains(out.Result, "pending") {
		t.Fatalf("unexpected status reply: %s", out.Result)
	}
}
