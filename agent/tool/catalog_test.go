package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

func TestForRouteToolSets(t *testing.T) {
	t.Parallel()

	advisory := ForRoute(contractx.RouteAdvisory)
	if len(advisory) != 1 || advisory[0].Name != ToolCropAdvice {
		t.Fatalf("unexpected advisory tool set: %+v", advisory)
	}

	logistics := ForRoute(contractx.RouteLogistics)
	if len(logistics) != 2 {
		t.Fatalf("expected 2 logistics tools, got %d", len(logistics))
	}
	if logistics[0].Name != ToolTransportInfo || logistics[1].Name != ToolScheduleTransport {
		t.Fatalf("unexpected logistics tools: %s, %s", logistics[0].Name, logistics[1].Name)
	}

	sales := ForRoute(contractx.RouteSales)
	if len(sales) != 2 {
		t.Fatalf("expected 2 sales tools, got %d", len(sales))
	}

	if got := ForRoute(contractx.RouteFinish); got != nil {
		t.Fatalf("expected no tools for finish route, got %+v", got)
	}
}

func TestExecuteRejectsUnknownTool(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	_, err := c.Execute(context.Background(), contractx.RouteAdvisory, []contractx.ToolCall{
		{ID: "c1", Name: "drop_tables", Args: map[string]any{}},
	})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestExecuteRejectsToolOutsideRouteSet(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	_, err := c.Execute(context.Background(), contractx.RouteAdvisory, []contractx.ToolCall{
		{ID: "c1", Name: ToolProcessPayment, Args: map[string]any{"amount": 100.0, "description": "x"}},
	})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestExecutePairsResultWithCall(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	results, err := c.Execute(context.Background(), contractx.RouteAdvisory, []contractx.ToolCall{
		{ID: "call-7", Name: ToolCropAdvice, Args: map[string]any{"query": "maize pests"}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].CallID != "call-7" || results[0].Tool != ToolCropAdvice {
		t.Fatalf("result not paired with call: %+v", results[0])
	}
	if results[0].Error != "" {
		t.Fatalf("unexpected tool error: %s", results[0].Error)
	}
	if !strings.Contains(results[0].Result, "stem borers") {
		t.Fatalf("unexpected advice: %s", results[0].Result)
	}
}
