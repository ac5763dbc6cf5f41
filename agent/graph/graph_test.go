package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/shukalink/agrolink/agent/contract"
	toolx "github.com/shukalink/agrolink/agent/tool"
)

type fakeRouter struct {
	route contractx.Route
	calls int
}

func (f *fakeRouter) Route(ctx context.Context, st *contractx.AgentState) (contractx.Route, error) {
	f.calls++
	return f.route, nil
}

// scriptedSpecialist replays a fixed sequence of messages, one per invoke.
type scriptedSpecialist struct {
	script []contractx.Message
	calls  int
}

func (f *scriptedSpecialist) Invoke(ctx context.Context, st *contractx.AgentState) (contractx.Message, error) {
	defer func() { f.calls++ }()
	if f.calls < len(f.script) {
		return f.script[f.calls], nil
	}
	return contractx.Message{Role: contractx.RoleAssistant, Content: "done"}, nil
}

// loopingSpecialist requests the same tool forever. The step budget has to
// stop it.
type loopingSpecialist struct{ calls int }

func (f *loopingSpecialist) Invoke(ctx context.Context, st *contractx.AgentState) (contractx.Message, error) {
	f.calls++
	return contractx.Message{
		Role:      contractx.RoleAssistant,
		ToolCalls: []contractx.ToolCall{{ID: "loop", Name: toolx.ToolTransportInfo, Args: map[string]any{}}},
	}, nil
}

type fakeRegistry struct {
	specialists map[contractx.Route]contractx.Specialist
}

func (f *fakeRegistry) Specialist(route contractx.Route) (contractx.Specialist, bool) {
	s, ok := f.specialists[route]
	return s, ok
}

func singleRegistry(route contractx.Route, s contractx.Specialist) *fakeRegistry {
	return &fakeRegistry{specialists: map[contractx.Route]contractx.Specialist{route: s}}
}

func userState(text string) *contractx.AgentState {
	return &contractx.AgentState{
		Messages: []contractx.Message{{Role: contractx.RoleUser, Content: text}},
		UserID:   "user-1",
	}
}

func TestRunGreetingFinishesWithoutSpecialist(t *testing.T) {
	t.Parallel()

	router := &fakeRouter{route: contractx.RouteFinish}
	g := New(router, &fakeRegistry{}, toolx.NewCatalog(), 0)

	st := userState("Hello")
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st.Next != contractx.RouteFinish {
		t.Fatalf("Next = %s, want FINISH", st.Next)
	}
	if got := st.LastAssistantText(); got != "" {
		t.Fatalf("no specialist ran but got assistant text %q", got)
	}
	if router.calls != 1 {
		t.Fatalf("router called %d times, want 1", router.calls)
	}
}

func TestRunLogisticsToolLoop(t *testing.T) {
	t.Parallel()

	specialist := &scriptedSpecialist{script: []contractx.Message{
		{
			Role: contractx.RoleAssistant,
			ToolCalls: []contractx.ToolCall{{
				ID:   "call-1",
				Name: toolx.ToolScheduleTransport,
				Args: map[string]any{"produce": "maize", "quantity": "10 bags", "destination": "Kano"},
			}},
		},
		{Role: contractx.RoleAssistant, Content: "Your transport for 10 bags of maize to Kano is booked."},
	}}

	router := &fakeRouter{route: contractx.RouteLogistics}
	g := New(router, singleRegistry(contractx.RouteLogistics, specialist), toolx.NewCatalog(), 0)

	st := userState("I need transport for 10 bags of maize to Kano")
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if specialist.calls != 2 {
		t.Fatalf("specialist invoked %d times, want 2", specialist.calls)
	}
	if router.calls != 1 {
		t.Fatalf("router re-consulted mid-turn: %d calls", router.calls)
	}

	// user, assistant+call, tool result, final assistant
	if len(st.Messages) != 4 {
		t.Fatalf("message count = %d, want 4", len(st.Messages))
	}
	toolMsg := st.Messages[2]
	if toolMsg.Role != contractx.RoleTool || toolMsg.ToolCallID != "call-1" {
		t.Fatalf("tool result not paired with its call: %+v", toolMsg)
	}
	for _, want := range []string{"10 bags", "maize", "Kano"} {
		if !strings.Contains(toolMsg.Content, want) {
			t.Fatalf("tool result %q missing %q", toolMsg.Content, want)
		}
	}
	if got := st.LastAssistantText(); !strings.Contains(got, "booked") {
		t.Fatalf("final reply = %q", got)
	}
}

func TestRunToolErrorTravelsInBand(t *testing.T) {
	t.Parallel()

	specialist := &scriptedSpecialist{script: []contractx.Message{
		{
			Role: contractx.RoleAssistant,
			ToolCalls: []contractx.ToolCall{{
				ID:   "call-1",
				Name: toolx.ToolScheduleTransport,
				Args: map[string]any{"produce": "maize"},
			}},
		},
		{Role: contractx.RoleAssistant, Content: "I still need the quantity and destination."},
	}}

	g := New(&fakeRouter{route: contractx.RouteLogistics}, singleRegistry(contractx.RouteLogistics, specialist), toolx.NewCatalog(), 0)

	st := userState("schedule transport for my maize")
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("a missing tool argument must not fail the turn, got %v", err)
	}

	toolMsg := st.Messages[2]
	if toolMsg.Role != contractx.RoleTool {
		t.Fatalf("expected tool message, got %+v", toolMsg)
	}
	if !strings.HasPrefix(toolMsg.Content, "Error:") || !strings.Contains(toolMsg.Content, "destination") {
		t.Fatalf("tool error not surfaced in band: %q", toolMsg.Content)
	}
}

func TestRunStepBudgetStopsLoopingSpecialist(t *testing.T) {
	t.Parallel()

	specialist := &loopingSpecialist{}
	g := New(&fakeRouter{route: contractx.RouteLogistics}, singleRegistry(contractx.RouteLogistics, specialist), toolx.NewCatalog(), 6)

	err := g.Run(context.Background(), userState("rates please"))
	if !errors.Is(err, contractx.ErrStepBudget) {
		t.Fatalf("err = %v, want ErrStepBudget", err)
	}
	if specialist.calls >= 6 {
		t.Fatalf("specialist ran %d times under a 6 step budget", specialist.calls)
	}
}

func TestRunUnknownRouteFinishes(t *testing.T) {
	t.Parallel()

	g := New(&fakeRouter{route: contractx.Route("Weather")}, &fakeRegistry{}, toolx.NewCatalog(), 0)

	st := userState("will it rain tomorrow")
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st.Next != contractx.RouteFinish {
		t.Fatalf("Next = %s, want FINISH", st.Next)
	}
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New(&fakeRouter{route: contractx.RouteFinish}, &fakeRegistry{}, toolx.NewCatalog(), 0)
	if err := g.Run(ctx, userState("hi")); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
