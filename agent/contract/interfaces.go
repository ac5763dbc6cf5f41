package contract

import (
	"context"
	"io"
)

// Router classifies the inbound user message of an invocation into a Route.
// Implementations must degrade to RouteFinish on any classification
// failure; a routing problem must never fail the turn.
type Router interface {
	Route(ctx context.Context, st *AgentState) (Route, error)
}

// Specialist runs one reasoning step for its capability. The returned
// assistant message either carries final text (no tool calls) or one or
// more pending tool calls to execute before re-invoking the same
// specialist.
type Specialist interface {
	Invoke(ctx context.Context, st *AgentState) (Message, error)
}

// Registry resolves the specialist bound to a route.
type Registry interface {
	Specialist(route Route) (Specialist, bool)
}

// ToolGateway executes tool calls on behalf of the specialist selected for
// the given route. Per-call failures are reported in-band on the
// ToolResult; the error return is reserved for calls the gateway refuses
// outright (unknown tool name, route mismatch).
type ToolGateway interface {
	Execute(ctx context.Context, route Route, calls []ToolCall) ([]ToolResult, error)
}

// Transcriber converts a voice note into text. The external speech-to-text
// collaborator boundary.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
	TranscribeURL(ctx context.Context, audioURL string) (string, error)
}
