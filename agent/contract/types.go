package contract

// Route is the specialist capability selected for one turn. It is chosen
// exactly once per invocation, before any specialist runs, and never changes
// within that invocation's tool-calling loop.
type Route string

const (
	RouteAdvisory  Route = "Advisory"
	RouteLogistics Route = "Logistics"
	RouteSales     Route = "Sales"
	RouteFinish    Route = "FINISH"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in an invocation's working sequence. Assistant
// messages may carry pending tool calls; tool messages carry the paired
// result and reference the call they answer via ToolCallID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a tool invocation requested by a specialist.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the outcome of executing one ToolCall. Exactly one of
// Result or Error is set; tool failures travel in-band rather than as
// Go errors so the specialist can explain them to the user.
type ToolResult struct {
	CallID string
	Tool   string
	Result string
	Error  string
}

// UserInfo is the small projection of the invoking user handed to
// specialists for personalization.
type UserInfo struct {
	Phone string
	Name  string
	Type  string
}

// AgentState is the ephemeral working data for a single orchestration
// invocation: the full message sequence (history plus the new user
// message), the routing decision, and the invoking user. It is built fresh
// per invocation and discarded afterwards; nothing in it is shared between
// concurrent invocations.
type AgentState struct {
	Messages []Message
	Next     Route
	UserID   string
	UserInfo UserInfo
}

// LatestUserMessage returns the most recent user-role message: the new
// inbound message of this invocation. Tool loops only append assistant and
// tool messages, so within an invocation this value never changes and the
// supervisor's routing decision cannot drift mid-turn.
func (s *AgentState) LatestUserMessage() string {
	if s == nil {
		return ""
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// LastAssistantText returns the content of the latest assistant message,
// or "" when the sequence holds none.
func (s *AgentState) LastAssistantText() string {
	if s == nil {
		return ""
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}

// Append adds messages to the working sequence.
func (s *AgentState) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}
