// Package session persists conversations as append-only turn logs keyed by
// session id, with per-user ownership.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

// DefaultWindow is how many recent turns feed a new invocation.
const DefaultWindow = 20

// Turn is one persisted conversation entry. Only user and assistant turns
// are stored; tool traffic is ephemeral to the invocation.
type Turn struct {
	Role      contractx.Role
	Content   string
	CreatedAt time.Time
}

// Summary is the list-view projection of a session.
type Summary struct {
	ID          string
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	TurnCount   int
	LastMessage string
}

// NewSessionID mints a short channel-friendly identifier.
func NewSessionID() string {
	return "chat_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// RecentWindow returns the most recent limit turns, preserving order. The
// input slice is never mutated.
func RecentWindow(turns []Turn, limit int) []Turn {
	if limit <= 0 {
		limit = DefaultWindow
	}
	if len(turns) <= limit {
		return turns
	}
	return turns[len(turns)-limit:]
}

// ToMessages converts persisted turns into the invocation message form.
func ToMessages(turns []Turn) []contractx.Message {
	out := make([]contractx.Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, contractx.Message{Role: t.Role, Content: t.Content})
	}
	return out
}
