package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound covers both a missing session and a session owned by a
	// different user; callers must not be able to tell them apart.
	ErrNotFound = errors.New("session: not found")
)

// Store is the persistence boundary for conversations. All methods that
// take a userID enforce ownership.
type Store interface {
	// GetOrCreate resolves sessionID for userID, creating a fresh session
	// when sessionID is empty. A non-empty sessionID that does not exist or
	// belongs to another user yields ErrNotFound.
	GetOrCreate(ctx context.Context, userID, sessionID string) (string, error)

	// AppendExchange records one completed turn: the user message followed
	// by the assistant reply, atomically.
	AppendExchange(ctx context.Context, userID, sessionID, userText, assistantText string) error

	// History returns up to limit of the most recent turns, oldest first.
	History(ctx context.Context, userID, sessionID string, limit int) ([]Turn, error)

	// Sessions lists userID's sessions, most recently updated first.
	Sessions(ctx context.Context, userID string, limit int) ([]Summary, error)

	// ActiveSession returns the most recently updated session id, or
	// ErrNotFound when the user has none.
	ActiveSession(ctx context.Context, userID string) (string, error)

	// Delete removes a session and its turns.
	Delete(ctx context.Context, userID, sessionID string) error

	// PruneExpired removes sessions whose last activity is before cutoff
	// and returns how many were removed.
	PruneExpired(ctx context.Context, cutoff time.Time) (int, error)
}
