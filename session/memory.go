package session

import (
	"context"
	"sort"
	"sync"
	"time"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

type memorySession struct {
	id        string
	userID    string
	createdAt time.Time
	updatedAt time.Time
	turns     []Turn
}

// MemoryStore is the zero-dependency Store used when no database DSN is
// configured. Sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, userID, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == "" {
		id := NewSessionID()
		now := s.now()
		s.sessions[id] = &memorySession{id: id, userID: userID, createdAt: now, updatedAt: now}
		return id, nil
	}

	sess, ok := s.sessions[sessionID]
	if !ok || sess.userID != userID {
		return "", ErrNotFound
	}
	return sessionID, nil
}

func (s *MemoryStore) AppendExchange(ctx context.Context, userID, sessionID, userText, assistantText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.userID != userID {
		return ErrNotFound
	}

	now := s.now()
	sess.turns = append(sess.turns,
		Turn{Role: contractx.RoleUser, Content: userText, CreatedAt: now},
		Turn{Role: contractx.RoleAssistant, Content: assistantText, CreatedAt: now},
	)
	sess.updatedAt = now
	return nil
}

func (s *MemoryStore) History(ctx context.Context, userID, sessionID string, limit int) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.userID != userID {
		return nil, ErrNotFound
	}

	window := RecentWindow(sess.turns, limit)
	out := make([]Turn, len(window))
	copy(out, window)
	return out, nil
}

func (s *MemoryStore) Sessions(ctx context.Context, userID string, limit int) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Summary
	for _, sess := range s.sessions {
		if sess.userID != userID {
			continue
		}
		sum := Summary{
			ID:        sess.id,
			UserID:    sess.userID,
			CreatedAt: sess.createdAt,
			UpdatedAt: sess.updatedAt,
			TurnCount: len(sess.turns),
		}
		if n := len(sess.turns); n > 0 {
			sum.LastMessage = sess.turns[n-1].Content
		}
		out = append(out, sum)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ActiveSession(ctx context.Context, userID string) (string, error) {
	sums, err := s.Sessions(ctx, userID, 1)
	if err != nil {
		return "", err
	}
	if len(sums) == 0 {
		return "", ErrNotFound
	}
	return sums[0].ID, nil
}

func (s *MemoryStore) PruneExpired(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.updatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.userID != userID {
		return ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
