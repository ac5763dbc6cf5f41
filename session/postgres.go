package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

type sessionRow struct {
	bun.BaseModel `bun:"table:chat_sessions"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type turnRow struct {
	bun.BaseModel `bun:"table:chat_turns"`

	ID        int64     `bun:"id,pk,autoincrement"`
	SessionID string    `bun:"session_id,notnull"`
	Role      string    `bun:"role,notnull"`
	Content   string    `bun:"content,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// PostgresStore persists sessions in Postgres. It is the production Store;
// MemoryStore covers local runs without a database.
type PostgresStore struct {
	db  *bun.DB
	now func() time.Time
}

// NewPostgresStore opens a connection pool for the given DSN. Schema
// creation is idempotent and runs on startup.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("session: ping database: %w", err)
	}

	s := &PostgresStore{db: db, now: time.Now}
	if err := s.createSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	for _, model := range []any{(*sessionRow)(nil), (*turnRow)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("session: create schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, userID, sessionID string) (string, error) {
	if sessionID == "" {
		now := s.now()
		row := sessionRow{ID: NewSessionID(), UserID: userID, CreatedAt: now, UpdatedAt: now}
		if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
			return "", fmt.Errorf("session: create: %w", err)
		}
		return row.ID, nil
	}

	if err := s.owned(ctx, userID, sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}

func (s *PostgresStore) owned(ctx context.Context, userID, sessionID string) error {
	exists, err := s.db.NewSelect().
		Model((*sessionRow)(nil)).
		Where("id = ?", sessionID).
		Where("user_id = ?", userID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("session: lookup: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendExchange(ctx context.Context, userID, sessionID, userText, assistantText string) error {
	if err := s.owned(ctx, userID, sessionID); err != nil {
		return err
	}

	now := s.now()
	rows := []turnRow{
		{SessionID: sessionID, Role: string(contractx.RoleUser), Content: userText, CreatedAt: now},
		{SessionID: sessionID, Role: string(contractx.RoleAssistant), Content: assistantText, CreatedAt: now},
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("session: append turns: %w", err)
		}
		if _, err := tx.NewUpdate().
			Model((*sessionRow)(nil)).
			Set("updated_at = ?", now).
			Where("id = ?", sessionID).
			Exec(ctx); err != nil {
			return fmt.Errorf("session: touch session: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) History(ctx context.Context, userID, sessionID string, limit int) ([]Turn, error) {
	if err := s.owned(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultWindow
	}

	var rows []turnRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("session_id = ?", sessionID).
		OrderExpr("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: load history: %w", err)
	}

	// Rows arrive newest first; the window is consumed oldest first.
	out := make([]Turn, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = Turn{Role: contractx.Role(r.Role), Content: r.Content, CreatedAt: r.CreatedAt}
	}
	return out, nil
}

func (s *PostgresStore) Sessions(ctx context.Context, userID string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []sessionRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("updated_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}

	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		sum := Summary{ID: r.ID, UserID: r.UserID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}

		count, err := s.db.NewSelect().
			Model((*turnRow)(nil)).
			Where("session_id = ?", r.ID).
			Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("session: count turns: %w", err)
		}
		sum.TurnCount = count

		var last turnRow
		err = s.db.NewSelect().
			Model(&last).
			Where("session_id = ?", r.ID).
			OrderExpr("id DESC").
			Limit(1).
			Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// empty session
		case err != nil:
			return nil, fmt.Errorf("session: last turn: %w", err)
		default:
			sum.LastMessage = last.Content
		}

		out = append(out, sum)
	}
	return out, nil
}

func (s *PostgresStore) ActiveSession(ctx context.Context, userID string) (string, error) {
	var row sessionRow
	err := s.db.NewSelect().
		Model(&row).
		Where("user_id = ?", userID).
		OrderExpr("updated_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session: active session: %w", err)
	}
	return row.ID, nil
}

func (s *PostgresStore) PruneExpired(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*turnRow)(nil)).
			Where("session_id IN (SELECT id FROM chat_sessions WHERE updated_at < ?)", cutoff).
			Exec(ctx); err != nil {
			return fmt.Errorf("session: prune turns: %w", err)
		}
		res, err := tx.NewDelete().
			Model((*sessionRow)(nil)).
			Where("updated_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("session: prune sessions: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed = int(n)
		}
		return nil
	})
	return removed, err
}

func (s *PostgresStore) Delete(ctx context.Context, userID, sessionID string) error {
	if err := s.owned(ctx, userID, sessionID); err != nil {
		return err
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*turnRow)(nil)).
			Where("session_id = ?", sessionID).
			Exec(ctx); err != nil {
			return fmt.Errorf("session: delete turns: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*sessionRow)(nil)).
			Where("id = ?", sessionID).
			Exec(ctx); err != nil {
			return fmt.Errorf("session: delete session: %w", err)
		}
		return nil
	})
}
