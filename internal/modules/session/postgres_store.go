package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStore persists sessions in the sessions table. Rows idle for longer
// than ttl are treated as absent and removed by Prune.
type PostgresStore struct {
	db           *pgxpool.Pool
	ttl          time.Duration
	systemPrompt string
}

func NewPostgresStore(db *pgxpool.Pool, systemPrompt string, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl, systemPrompt: systemPrompt}
}

// GetOrCreate drops an expired row for id, inserts a fresh one if none is left
// (ON CONFLICT DO NOTHING keeps a concurrent insert) and reads back the winner.
func (p *PostgresStore) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	now := time.Now()
	if p.ttl > 0 {
		if _, err := p.db.Exec(ctx, `
			DELETE FROM sessions WHERE id = $1 AND updated_at < $2
		`, id, now.Add(-p.ttl)); err != nil {
			return nil, fmt.Errorf("expire session %s: %w", id, err)
		}
	}

	seed := New(id, p.systemPrompt, now)
	transcript, err := json.Marshal(seed.Transcript)
	if err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}
	if _, err := p.db.Exec(ctx, `
		INSERT INTO sessions (id, transcript, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO NOTHING
	`, id, string(transcript), now); err != nil {
		return nil, fmt.Errorf("create session %s: %w", id, err)
	}

	var (
		raw []byte
		s   = Session{ID: id}
	)
	if err := p.db.QueryRow(ctx, `
		SELECT transcript, created_at, updated_at FROM sessions WHERE id = $1
	`, id).Scan(&raw, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if err := json.Unmarshal(raw, &s.Transcript); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (p *PostgresStore) Save(ctx context.Context, s *Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	transcript, err := json.Marshal(s.Transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO sessions (id, transcript, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			transcript = EXCLUDED.transcript,
			updated_at = EXCLUDED.updated_at
	`, s.ID, string(transcript), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Prune deletes sessions idle for longer than the ttl and returns how many went.
func (p *PostgresStore) Prune(ctx context.Context) (int64, error) {
	if p.ttl <= 0 {
		return 0, nil
	}
	tag, err := p.db.Exec(ctx, `DELETE FROM sessions WHERE updated_at < $1`, time.Now().Add(-p.ttl))
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RunPruner calls Prune every interval until ctx is done.
func (p *PostgresStore) RunPruner(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 || p.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.Prune(ctx)
			if err != nil {
				logger.Warn("session prune failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("pruned idle sessions", zap.Int64("count", n))
			}
		}
	}
}
