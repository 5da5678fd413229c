package session

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations returns the goose migrations creating the sessions table,
// rooted at the migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// PostgresStore keeps sessions in the blazeweb_sessions table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a store backed by pool. Apply Migrations first.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Create(ctx context.Context, s *Session) error {
	values, err := json.Marshal(s.Values)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO blazeweb_sessions (id, token, data, created_at, last_active_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Token, values, s.CreatedAt, s.LastActiveAt, s.ExpiresAt)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, token string) (*Session, error) {
	var (
		s      Session
		values []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id, token, data, created_at, last_active_at, expires_at
		FROM blazeweb_sessions WHERE token = $1`, token).
		Scan(&s.ID, &s.Token, &values, &s.CreatedAt, &s.LastActiveAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.IsExpired() {
		return nil, ErrExpired
	}
	if err := json.Unmarshal(values, &s.Values); err != nil {
		return nil, err
	}
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	return &s, nil
}

func (p *PostgresStore) Update(ctx context.Context, s *Session) error {
	values, err := json.Marshal(s.Values)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, `
		UPDATE blazeweb_sessions
		SET token = $2, data = $3, last_active_at = $4, expires_at = $5
		WHERE id = $1`,
		s.ID, s.Token, values, s.LastActiveAt, s.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM blazeweb_sessions WHERE id = $1`, id)
	return err
}

func (p *PostgresStore) Purge(ctx context.Context, t time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM blazeweb_sessions WHERE expires_at < $1`, t)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
