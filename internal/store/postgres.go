package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores saves in the articlegen schema of a shared database.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS articlegen;
		CREATE TABLE IF NOT EXISTS articlegen.saves (
			slot TEXT PRIMARY KEY,
			payload BYTEA NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure saves schema: %w", err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, slot string) ([]byte, error) {
	if err := ValidateSlot(slot); err != nil {
		return nil, err
	}
	var payload []byte
	err := p.db.QueryRow(ctx, `SELECT payload FROM articlegen.saves WHERE slot = $1`, slot).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load save: %w", err)
	}
	return payload, nil
}

func (p *Postgres) Save(ctx context.Context, slot string, payload []byte) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	_, err := p.db.Exec(ctx, `
		INSERT INTO articlegen.saves (slot, payload, saved_at) VALUES ($1, $2, now())
		ON CONFLICT (slot) DO UPDATE SET payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at
	`, slot, payload)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	tag, err := p.db.Exec(ctx, `DELETE FROM articlegen.saves WHERE slot = $1`, slot)
	if err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx, `SELECT slot FROM articlegen.saves ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	slots, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	return slots, nil
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}
