package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"articlegen/internal/config"
	"articlegen/internal/db"
)

var (
	ErrNotFound    = errors.New("save not found")
	ErrInvalidSlot = errors.New("slot must be 1-64 letters, digits, '-' or '_'")
)

var slotRE = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func ValidateSlot(slot string) error {
	if !slotRE.MatchString(slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}

// Store persists encoded saves by slot name.
type Store interface {
	Load(ctx context.Context, slot string) ([]byte, error)
	Save(ctx context.Context, slot string, payload []byte) error
	Delete(ctx context.Context, slot string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Open builds the backend selected by cfg.Kind.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Kind {
	case config.StoreFile, "":
		return NewFile(cfg.SaveDir)
	case config.StoreSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s := NewPostgres(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}
