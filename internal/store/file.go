package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File keeps one JSON document per slot in a directory.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(slot string) (string, error) {
	if err := ValidateSlot(slot); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, slot+".json"), nil
}

func (f *File) Load(_ context.Context, slot string) ([]byte, error) {
	path, err := f.path(slot)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read save: %w", err)
	}
	return raw, nil
}

// Save writes through a temp file so a crash never leaves half a save.
func (f *File) Save(_ context.Context, slot string, payload []byte) error {
	path, err := f.path(slot)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write save: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace save: %w", err)
	}
	return nil
}

func (f *File) Delete(_ context.Context, slot string) error {
	path, err := f.path(slot)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}

func (f *File) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	out := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(out)
	return out, nil
}

func (f *File) Close() error { return nil }
