package syncq

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Command is a remote write that failed on the network and waits for replay.
type Command struct {
	Method         string         `json:"method"`
	Path           string         `json:"path"`
	Body           map[string]any `json:"body,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
}

var Dir = defaultDir()

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".articlegen"
	}
	return filepath.Join(home, ".articlegen")
}

func queuePath() (string, error) {
	if err := os.MkdirAll(Dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(Dir, "queue.json"), nil
}

func Load() ([]Command, error) {
	path, err := queuePath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Save(commands []Command) error {
	path, err := queuePath()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func Push(cmd Command) error {
	commands, err := Load()
	if err != nil {
		return err
	}
	commands = append(commands, cmd)
	return Save(commands)
}

type Sender func(Command) error

// Replay sends every queued command in order. Commands for which keep
// reports true on their error stay queued; the rest are dropped.
func Replay(send Sender, keep func(error) bool) (sent int, remaining []Command, err error) {
	commands, err := Load()
	if err != nil {
		return 0, nil, err
	}
	remaining = make([]Command, 0, len(commands))
	for _, c := range commands {
		if err := send(c); err != nil {
			if keep(err) {
				remaining = append(remaining, c)
			}
			continue
		}
		sent++
	}
	return sent, remaining, Save(remaining)
}
