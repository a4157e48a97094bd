package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Session struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
	Slot    string `json:"slot"`
}

// Dir is where session.json lives. Tests point it at a temp dir.
var Dir = defaultDir()

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".articlegen"
	}
	return filepath.Join(home, ".articlegen")
}

func sessionPath() (string, error) {
	if err := os.MkdirAll(Dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(Dir, "session.json"), nil
}

func SaveSession(s Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return err
	}
	return nil
}

func LoadSession() (Session, error) {
	path, err := sessionPath()
	if err != nil {
		return Session{}, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(s.BaseURL) == "" || strings.TrimSpace(s.Slot) == "" {
		return Session{}, fmt.Errorf("session is missing base url or slot")
	}
	return s, nil
}

func ClearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}
