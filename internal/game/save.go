package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"articlegen/internal/num"
)

const SaveVersion = "1.0.0"

// MaxSavedOwned caps a restored unit count. Costs past it exceed num.Largest.
const MaxSavedOwned = 1_000_000

var ErrCorruptSave = errors.New("save is not a JSON object")

// SaveState is the persisted shape of a game. Balances travel as decimal
// strings.
type SaveState struct {
	Version     string        `json:"version"`
	SavedAt     time.Time     `json:"saved_at"`
	Stats       SavedStats    `json:"stats"`
	Units       []SavedUnit   `json:"units"`
	Multipliers []string      `json:"multipliers"`
	Prestige    SavedPrestige `json:"prestige"`
	Idle        SavedIdle     `json:"idle"`
}

type SavedStats struct {
	Balance         num.Number `json:"balance"`
	BalanceThisRun  num.Number `json:"balance_this_run"`
	LifetimeBalance num.Number `json:"lifetime_balance"`
	ClickCount      int64      `json:"click_count"`
	PlayTimeSeconds float64    `json:"play_time_seconds"`
}

type SavedUnit struct {
	ID    int `json:"id"`
	Owned int `json:"owned"`
}

type SavedPrestige struct {
	MetaCurrency  num.Number `json:"meta_currency"`
	PrestigeCount int        `json:"prestige_count"`
	Modifiers     []string   `json:"modifiers"`
}

type SavedIdle struct {
	CompletedCount  int     `json:"completed_count"`
	ProgressSeconds float64 `json:"progress_seconds"`
}

func EncodeSave(s SaveState) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode save: %w", err)
	}
	return raw, nil
}

// DecodeSave reads a save field by field. A missing or malformed field keeps
// its zero value and adds a warning; only input that is not a JSON object is
// an error.
func DecodeSave(raw []byte) (SaveState, []string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &top); err != nil || top == nil {
		return SaveState{}, nil, ErrCorruptSave
	}
	d := decoder{}
	var s SaveState

	d.field(top, "version", &s.Version)
	if s.Version == "" {
		s.Version = SaveVersion
	} else if s.Version != SaveVersion {
		d.warnf("migrated save from version %s", s.Version)
		s.Version = SaveVersion
	}
	d.field(top, "saved_at", &s.SavedAt)

	if stats, ok := d.object(top, "stats"); ok {
		d.field(stats, "balance", &s.Stats.Balance)
		d.field(stats, "balance_this_run", &s.Stats.BalanceThisRun)
		d.field(stats, "lifetime_balance", &s.Stats.LifetimeBalance)
		d.field(stats, "click_count", &s.Stats.ClickCount)
		d.field(stats, "play_time_seconds", &s.Stats.PlayTimeSeconds)
	}

	for i, item := range d.array(top, "units") {
		var u SavedUnit
		if err := json.Unmarshal(item, &u); err != nil {
			d.warnf("units[%d]: %v", i, err)
			continue
		}
		s.Units = append(s.Units, u)
	}
	for i, item := range d.array(top, "multipliers") {
		var id string
		if err := json.Unmarshal(item, &id); err != nil {
			d.warnf("multipliers[%d]: %v", i, err)
			continue
		}
		s.Multipliers = append(s.Multipliers, id)
	}

	if p, ok := d.object(top, "prestige"); ok {
		d.field(p, "meta_currency", &s.Prestige.MetaCurrency)
		d.field(p, "prestige_count", &s.Prestige.PrestigeCount)
		for i, item := range d.array(p, "modifiers") {
			var id string
			if err := json.Unmarshal(item, &id); err != nil {
				d.warnf("prestige.modifiers[%d]: %v", i, err)
				continue
			}
			s.Prestige.Modifiers = append(s.Prestige.Modifiers, id)
		}
	}
	if idle, ok := d.object(top, "idle"); ok {
		d.field(idle, "completed_count", &s.Idle.CompletedCount)
		d.field(idle, "progress_seconds", &s.Idle.ProgressSeconds)
	}
	return s, d.warnings, nil
}

type decoder struct {
	warnings []string
}

func (d *decoder) warnf(format string, args ...any) {
	d.warnings = append(d.warnings, fmt.Sprintf(format, args...))
}

func (d *decoder) field(obj map[string]json.RawMessage, key string, dst any) {
	raw, ok := obj[key]
	if !ok {
		d.warnf("%s: missing", key)
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.warnf("%s: %v", key, err)
	}
}

func (d *decoder) object(obj map[string]json.RawMessage, key string) (map[string]json.RawMessage, bool) {
	raw, ok := obj[key]
	if !ok {
		d.warnf("%s: missing", key)
		return nil, false
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		d.warnf("%s: not an object", key)
		return nil, false
	}
	return out, true
}

func (d *decoder) array(obj map[string]json.RawMessage, key string) []json.RawMessage {
	raw, ok := obj[key]
	if !ok {
		d.warnf("%s: missing", key)
		return nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		d.warnf("%s: not an array", key)
		return nil
	}
	return out
}
