package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ARTICLEGEN_API_ADDR", "")
	t.Setenv("ARTICLEGEN_STORE", "")
	t.Setenv("ARTICLEGEN_TICK_EVERY", "")
	t.Setenv("ARTICLEGEN_LOG_LEVEL", "")

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreFile, cfg.Store.Kind)
	assert.Equal(t, time.Second, cfg.TickEvery)
	assert.Equal(t, 30*time.Second, cfg.AutoSaveEvery)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadAPIFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ARTICLEGEN_STORE", "sqlite")
	t.Setenv("ARTICLEGEN_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("ARTICLEGEN_TICK_EVERY", "250ms")
	t.Setenv("ARTICLEGEN_CLICK_RATE", "5")
	t.Setenv("ARTICLEGEN_CLICK_BURST", "bogus")
	t.Setenv("ARTICLEGEN_LOG_LEVEL", "debug")

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, StoreSQLite, cfg.Store.Kind)
	assert.Equal(t, "/tmp/x.db", cfg.Store.SQLitePath)
	assert.Equal(t, 250*time.Millisecond, cfg.TickEvery)
	assert.Equal(t, 5.0, cfg.ClickRate)
	assert.Equal(t, 40, cfg.ClickBurst)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestStoreValidation(t *testing.T) {
	t.Setenv("ARTICLEGEN_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := LoadWorkerFromEnv()
	require.Error(t, err)

	t.Setenv("ARTICLEGEN_STORE", "floppy")
	_, err = LoadWorkerFromEnv()
	require.Error(t, err)

	t.Setenv("ARTICLEGEN_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/articlegen")
	t.Setenv("ARTICLEGEN_WORKER_RUN_ONCE", "true")
	cfg, err := LoadWorkerFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, StorePostgres, cfg.Store.Kind)
}

func TestDefaultBalance(t *testing.T) {
	b := DefaultBalance()
	require.NoError(t, b.Validate())
	require.Len(t, b.Units, 9)
	require.Len(t, b.MultiplierTiers, 10)
	assert.Equal(t, 1.15, b.Economy.CostMultiplier)
	assert.Equal(t, 5.67e9, b.Prestige.Threshold)
	assert.Equal(t, 1e9, b.Prestige.Base)
	assert.Equal(t, 108.0, b.Bonus.BoostMultiplier)
	assert.Equal(t, 3600.0, b.Idle.CompleteSeconds)
	for _, u := range b.Units {
		assert.Len(t, u.Multipliers, len(b.MultiplierTiers), "unit %d", u.ID)
	}
	require.Len(t, b.Modifiers, 3)
}

func TestLoadBalanceOverride(t *testing.T) {
	b, err := LoadBalance("")
	require.NoError(t, err)
	require.NotEmpty(t, b.Units)

	dir := t.TempDir()
	path := filepath.Join(dir, "balance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: x\nunits: []\n"), 0o600))
	_, err = LoadBalance(path)
	require.ErrorIs(t, err, ErrInvalidBalance)

	_, err = LoadBalance(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsUnknownEffect(t *testing.T) {
	b := DefaultBalance()
	b.Modifiers = append(b.Modifiers, ModifierSpec{ID: "odd", Cost: 1, Effect: "teleport"})
	require.ErrorIs(t, b.Validate(), ErrInvalidBalance)
}

func TestLoadCLIFromEnv(t *testing.T) {
	t.Setenv("ARTICLEGEN_STORE", "")
	t.Setenv("ARTICLEGEN_LOG_LEVEL", "")
	t.Setenv("ARTICLEGEN_API_BASE_URL", "http://example.test:8080/")
	t.Setenv("ARTICLEGEN_SLOT", "")
	t.Setenv("ARTICLEGEN_SAVE_DIR", "")

	cfg, err := LoadCLIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://example.test:8080", cfg.APIBaseURL)
	assert.Equal(t, "default", cfg.Slot)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, filepath.Join(cfg.StateDir, "saves"), cfg.Store.SaveDir)
}
