package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type StoreConfig struct {
	Kind        string
	SaveDir     string
	SQLitePath  string
	DatabaseURL string
}

type NotifyConfig struct {
	DiscordToken   string
	DiscordChannel string
}

type APIConfig struct {
	Addr          string
	Store         StoreConfig
	Notify        NotifyConfig
	TokenHash     string
	TickEvery     time.Duration
	AutoSaveEvery time.Duration
	ClickRate     float64
	ClickBurst    int
	BalanceFile   string
	LogLevel      slog.Level
}

type WorkerConfig struct {
	Slot          string
	Store         StoreConfig
	Notify        NotifyConfig
	TickEvery     time.Duration
	AutoSaveEvery time.Duration
	RunOnce       bool
	BalanceFile   string
	LogLevel      slog.Level
}

type CLIConfig struct {
	APIBaseURL    string
	Slot          string
	Store         StoreConfig
	AutoSaveEvery time.Duration
	BalanceFile   string
	StateDir      string
	LogLevel      slog.Level
}

// LoadDotEnv reads .env from the working directory when present. Variables
// already set in the environment win.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("ARTICLEGEN_API_ADDR", ":8080")
	}

	store, err := loadStoreFromEnv()
	if err != nil {
		return APIConfig{}, err
	}
	cfg := APIConfig{
		Addr:          addr,
		Store:         store,
		Notify:        loadNotifyFromEnv(),
		TokenHash:     strings.TrimSpace(os.Getenv("ARTICLEGEN_API_TOKEN_HASH")),
		TickEvery:     envDurationDefault("ARTICLEGEN_TICK_EVERY", time.Second),
		AutoSaveEvery: envDurationDefault("ARTICLEGEN_AUTOSAVE_EVERY", 30*time.Second),
		ClickRate:     envFloatDefault("ARTICLEGEN_CLICK_RATE", 20),
		ClickBurst:    envIntDefault("ARTICLEGEN_CLICK_BURST", 40),
		BalanceFile:   strings.TrimSpace(os.Getenv("ARTICLEGEN_BALANCE_FILE")),
		LogLevel:      envLogLevel(slog.LevelInfo),
	}
	if cfg.TickEvery <= 0 {
		return cfg, fmt.Errorf("ARTICLEGEN_TICK_EVERY must be positive")
	}
	if cfg.ClickRate <= 0 || cfg.ClickBurst <= 0 {
		return cfg, fmt.Errorf("ARTICLEGEN_CLICK_RATE and ARTICLEGEN_CLICK_BURST must be positive")
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	store, err := loadStoreFromEnv()
	if err != nil {
		return WorkerConfig{}, err
	}
	cfg := WorkerConfig{
		Slot:          envDefault("ARTICLEGEN_SLOT", "default"),
		Store:         store,
		Notify:        loadNotifyFromEnv(),
		TickEvery:     envDurationDefault("ARTICLEGEN_TICK_EVERY", time.Second),
		AutoSaveEvery: envDurationDefault("ARTICLEGEN_AUTOSAVE_EVERY", 30*time.Second),
		RunOnce:       envBoolDefault("ARTICLEGEN_WORKER_RUN_ONCE", false),
		BalanceFile:   strings.TrimSpace(os.Getenv("ARTICLEGEN_BALANCE_FILE")),
		LogLevel:      envLogLevel(slog.LevelInfo),
	}
	if cfg.TickEvery <= 0 {
		return cfg, fmt.Errorf("ARTICLEGEN_TICK_EVERY must be positive")
	}
	return cfg, nil
}

func LoadCLIFromEnv() (CLIConfig, error) {
	store, err := loadStoreFromEnv()
	if err != nil {
		return CLIConfig{}, err
	}
	return CLIConfig{
		APIBaseURL:    strings.TrimRight(envDefault("ARTICLEGEN_API_BASE_URL", "http://localhost:8080"), "/"),
		Slot:          envDefault("ARTICLEGEN_SLOT", "default"),
		Store:         store,
		AutoSaveEvery: envDurationDefault("ARTICLEGEN_AUTOSAVE_EVERY", 30*time.Second),
		BalanceFile:   strings.TrimSpace(os.Getenv("ARTICLEGEN_BALANCE_FILE")),
		StateDir:      stateDir(),
		LogLevel:      envLogLevel(slog.LevelWarn),
	}, nil
}

func loadStoreFromEnv() (StoreConfig, error) {
	cfg := StoreConfig{
		Kind:        strings.ToLower(envDefault("ARTICLEGEN_STORE", StoreFile)),
		SaveDir:     envDefault("ARTICLEGEN_SAVE_DIR", filepath.Join(stateDir(), "saves")),
		SQLitePath:  envDefault("ARTICLEGEN_SQLITE_PATH", filepath.Join(stateDir(), "saves.db")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}
	switch cfg.Kind {
	case StoreFile, StoreSQLite:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return cfg, fmt.Errorf("unknown ARTICLEGEN_STORE %q", cfg.Kind)
	}
	return cfg, nil
}

func loadNotifyFromEnv() NotifyConfig {
	return NotifyConfig{
		DiscordToken:   strings.TrimSpace(os.Getenv("ARTICLEGEN_DISCORD_TOKEN")),
		DiscordChannel: strings.TrimSpace(os.Getenv("ARTICLEGEN_DISCORD_CHANNEL")),
	}
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".articlegen"
	}
	return filepath.Join(home, ".articlegen")
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envLogLevel(fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ARTICLEGEN_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
