package config

import (
	"fmt"
	"os"
	"rank-decay-tracker/internal/constants"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	BackendSQLite   = "sqlite"
	BackendDocument = "document"
	BackendRedis    = "redis"
)

type Config struct {
	RiotAPIKey      string
	AccountRegion   string
	PlatformRegion  string
	AccountBaseURL  string
	PlatformBaseURL string

	ServerPort string
	LogLevel   string

	StoreBackend  string
	DBPath        string
	DocumentPath  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BurstLimit      int
	BurstWindow     time.Duration
	SustainedLimit  int
	SustainedWindow time.Duration

	MatchFetchConcurrency int
	UpstreamMaxRetries    int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		RiotAPIKey:     getEnv("RIOT_API_KEY", ""),
		AccountRegion:  getEnv("ACCOUNT_REGION", "americas"),
		PlatformRegion: getEnv("PLATFORM_REGION", "na1"),
		ServerPort:     getEnv("SERVER_PORT", "3001"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		DBPath:         getEnv("DB_PATH", "decay.db"),
		DocumentPath:   getEnv("DOCUMENT_PATH", "playerData.json"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
	}
	cfg.AccountBaseURL = getEnv("ACCOUNT_BASE_URL", fmt.Sprintf("https://%s.api.riotgames.com", cfg.AccountRegion))
	cfg.PlatformBaseURL = getEnv("PLATFORM_BASE_URL", fmt.Sprintf("https://%s.api.riotgames.com", cfg.PlatformRegion))

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.BurstLimit, err = getEnvInt("RATE_BURST_LIMIT", constants.DefaultBurstLimit); err != nil {
		return nil, err
	}
	if cfg.BurstWindow, err = getEnvDuration("RATE_BURST_WINDOW", constants.DefaultBurstWindow); err != nil {
		return nil, err
	}
	if cfg.SustainedLimit, err = getEnvInt("RATE_SUSTAINED_LIMIT", constants.DefaultSustainedLimit); err != nil {
		return nil, err
	}
	if cfg.SustainedWindow, err = getEnvDuration("RATE_SUSTAINED_WINDOW", constants.DefaultSustainedWindow); err != nil {
		return nil, err
	}
	if cfg.MatchFetchConcurrency, err = getEnvInt("MATCH_FETCH_CONCURRENCY", constants.DefaultFetchWorkers); err != nil {
		return nil, err
	}
	if cfg.UpstreamMaxRetries, err = getEnvInt("UPSTREAM_MAX_RETRIES", constants.DefaultMaxRetries); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("account_base_url", cfg.AccountBaseURL).
		Str("platform_base_url", cfg.PlatformBaseURL).
		Str("server_port", cfg.ServerPort).
		Str("store_backend", cfg.StoreBackend).
		Str("log_level", cfg.LogLevel).
		Int("burst_limit", cfg.BurstLimit).
		Dur("burst_window", cfg.BurstWindow).
		Int("sustained_limit", cfg.SustainedLimit).
		Dur("sustained_window", cfg.SustainedWindow).
		Int("match_fetch_concurrency", cfg.MatchFetchConcurrency).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.RiotAPIKey == "" {
		return fmt.Errorf("RIOT_API_KEY is required")
	}
	switch c.StoreBackend {
	case BackendSQLite, BackendDocument, BackendRedis:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	if c.BurstLimit <= 0 || c.SustainedLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.BurstWindow <= 0 || c.SustainedWindow <= 0 {
		return fmt.Errorf("rate windows must be positive")
	}
	if c.MatchFetchConcurrency <= 0 {
		return fmt.Errorf("MATCH_FETCH_CONCURRENCY must be positive")
	}
	if c.UpstreamMaxRetries < 0 {
		return fmt.Errorf("UPSTREAM_MAX_RETRIES must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

var Module = fx.Provide(Load)
