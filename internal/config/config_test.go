package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RIOT_API_KEY", "RGAPI-test")
	t.Setenv("STORE_BACKEND", "")

	cfg, err := Load(zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreBackend != BackendSQLite {
		t.Errorf("StoreBackend = %q, want sqlite", cfg.StoreBackend)
	}
	if cfg.AccountBaseURL != "https://americas.api.riotgames.com" {
		t.Errorf("AccountBaseURL = %q", cfg.AccountBaseURL)
	}
	if cfg.PlatformBaseURL != "https://na1.api.riotgames.com" {
		t.Errorf("PlatformBaseURL = %q", cfg.PlatformBaseURL)
	}
	if cfg.BurstLimit != 20 || cfg.BurstWindow != time.Second {
		t.Errorf("burst = %d/%v, want 20/1s", cfg.BurstLimit, cfg.BurstWindow)
	}
	if cfg.SustainedLimit != 100 || cfg.SustainedWindow != 2*time.Minute {
		t.Errorf("sustained = %d/%v, want 100/2m", cfg.SustainedLimit, cfg.SustainedWindow)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RIOT_API_KEY", "")

	if _, err := Load(zerolog.Nop()); err == nil {
		t.Fatal("expected error without RIOT_API_KEY")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RIOT_API_KEY", "RGAPI-test")
	t.Setenv("STORE_BACKEND", "Document")
	t.Setenv("RATE_SUSTAINED_WINDOW", "90s")
	t.Setenv("MATCH_FETCH_CONCURRENCY", "4")
	t.Setenv("PLATFORM_REGION", "kr")

	cfg, err := Load(zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreBackend != BackendDocument {
		t.Errorf("StoreBackend = %q, want document", cfg.StoreBackend)
	}
	if cfg.SustainedWindow != 90*time.Second {
		t.Errorf("SustainedWindow = %v, want 90s", cfg.SustainedWindow)
	}
	if cfg.MatchFetchConcurrency != 4 {
		t.Errorf("MatchFetchConcurrency = %d, want 4", cfg.MatchFetchConcurrency)
	}
	if cfg.PlatformBaseURL != "https://kr.api.riotgames.com" {
		t.Errorf("PlatformBaseURL = %q", cfg.PlatformBaseURL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RIOT_API_KEY", "RGAPI-test")

	t.Setenv("STORE_BACKEND", "mongo")
	if _, err := Load(zerolog.Nop()); err == nil {
		t.Error("expected error for unknown backend")
	}

	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("RATE_BURST_LIMIT", "lots")
	if _, err := Load(zerolog.Nop()); err == nil {
		t.Error("expected error for non-numeric burst limit")
	}
}
