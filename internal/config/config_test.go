package config

import (
	"os"
	"slices"
	"testing"
)

var keys = []string{
	"PORT", "DATABASE_URL", "ROUND_DURATION", "MAX_ATTEMPTS",
	"MIN_PLAYERS", "WIN_POINTS", "ALLOWED_ORIGINS",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "")
	}
	if cfg.RoundDuration != 60 {
		t.Errorf("RoundDuration = %d, want %d", cfg.RoundDuration, 60)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want %d", cfg.MaxAttempts, 3)
	}
	if cfg.MinPlayers != 2 {
		t.Errorf("MinPlayers = %d, want %d", cfg.MinPlayers, 2)
	}
	if cfg.WinPoints != 10 {
		t.Errorf("WinPoints = %d, want %d", cfg.WinPoints, 10)
	}
	if !slices.Equal(cfg.AllowedOrigins, []string{"http://localhost:5173"}) {
		t.Errorf("AllowedOrigins = %v, want [http://localhost:5173]", cfg.AllowedOrigins)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("DATABASE_URL", "postgres://localhost/guesswhat")
	t.Setenv("ROUND_DURATION", "30")
	t.Setenv("MAX_ATTEMPTS", "5")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, https://b.test ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "3000")
	}
	if cfg.DatabaseURL != "postgres://localhost/guesswhat" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "postgres://localhost/guesswhat")
	}
	if cfg.RoundDuration != 30 {
		t.Errorf("RoundDuration = %d, want %d", cfg.RoundDuration, 30)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want %d", cfg.MaxAttempts, 5)
	}
	want := []string{"http://a.test", "https://b.test"}
	if !slices.Equal(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestLoad_InvalidRoundDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROUND_DURATION", "abc")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail for a non-numeric ROUND_DURATION")
	}
}

func TestLoad_NonPositiveRoundDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROUND_DURATION", "0")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail for ROUND_DURATION=0")
	}
}
