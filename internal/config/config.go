package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	RoundDuration  int      `env:"ROUND_DURATION" envDefault:"60"` // seconds
	MaxAttempts    int      `env:"MAX_ATTEMPTS" envDefault:"3"`
	MinPlayers     int      `env:"MIN_PLAYERS" envDefault:"2"`
	WinPoints      int      `env:"WIN_POINTS" envDefault:"10"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] No .env file found, reading environment variables directly")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.AllowedOrigins = origins

	if cfg.RoundDuration <= 0 {
		return Config{}, fmt.Errorf("ROUND_DURATION must be positive, got %d", cfg.RoundDuration)
	}
	if cfg.MaxAttempts <= 0 {
		return Config{}, fmt.Errorf("MAX_ATTEMPTS must be positive, got %d", cfg.MaxAttempts)
	}
	return cfg, nil
}
