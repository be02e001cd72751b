package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig is the process configuration, read from the environment.
type AppConfig struct {
	// OpenWeatherAPIKey authenticates against OpenWeatherMap.
	OpenWeatherAPIKey string `envconfig:"OPENWEATHER_API_KEY" required:"true"`

	// DataDir is where the JSON state files live. Defaults to
	// ~/.weatherdesk when unset.
	DataDir string `envconfig:"DATA_DIR"`

	Port string `envconfig:"PORT" default:"8080"`

	// HTTPTimeout bounds outbound provider calls.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

// Load reads configuration from .env (when present) and the environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".weatherdesk")
	}

	return &cfg, nil
}
