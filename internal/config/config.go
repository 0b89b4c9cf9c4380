// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting shared by the server and the CLI.
type Config struct {
	Port                 string        `env:"PORT" envDefault:"8080"`
	DBPath               string        `env:"SRG_DB_PATH" envDefault:"data/srg.db"`
	APIBaseURL           string        `env:"SRG_API_BASE_URL" envDefault:"https://get-diced.com/"`
	ImageDir             string        `env:"SRG_IMAGE_DIR" envDefault:"data/images"`
	BundledImageManifest string        `env:"SRG_BUNDLED_IMAGE_MANIFEST"`
	SyncBatchSize        int           `env:"SRG_SYNC_BATCH_SIZE" envDefault:"100"`
	SyncBatchDelay       time.Duration `env:"SRG_SYNC_BATCH_DELAY" envDefault:"0s"`
	HTTPTimeout          time.Duration `env:"SRG_HTTP_TIMEOUT" envDefault:"30s"`
	ImageWorkers         int           `env:"SRG_IMAGE_WORKERS" envDefault:"4"`
	ShareDescription     string        `env:"SRG_SHARE_DESCRIPTION" envDefault:"Shared from SRG Collection Manager"`
	GinMode              string        `env:"GIN_MODE" envDefault:"release"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv reads .env into the environment unless APP_ENV is production.
// A missing file is not an error.
func LoadDotEnv(files ...string) {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: loading .env: %v", err)
	}
}

// Load applies .env and parses Config.
func Load() (Config, error) {
	LoadDotEnv()
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("SRG_DB_PATH is required")
	}
	if c.SyncBatchSize <= 0 {
		return fmt.Errorf("SRG_SYNC_BATCH_SIZE must be positive, got %d", c.SyncBatchSize)
	}
	if c.ImageWorkers <= 0 {
		return fmt.Errorf("SRG_IMAGE_WORKERS must be positive, got %d", c.ImageWorkers)
	}
	return nil
}

// TempDir is where database snapshots are downloaded, next to the database.
func (c Config) TempDir() string {
	return filepath.Dir(c.DBPath)
}
