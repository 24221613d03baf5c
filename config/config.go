package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	PGURL      string
	Port       string
	SchemaDir  string
	RosterPath string
	DataDir    string
	AdminToken string
}

// Load reads configuration from the environment, with .env support
func Load() (*Config, error) {
	// Best-effort: a missing .env just means the environment is already set
	_ = godotenv.Load()

	pgURL := os.Getenv("PG_URL")
	if pgURL == "" {
		return nil, fmt.Errorf("PG_URL environment variable is required")
	}

	cfg := &Config{
		PGURL:      pgURL,
		Port:       getenvDefault("PORT", "8080"),
		SchemaDir:  getenvDefault("SCHEMA_DIR", "configs/schemas"),
		RosterPath: getenvDefault("ROSTER_PATH", "configs/rosters.json"),
		DataDir:    getenvDefault("DATA_DIR", "data/extracts"),
		AdminToken: os.Getenv("ADMIN_TOKEN"),
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
