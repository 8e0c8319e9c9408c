// Package config loads settings for both binaries from the environment,
// after an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	API    APIConfig
	Server ServerConfig
	Local  LocalConfig
	Log    string // log file path; empty logs to stdout/stderr only
	Debug  bool
}

// APIConfig is how the client reaches the backend.
type APIConfig struct {
	URL     string        // e.g. http://localhost:8080/api/
	Token   string        // bearer token from a previous login
	Timeout time.Duration // per request
}

// ServerConfig contains reference backend settings.
type ServerConfig struct {
	Addr  string // listen address
	DB    string // SQLite database path
	Admin string // admin username created on first run
}

// LocalConfig is client-side state.
type LocalConfig struct {
	DraftsDB  string // SQLite file holding unsent drafts
	TokenFile string // where login keeps the bearer token
}

// Load reads envFile (if it exists) into the environment without overriding
// variables already set, then builds the config. An empty envFile skips the
// file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	timeout, err := getEnvDuration("FLEET_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	debug, err := getEnvBool("FLEET_DEBUG", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			URL:     getEnv("FLEET_API_URL", "http://localhost:8080/api/"),
			Token:   getEnv("FLEET_TOKEN", ""),
			Timeout: timeout,
		},
		Server: ServerConfig{
			Addr:  getEnv("FLEETD_ADDR", ":8080"),
			DB:    getEnv("FLEETD_DB", "fleetd.sqlite3"),
			Admin: getEnv("FLEETD_ADMIN", "Admin"),
		},
		Local: LocalConfig{
			DraftsDB:  getEnv("FLEET_DRAFTS_DB", localPath("drafts.sqlite3")),
			TokenFile: getEnv("FLEET_TOKEN_FILE", localPath("token")),
		},
		Log:   getEnv("FLEET_LOG", ""),
		Debug: debug,
	}
	return cfg, nil
}

// String returns a representation with the token masked.
func (c *Config) String() string {
	token := "(none)"
	if c.API.Token != "" {
		token = "***"
	}
	return fmt.Sprintf("Config{API: %s, token: %s, server: %s, db: %s, drafts: %s}",
		c.API.URL, token, c.Server.Addr, c.Server.DB, c.Local.DraftsDB)
}

// localPath places client state under the user config directory, or the
// working directory when there is none.
func localPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "fleetdesk-" + name
	}
	return filepath.Join(dir, "fleetdesk", name)
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
