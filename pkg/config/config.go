// Package config provides configuration management for the billed tools.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Store    StoreConfig
	User     UserConfig
	Data     DataConfig
	Debug    bool
	LogLevel string
}

// StoreConfig represents the bill store API configuration.
type StoreConfig struct {
	APIURL       string
	AccessToken  string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// UserConfig represents the signed-in employee.
type UserConfig struct {
	Email string
	Type  string
}

// DataConfig represents local file locations.
type DataConfig struct {
	Root        string
	DBPath      string
	CatalogPath string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	timeout, err := parseDurationEnv("BILLED_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid BILLED_TIMEOUT: %w", err)
	}

	config := &Config{
		Store: StoreConfig{
			APIURL:       getEnvOrDefault("BILLED_API_URL", "http://localhost:8080"),
			AccessToken:  os.Getenv("BILLED_ACCESS_TOKEN"),
			ClientID:     os.Getenv("BILLED_CLIENT_ID"),
			ClientSecret: os.Getenv("BILLED_CLIENT_SECRET"),
			Timeout:      timeout,
		},
		User: UserConfig{
			Email: os.Getenv("BILLED_USER_EMAIL"),
			Type:  getEnvOrDefault("BILLED_USER_TYPE", "Employee"),
		},
		Data: DataConfig{
			Root:        getEnvOrDefault("BILLED_DATA_ROOT", "./data"),
			DBPath:      os.Getenv("BILLED_DB_PATH"),
			CatalogPath: os.Getenv("BILLED_CATALOG_PATH"),
		},
		Debug:    os.Getenv("DEBUG") == "true",
		LogLevel: os.Getenv("LOG_LEVEL"),
	}

	return config, nil
}

// Validate validates the configuration.
// Each required entry is a path such as []string{"user", "email"}.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "store":
			switch path[1] {
			case "apiUrl":
				value = c.Store.APIURL
			case "accessToken":
				value = c.Store.AccessToken
			case "clientId":
				value = c.Store.ClientID
			case "clientSecret":
				value = c.Store.ClientSecret
			case "credentials":
				if c.Store.AccessToken != "" || (c.Store.ClientID != "" && c.Store.ClientSecret != "") {
					value = "set"
				}
			}
		case "user":
			switch path[1] {
			case "email":
				value = c.User.Email
			case "type":
				value = c.User.Type
			}
		case "data":
			switch path[1] {
			case "root":
				value = c.Data.Root
			case "dbPath":
				value = c.Data.DBPath
			case "catalogPath":
				value = c.Data.CatalogPath
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationEnv parses a duration such as "30s" from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %s", key, value)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("duration for %s must be positive: %s", key, value)
	}

	return parsed, nil
}
