// Package config loads the server configuration from command-line flags,
// environment variables and a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Data       DataConfig
	Server     ServerConfig
	Generation GenerationConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates the persisted library.
type DataConfig struct {
	Path string // root of the store, search index and backups
}

// StorePath is the Badger directory.
func (d DataConfig) StorePath() string { return filepath.Join(d.Path, "store") }

// BackupPath is the directory of library backups.
func (d DataConfig) BackupPath() string { return filepath.Join(d.Path, "backups") }

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // default 8080
	ReadTimeout  time.Duration // default 15s
	WriteTimeout time.Duration // default 0, generation streams stay open
	IdleTimeout  time.Duration // default 60s
	CORSOrigins  []string      // default http://localhost:5173
}

// GenerationConfig holds text-generation client configuration.
type GenerationConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration // per call; 0 means none
	RPS     float64       // outbound calls per second per credential
	Burst   int
	PlanTTL time.Duration
}

// Default generation endpoint.
const (
	DefaultGenerationBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGenerationModel   = "gemini-1.5-flash-latest"
)

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("fabrica", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data", "", "Data directory (default: ~/Fabrica)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 0, none)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed origins")

	genBaseURL := fs.String("generation-base-url", "", "Text generation API base URL")
	genModel := fs.String("generation-model", "", "Text generation model")
	genTimeout := fs.String("generation-timeout", "", "Per-call generation timeout (default: 0, none)")
	genRPS := fs.String("generation-rps", "", "Generation calls per second (default: 2)")
	genBurst := fs.String("generation-burst", "", "Generation burst size (default: 4)")
	planTTL := fs.String("generation-plan-ttl", "", "Lifetime of an uncommitted generation plan (default: 10m)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env file is fine.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			Path: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "http://localhost:5173")),
		},
		Generation: GenerationConfig{
			BaseURL: strings.TrimRight(getConfigValue(*genBaseURL, "GENERATION_BASE_URL", DefaultGenerationBaseURL), "/"),
			Model:   getConfigValue(*genModel, "GENERATION_MODEL", DefaultGenerationModel),
		},
	}

	durations := []struct {
		dest         *time.Duration
		flagValue    string
		envKey       string
		defaultValue string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "0s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Generation.Timeout, *genTimeout, "GENERATION_TIMEOUT", "0s"},
		{&cfg.Generation.PlanTTL, *planTTL, "GENERATION_PLAN_TTL", "10m"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.defaultValue)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dest = parsed
	}

	rpsStr := getConfigValue(*genRPS, "GENERATION_RPS", "2")
	rps, err := strconv.ParseFloat(rpsStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATION_RPS %q: %w", rpsStr, err)
	}
	cfg.Generation.RPS = rps
	cfg.Generation.Burst = getIntConfigValue(*genBurst, "GENERATION_BURST", 4)

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.Path == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Generation.BaseURL == "" || c.Generation.Model == "" {
		return errors.New("generation base URL and model are required")
	}
	if c.Generation.Timeout < 0 {
		return errors.New("generation timeout cannot be negative")
	}
	if c.Generation.Burst < 1 {
		return errors.New("generation burst must be at least 1")
	}
	if c.Generation.PlanTTL <= 0 {
		return errors.New("generation plan TTL must be positive")
	}
	return nil
}

// ExpandPath expands ~ and makes the path absolute. An empty path yields
// defaultPath.
func ExpandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}
	return filepath.Clean(path), nil
}

// DefaultDataPath is ~/Fabrica.
func DefaultDataPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, "Fabrica"), nil
}

func (c *Config) expandDataPath() error {
	if c.Data.Path == "" {
		def, err := DefaultDataPath()
		if err != nil {
			return err
		}
		c.Data.Path = def
		return nil
	}

	expanded, err := ExpandPath(c.Data.Path, "")
	if err != nil {
		return err
	}
	c.Data.Path = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
