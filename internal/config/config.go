// Package config loads the docqa server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the docqa API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	Upload     UploadConfig     `yaml:"upload"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig maps static bearer tokens to principals. No tokens disables auth.
type AuthConfig struct {
	Tokens []TokenConfig `yaml:"tokens"`
}

// TokenConfig binds one bearer token to a user and role.
type TokenConfig struct {
	Token  string `yaml:"token"`
	UserID string `yaml:"user_id"`
	Role   string `yaml:"role"` // admin | user
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds filesystem and key layout settings.
type StorageConfig struct {
	RootDir    string `yaml:"root_dir"`    // chunk store root
	UploadsDir string `yaml:"uploads_dir"` // relocated uploads
	KeyPrefix  string `yaml:"key_prefix"`  // Redis key prefix
}

// ChunkingConfig holds splitter parameters.
type ChunkingConfig struct {
	MaxSize int `yaml:"max_size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider    string      `yaml:"provider"`
	APIKey      string      `yaml:"api_key"`
	BaseURL     string      `yaml:"base_url"`
	Model       string      `yaml:"model"`
	Dimensions  int         `yaml:"dimensions"`
	BatchSize   int         `yaml:"batch_size"`
	Parallelism int         `yaml:"parallelism"`
	Cache       CacheConfig `yaml:"cache"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"` // 0 = no expiry
}

// GenerationConfig holds chat completion provider settings.
type GenerationConfig struct {
	Provider     string          `yaml:"provider"`
	APIKey       string          `yaml:"api_key"`
	BaseURL      string          `yaml:"base_url"`
	Model        string          `yaml:"model"`
	Temperature  float32         `yaml:"temperature"`
	MaxTokens    int             `yaml:"max_tokens"`
	SystemPrompt string          `yaml:"system_prompt"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig holds a token bucket. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// UploadConfig bounds multipart uploads.
type UploadConfig struct {
	MaxBytes int64  `yaml:"max_bytes"`
	MaxFiles int    `yaml:"max_files"`
	TempDir  string `yaml:"temp_dir"` // empty = os.TempDir()
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first if present.
func Load(env string) (Config, error) {
	loadDotEnv()
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.RootDir == "" {
		c.Storage.RootDir = "data"
	}
	if c.Storage.UploadsDir == "" {
		c.Storage.UploadsDir = filepath.Join(c.Storage.RootDir, "uploads")
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "docqa:"
	}
	if c.Chunking.MaxSize == 0 {
		c.Chunking.MaxSize = 1536
		if c.Chunking.Overlap == 0 {
			c.Chunking.Overlap = 200
		}
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 256
	}
	if c.Embedding.Parallelism <= 0 {
		c.Embedding.Parallelism = 4
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = c.Embedding.Provider
	}
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = c.Embedding.APIKey
	}
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = c.Embedding.BaseURL
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4o-mini"
	}
	if c.Generation.RateLimit.RPS > 0 && c.Generation.RateLimit.Burst <= 0 {
		c.Generation.RateLimit.Burst = 1
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = 32 << 20
	}
	if c.Upload.MaxFiles <= 0 {
		c.Upload.MaxFiles = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return errors.New("database.addrs is required")
	}
	if c.Chunking.Overlap < 0 || c.Chunking.MaxSize <= c.Chunking.Overlap {
		return fmt.Errorf("chunking.max_size must exceed chunking.overlap >= 0, got %d/%d",
			c.Chunking.MaxSize, c.Chunking.Overlap)
	}
	if c.Embedding.Cache.TTLSec < 0 {
		return fmt.Errorf("embedding.cache.ttl_sec must be >= 0, got %d", c.Embedding.Cache.TTLSec)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %v", c.Generation.Temperature)
	}
	if c.Generation.RateLimit.RPS < 0 {
		return fmt.Errorf("generation.rate_limit.rps must be >= 0, got %v", c.Generation.RateLimit.RPS)
	}

	seen := make(map[string]struct{}, len(c.Auth.Tokens))
	for i, t := range c.Auth.Tokens {
		if t.Token == "" {
			return fmt.Errorf("auth.tokens[%d].token is required", i)
		}
		if _, dup := seen[t.Token]; dup {
			return fmt.Errorf("auth.tokens[%d].token is duplicated", i)
		}
		seen[t.Token] = struct{}{}
		if t.UserID == "" {
			return fmt.Errorf("auth.tokens[%d].user_id is required", i)
		}
		switch t.Role {
		case "admin", "user":
		default:
			return fmt.Errorf("auth.tokens[%d].role must be \"admin\" or \"user\", got %q", i, t.Role)
		}
	}
	return nil
}

// loadDotEnv preloads .env without overriding variables already set.
func loadDotEnv() {
	if fileExists(".env") {
		_ = godotenv.Load()
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
