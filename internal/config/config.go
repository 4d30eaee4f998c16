// Package config loads process configuration from the environment, after
// merging a .env file from the working directory when one exists.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"

	"github.com/dgnsrekt/parrot/internal/cache"
)

// AppName scopes user directories.
const AppName = "parrot"

// Config is the process configuration.
type Config struct {
	LogLevel string `env:"PARROT_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"PARROT_LOG_FILE"`

	// Endpoint, when set, sends synthesis to a remote parrot server instead
	// of calling providers in-process.
	Endpoint          string        `env:"PARROT_ENDPOINT"`
	EndpointTimeout   time.Duration `env:"PARROT_ENDPOINT_TIMEOUT" envDefault:"30s"`
	RequestsPerMinute int           `env:"PARROT_REQUESTS_PER_MINUTE" envDefault:"60"`

	CacheDir              string `env:"PARROT_CACHE_DIR"`
	CacheMemoryMB         int    `env:"PARROT_CACHE_MEMORY_MB" envDefault:"32"`
	CacheDiskMB           int    `env:"PARROT_CACHE_DISK_MB" envDefault:"512"`
	CacheCompressionLevel int    `env:"PARROT_CACHE_COMPRESSION_LEVEL" envDefault:"3"`
	CacheTTLDays          int    `env:"PARROT_CACHE_TTL_DAYS" envDefault:"7"`
	RedisURL              string `env:"PARROT_REDIS_URL"`

	ListenAddr  string   `env:"PARROT_LISTEN_ADDR" envDefault:"127.0.0.1:8750"`
	CORSOrigins []string `env:"PARROT_CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	OpenAIBaseURL     string `env:"PARROT_OPENAI_BASE_URL"`
	ElevenLabsBaseURL string `env:"PARROT_ELEVENLABS_BASE_URL"`
	ElevenLabsVoiceID string `env:"PARROT_ELEVENLABS_VOICE_ID"`
	GeminiBaseURL     string `env:"PARROT_GEMINI_BASE_URL"`
	GeminiVoice       string `env:"PARROT_GEMINI_VOICE"`
}

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir()
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges and formats.
func (c Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("PARROT_LOG_LEVEL: %w", err))
	}
	if c.CacheMemoryMB <= 0 {
		errs = append(errs, fmt.Errorf("PARROT_CACHE_MEMORY_MB must be positive, got %d", c.CacheMemoryMB))
	}
	if c.CacheDiskMB < 0 {
		errs = append(errs, fmt.Errorf("PARROT_CACHE_DISK_MB must not be negative, got %d", c.CacheDiskMB))
	}
	if c.CacheCompressionLevel < 0 || c.CacheCompressionLevel > 22 {
		errs = append(errs, fmt.Errorf("PARROT_CACHE_COMPRESSION_LEVEL must be 0-22, got %d", c.CacheCompressionLevel))
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("PARROT_REQUESTS_PER_MINUTE must not be negative, got %d", c.RequestsPerMinute))
	}
	if c.EndpointTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PARROT_ENDPOINT_TIMEOUT must be positive"))
	}
	if c.Endpoint != "" && !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		errs = append(errs, fmt.Errorf("PARROT_ENDPOINT must be an http(s) URL, got %q", c.Endpoint))
	}
	if c.RedisURL != "" && !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		errs = append(errs, fmt.Errorf("PARROT_REDIS_URL must be a redis:// URL"))
	}
	return errors.Join(errs...)
}

// Cache returns the cache configuration. The disk tier is disabled when
// PARROT_CACHE_DISK_MB is zero.
func (c Config) Cache() cache.Config {
	cc := cache.DefaultConfig()
	cc.MemoryCapacity = int64(c.CacheMemoryMB) << 20
	cc.DiskCapacity = int64(c.CacheDiskMB) << 20
	cc.CompressionLevel = c.CacheCompressionLevel
	cc.RedisURL = c.RedisURL
	cc.TTL = time.Duration(c.CacheTTLDays) * 24 * time.Hour
	if c.CacheDiskMB > 0 {
		cc.DiskPath = filepath.Join(c.CacheDir, "clips")
	}
	return cc
}

// DefaultCacheDir is the per-user cache directory.
func DefaultCacheDir() string {
	dir, err := gap.NewScope(gap.User, AppName).CacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return dir
}
