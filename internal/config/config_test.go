package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PARROT_CACHE_DIR", "/tmp/parrot-cache")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.EndpointTimeout)
	assert.Equal(t, 60, cfg.RequestsPerMinute)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "/tmp/parrot-cache", cfg.CacheDir)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PARROT_CACHE_DIR", "/tmp/c")
	t.Setenv("PARROT_ENDPOINT", "http://localhost:8750")
	t.Setenv("PARROT_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("PARROT_CACHE_MEMORY_MB", "8")
	t.Setenv("PARROT_CACHE_DISK_MB", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8750", cfg.Endpoint)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)

	cc := cfg.Cache()
	assert.Equal(t, int64(8<<20), cc.MemoryCapacity)
	assert.Empty(t, cc.DiskPath, "zero disk size disables the disk tier")
}

func TestValidate(t *testing.T) {
	valid := Config{LogLevel: "info", CacheMemoryMB: 1, EndpointTimeout: time.Second}
	require.NoError(t, valid.Validate())

	tests := map[string]func(*Config){
		"log level":   func(c *Config) { c.LogLevel = "loud" },
		"memory":      func(c *Config) { c.CacheMemoryMB = 0 },
		"disk":        func(c *Config) { c.CacheDiskMB = -1 },
		"compression": func(c *Config) { c.CacheCompressionLevel = 23 },
		"rate":        func(c *Config) { c.RequestsPerMinute = -1 },
		"timeout":     func(c *Config) { c.EndpointTimeout = 0 },
		"endpoint":    func(c *Config) { c.Endpoint = "localhost:8750" },
		"redis":       func(c *Config) { c.RedisURL = "localhost:6379" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCacheConfig(t *testing.T) {
	cfg := Config{
		CacheDir:              "/var/cache/parrot",
		CacheMemoryMB:         4,
		CacheDiskMB:           16,
		CacheCompressionLevel: 5,
		CacheTTLDays:          2,
		RedisURL:              "redis://localhost:6379/0",
	}
	cc := cfg.Cache()

	assert.Equal(t, "/var/cache/parrot/clips", cc.DiskPath)
	assert.Equal(t, int64(16<<20), cc.DiskCapacity)
	assert.Equal(t, 5, cc.CompressionLevel)
	assert.Equal(t, 48*time.Hour, cc.TTL)
	assert.Equal(t, "redis://localhost:6379/0", cc.RedisURL)
}
