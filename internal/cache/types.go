package cache

import (
	"errors"
	"time"
)

var (
	// ErrItemTooLarge is returned when a clip exceeds a tier's capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when stored data cannot be decoded.
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Tier identifies a cache level.
type Tier int

const (
	TierMemory Tier = iota
	TierDisk
	TierRedis
)

func (t Tier) String() string {
	switch t {
	case TierMemory:
		return "memory"
	case TierDisk:
		return "disk"
	case TierRedis:
		return "redis"
	default:
		return "unknown"
	}
}

// Stats holds per-tier counters.
type Stats struct {
	Capacity  int64 // bytes, zero when unbounded
	Size      int64 // bytes
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64

	LastAccess time.Time
	LastEvict  time.Time
}

func (s *Stats) computeHitRate() {
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
}

// Store is implemented by every tier.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Size() int64
	Stats() Stats
}

// Config configures a Manager.
type Config struct {
	MemoryCapacity int64 // bytes

	// DiskPath disables the disk tier when empty.
	DiskPath         string
	DiskCapacity     int64
	CompressionLevel int // zstd level, 0 disables compression

	// RedisURL disables the redis tier when empty.
	RedisURL    string
	RedisPrefix string

	TTL             time.Duration // zero keeps entries until evicted
	CleanupInterval time.Duration
}

// DefaultConfig returns a memory-only configuration.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   32 * 1024 * 1024,
		DiskCapacity:     512 * 1024 * 1024,
		CompressionLevel: 3,
		RedisPrefix:      "parrot:clip:",
		TTL:              7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}
