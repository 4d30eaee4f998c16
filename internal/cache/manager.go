package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// TierStats pairs a tier with its counters.
type TierStats struct {
	Tier Tier
	Stats
}

// ManagerStats aggregates lookups across tiers.
type ManagerStats struct {
	Hits        int64
	Misses      int64
	Promotions  int64
	CleanupRuns int64
	LastCleanup time.Time
	Tiers       []TierStats
}

// HitRate returns hits / (hits + misses), or zero before any lookup.
func (s ManagerStats) HitRate() float64 {
	if total := s.Hits + s.Misses; total > 0 {
		return float64(s.Hits) / float64(total)
	}
	return 0
}

// Manager reads through the tiers in order (memory, disk, redis), promoting
// lower-tier hits into memory, and writes through to all of them.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache  // nil when disabled
	redis  *RedisCache // nil when disabled

	cfg    Config
	logger *log.Logger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu    sync.Mutex
	stats ManagerStats
}

// NewManager builds the tiers enabled by cfg. A Redis tier that cannot be
// reached is reported as an error rather than silently skipped.
func NewManager(ctx context.Context, cfg Config, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.MemoryCapacity <= 0 {
		cfg.MemoryCapacity = DefaultConfig().MemoryCapacity
	}

	m := &Manager{
		memory: NewMemoryCache(cfg.MemoryCapacity),
		cfg:    cfg,
		logger: logger.With("component", "cache"),
		stop:   make(chan struct{}),
	}

	if cfg.DiskPath != "" {
		disk, err := NewDiskCache(cfg.DiskPath, cfg.DiskCapacity, cfg.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("disk cache: %w", err)
		}
		m.disk = disk
	}

	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(ctx, cfg.RedisURL, cfg.RedisPrefix, cfg.TTL)
		if err != nil {
			if m.disk != nil {
				_ = m.disk.Close()
			}
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		m.redis = rc
	}

	if cfg.CleanupInterval > 0 && (m.disk != nil || cfg.TTL > 0) {
		m.wg.Add(1)
		go m.cleanupLoop(cfg.CleanupInterval)
	}

	m.logger.Debug("cache ready",
		"memory", cfg.MemoryCapacity,
		"disk", cfg.DiskPath,
		"redis", m.redis != nil)

	return m, nil
}

func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.record(true, false)
		return data, true
	}

	if m.disk != nil {
		if data, ok := m.disk.Get(key); ok {
			m.promote(key, data)
			m.record(true, true)
			return data, true
		}
	}

	if m.redis != nil {
		if data, ok := m.redis.Get(key); ok {
			m.promote(key, data)
			m.record(true, true)
			return data, true
		}
	}

	m.record(false, false)
	return nil, false
}

// Put writes value to every tier. Only a memory-tier failure is returned;
// disk and redis failures are logged.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.memory.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		return fmt.Errorf("memory tier: %w", err)
	}

	if m.disk != nil {
		if err := m.disk.Put(key, value); err != nil {
			m.logger.Warn("disk tier write failed", "err", err)
		}
	}
	if m.redis != nil {
		if err := m.redis.Put(key, value); err != nil {
			m.logger.Warn("redis tier write failed", "err", err)
		}
	}
	return nil
}

func (m *Manager) Delete(key string) error {
	var errs []error
	errs = append(errs, m.memory.Delete(key))
	if m.disk != nil {
		errs = append(errs, m.disk.Delete(key))
	}
	if m.redis != nil {
		errs = append(errs, m.redis.Delete(key))
	}
	return errors.Join(errs...)
}

func (m *Manager) Clear() error {
	var errs []error
	errs = append(errs, m.memory.Clear())
	if m.disk != nil {
		if err := m.disk.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("disk tier: %w", err))
		}
	}
	if m.redis != nil {
		if err := m.redis.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("redis tier: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Size reports bytes held by the local tiers.
func (m *Manager) Size() int64 {
	size := m.memory.Size()
	if m.disk != nil {
		size += m.disk.Size()
	}
	return size
}

func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	s := m.stats
	m.mu.Unlock()

	s.Tiers = append(s.Tiers, TierStats{Tier: TierMemory, Stats: m.memory.Stats()})
	if m.disk != nil {
		s.Tiers = append(s.Tiers, TierStats{Tier: TierDisk, Stats: m.disk.Stats()})
	}
	if m.redis != nil {
		s.Tiers = append(s.Tiers, TierStats{Tier: TierRedis, Stats: m.redis.Stats()})
	}
	return s
}

// Cleanup applies the TTL and persists the disk index. It runs periodically
// when a cleanup interval is configured.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	m.stats.CleanupRuns++
	m.stats.LastCleanup = time.Now()
	m.mu.Unlock()

	if m.cfg.TTL > 0 {
		if n := m.memory.Prune(m.cfg.TTL); n > 0 {
			m.logger.Debug("pruned expired clips", "tier", TierMemory, "count", n)
		}
		if m.disk != nil {
			if n := m.disk.RemoveOlderThan(time.Now().Add(-m.cfg.TTL)); n > 0 {
				m.logger.Debug("pruned expired clips", "tier", TierDisk, "count", n)
			}
		}
	}

	if m.disk != nil {
		if err := m.disk.Flush(); err != nil {
			m.logger.Warn("flush disk index", "err", err)
		}
	}
}

// Close stops the cleanup loop and releases every tier. It is safe to call
// more than once.
func (m *Manager) Close() error {
	var errs []error
	m.once.Do(func() {
		close(m.stop)
		m.wg.Wait()

		if m.disk != nil {
			errs = append(errs, m.disk.Close())
		}
		if m.redis != nil {
			errs = append(errs, m.redis.Close())
		}
	})
	return errors.Join(errs...)
}

func (m *Manager) cleanupLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) promote(key string, data []byte) {
	_ = m.memory.Put(key, data)
}

func (m *Manager) record(hit, promoted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hit {
		m.stats.Hits++
	} else {
		m.stats.Misses++
	}
	if promoted {
		m.stats.Promotions++
	}
}
