package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	indexFile       = "clips.index"
	clipExt         = ".clip"
	compressMinSize = 1024
)

// DiskCache keeps clips as individual files under a directory, optionally
// zstd-compressed, and bounds the total on-disk size by evicting the least
// recently read clips.
type DiskCache struct {
	mu       sync.Mutex
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry
	dirty bool

	stats Stats
}

// diskEntry is persisted in the gob index, so its fields are exported.
type diskEntry struct {
	Key        string
	File       string
	DiskSize   int64
	RawSize    int64
	StoredAt   time.Time
	LastAccess time.Time
	Compressed bool
}

// NewDiskCache opens (or creates) a disk cache rooted at dir. A
// compressionLevel of zero stores clips uncompressed.
func NewDiskCache(dir string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dc := &DiskCache{
		dir:      dir,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Capacity: capacity},
	}

	if compressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
	}
	var err error
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	if err := dc.loadIndex(); err != nil {
		dc.index = make(map[string]*diskEntry)
	}
	dc.reconcile()

	return dc, nil
}

func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.File)
	if err == nil && entry.Compressed {
		data, err = dc.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		dc.dropEntry(entry)
		dc.stats.Misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	dc.dirty = true
	dc.stats.Hits++
	dc.stats.LastAccess = entry.LastAccess
	return data, true
}

func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	payload := value
	compressed := false
	if dc.encoder != nil && len(value) > compressMinSize {
		if enc := dc.encoder.EncodeAll(value, nil); len(enc) < len(value) {
			payload = enc
			compressed = true
		}
	}

	n := int64(len(payload))
	if n > dc.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := dc.index[key]; ok {
		dc.dropEntry(existing)
	}
	for dc.size+n > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	path := dc.pathFor(key)
	if err := writeFileAtomic(path, payload); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	now := time.Now()
	dc.index[key] = &diskEntry{
		Key:        key,
		File:       path,
		DiskSize:   n,
		RawSize:    int64(len(value)),
		StoredAt:   now,
		LastAccess: now,
		Compressed: compressed,
	}
	dc.size += n
	dc.dirty = true
	return nil
}

func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if entry, ok := dc.index[key]; ok {
		dc.dropEntry(entry)
	}
	return nil
}

func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for _, entry := range dc.index {
		_ = os.Remove(entry.File)
	}
	dc.index = make(map[string]*diskEntry)
	dc.size = 0
	dc.dirty = true
	return dc.saveIndex()
}

func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.size
}

func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	s := dc.stats
	s.Size = dc.size
	s.ItemCount = int64(len(dc.index))
	s.computeHitRate()
	return s
}

func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	_, ok := dc.index[key]
	return ok
}

// RemoveOlderThan deletes clips stored before cutoff.
func (dc *DiskCache) RemoveOlderThan(cutoff time.Time) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	removed := 0
	for _, entry := range dc.index {
		if entry.StoredAt.Before(cutoff) {
			dc.dropEntry(entry)
			removed++
		}
	}
	return removed
}

// Flush persists the index if it changed since the last flush.
func (dc *DiskCache) Flush() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if !dc.dirty {
		return nil
	}
	return dc.saveIndex()
}

// Close flushes the index and releases the codecs.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	err := dc.saveIndex()
	if dc.encoder != nil {
		_ = dc.encoder.Close()
	}
	dc.decoder.Close()
	return err
}

func (dc *DiskCache) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(dc.dir, hex.EncodeToString(sum[:16])+clipExt)
}

// evictOldest must be called with mu held.
func (dc *DiskCache) evictOldest() {
	var oldest *diskEntry
	for _, entry := range dc.index {
		if oldest == nil || entry.LastAccess.Before(oldest.LastAccess) {
			oldest = entry
		}
	}
	if oldest != nil {
		dc.dropEntry(oldest)
		dc.stats.Evictions++
		dc.stats.LastEvict = time.Now()
	}
}

// dropEntry must be called with mu held.
func (dc *DiskCache) dropEntry(entry *diskEntry) {
	_ = os.Remove(entry.File)
	delete(dc.index, entry.Key)
	dc.size -= entry.DiskSize
	dc.dirty = true
}

// reconcile drops index entries whose file vanished, removes clip files the
// index does not know about, and shrinks the cache to its capacity.
func (dc *DiskCache) reconcile() {
	known := make(map[string]bool, len(dc.index))
	dc.size = 0
	for key, entry := range dc.index {
		info, err := os.Stat(entry.File)
		if err != nil {
			delete(dc.index, key)
			dc.dirty = true
			continue
		}
		entry.DiskSize = info.Size()
		dc.size += entry.DiskSize
		known[filepath.Base(entry.File)] = true
	}

	if files, err := os.ReadDir(dc.dir); err == nil {
		for _, f := range files {
			name := f.Name()
			if strings.HasSuffix(name, clipExt) && !known[name] {
				_ = os.Remove(filepath.Join(dc.dir, name))
			}
		}
	}

	for dc.size > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}
}

func (dc *DiskCache) loadIndex() error {
	f, err := os.Open(filepath.Join(dc.dir, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(&dc.index); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	return nil
}

func (dc *DiskCache) saveIndex() error {
	f, err := os.CreateTemp(dc.dir, indexFile+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	err = gob.NewEncoder(f).Encode(dc.index)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filepath.Join(dc.dir, indexFile)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	dc.dirty = false
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
