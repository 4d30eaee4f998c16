package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache := NewMemoryCache(1024)

	key := "openai|tts-1|Hi"
	value := []byte("pcm-bytes")

	if err := cache.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := cache.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if string(got) != string(value) {
		t.Errorf("value mismatch: got %s, want %s", got, value)
	}

	if cache.Size() != int64(len(value)) {
		t.Errorf("Size mismatch: got %d, want %d", cache.Size(), len(value))
	}

	if err := cache.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if cache.Contains(key) {
		t.Error("key still present after delete")
	}
	if cache.Size() != 0 {
		t.Errorf("Size not zero after delete: %d", cache.Size())
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	cache := NewMemoryCache(100)

	for i := 0; i < 5; i++ {
		if err := cache.Put(fmt.Sprintf("key-%d", i), make([]byte, 20)); err != nil {
			t.Fatalf("Put %d failed: %v", i, err)
		}
	}

	// Touch key-0 and key-1 so key-2 becomes the oldest.
	cache.Get("key-0")
	cache.Get("key-1")

	if err := cache.Put("key-new", make([]byte, 30)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if cache.Contains("key-2") {
		t.Error("key-2 should have been evicted")
	}
	if cache.Contains("key-3") {
		t.Error("key-3 should have been evicted")
	}
	for _, k := range []string{"key-0", "key-1", "key-4", "key-new"} {
		if !cache.Contains(k) {
			t.Errorf("%s should still be cached", k)
		}
	}
	if cache.Size() > 100 {
		t.Errorf("size %d exceeds capacity", cache.Size())
	}
	if got := cache.Stats().Evictions; got != 2 {
		t.Errorf("Evictions = %d, want 2", got)
	}
}

func TestMemoryCache_ItemTooLarge(t *testing.T) {
	cache := NewMemoryCache(10)

	err := cache.Put("big", make([]byte, 11))
	if !errors.Is(err, ErrItemTooLarge) {
		t.Fatalf("expected ErrItemTooLarge, got %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("cache should be empty, has %d entries", cache.Len())
	}
}

func TestMemoryCache_UpdateExisting(t *testing.T) {
	cache := NewMemoryCache(100)

	_ = cache.Put("k", make([]byte, 10))
	_ = cache.Put("k", make([]byte, 40))

	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
	if cache.Size() != 40 {
		t.Errorf("Size = %d, want 40", cache.Size())
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := NewMemoryCache(100)
	_ = cache.Put("a", []byte("x"))

	cache.Get("a")
	cache.Get("a")
	cache.Get("missing")

	s := cache.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", s.Hits, s.Misses)
	}
	if s.ItemCount != 1 {
		t.Errorf("ItemCount = %d, want 1", s.ItemCount)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Errorf("HitRate = %f", s.HitRate)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := NewMemoryCache(100)
	for i := 0; i < 3; i++ {
		_ = cache.Put(fmt.Sprintf("k%d", i), []byte("v"))
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cache.Len() != 0 || cache.Size() != 0 {
		t.Errorf("cache not empty after Clear: len=%d size=%d", cache.Len(), cache.Size())
	}
}

func TestMemoryCache_Prune(t *testing.T) {
	cache := NewMemoryCache(100)
	_ = cache.Put("old", []byte("v"))
	time.Sleep(20 * time.Millisecond)
	_ = cache.Put("new", []byte("v"))

	if n := cache.Prune(10 * time.Millisecond); n != 1 {
		t.Errorf("Prune removed %d, want 1", n)
	}
	if cache.Contains("old") || !cache.Contains("new") {
		t.Error("Prune removed the wrong entry")
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache(4096)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("k-%d-%d", g, i%10)
				_ = cache.Put(key, make([]byte, 16))
				cache.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if cache.Size() > 4096 {
		t.Errorf("size %d exceeds capacity", cache.Size())
	}
}
