package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("a", "value-a")
	got, ok := c.Get("a")
	if !ok || got != "value-a" {
		t.Errorf("Get(a) = %q, %v; want value-a, true", got, ok)
	}

	c.Set("a", "value-a2")
	got, _ = c.Get("a")
	if got != "value-a2" {
		t.Errorf("overwrite not applied, got %q", got)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d after overwrite, want 1", c.Size())
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	// Touch k0 so k1 becomes the eviction candidate.
	c.Get("k0")
	c.Set("k3", 3)

	if _, ok := c.Get("k1"); ok {
		t.Error("k1 should have been evicted")
	}
	for _, key := range []string{"k0", "k2", "k3"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should still be cached", key)
		}
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("k", 1)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should miss")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry should be removed on read, size = %d", c.Size())
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("old", 1)
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 2)

	removed := c.CleanExpired()
	if removed != 1 {
		t.Errorf("CleanExpired removed %d, want 1", removed)
	}
	if _, ok := c.Get("old"); ok {
		t.Error("old entry should be gone after cleanup")
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry should survive cleanup")
	}
}

func TestLRUCache_Clear(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Clear()

	if c.Size() != 0 {
		t.Errorf("Size = %d after Clear, want 0", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("cleared cache should miss")
	}

	// Cache must stay usable after Clear.
	c.Set("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Error("cache unusable after Clear")
	}
}

func TestLRUCache_DeleteMissingIsNoop(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Delete("nothing")
	if c.Size() != 0 {
		t.Errorf("Size = %d, want 0", c.Size())
	}
}
