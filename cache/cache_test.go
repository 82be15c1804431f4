// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)

	c.Set("key1", 42)

	val, ok := c.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}

	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected nonexistent key to not exist")
	}
}

func TestSetUpdatesExisting(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)

	c.Set("key", 1)
	c.Set("key", 2)

	if val, _ := c.Get("key"); val != 2 {
		t.Errorf("expected updated value 2, got %d", val)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestGetOrCreate(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)
	created := 0

	val := c.GetOrCreate("key1", func() int {
		created++
		return 100
	})
	if val != 100 {
		t.Errorf("expected 100, got %d", val)
	}

	val = c.GetOrCreate("key1", func() int {
		created++
		return 200
	})
	if val != 100 {
		t.Errorf("expected cached 100, got %d", val)
	}
	if created != 1 {
		t.Errorf("expected create called once, got %d", created)
	}
}

func TestEviction(t *testing.T) {
	// Identity hash pins every key to one shard, so per-shard capacity
	// is observable directly.
	c := NewSharded[uint64, int](2, func(uint64) uint64 { return 0 })

	c.Set(1, 1)
	c.Set(2, 2)
	c.Set(3, 3)

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", c.Len())
	}
	if _, ok := c.Get(1); ok {
		t.Error("expected oldest entry to be evicted")
	}
	if _, ok := c.Get(3); !ok {
		t.Error("expected newest entry to survive")
	}
	if st := c.Stats(); st.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", st.Evictions)
	}
}

func TestLRUOrder(t *testing.T) {
	c := NewSharded[uint64, int](2, func(uint64) uint64 { return 0 })

	c.Set(1, 1)
	c.Set(2, 2)
	c.Get(1) // 2 is now oldest
	c.Set(3, 3)

	if _, ok := c.Get(2); ok {
		t.Error("expected least recently used entry to be evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("expected recently touched entry to survive")
	}
}

func TestDelete(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)

	c.Set("key", 1)
	if !c.Delete("key") {
		t.Error("expected Delete to report removal")
	}
	if c.Delete("key") {
		t.Error("expected second Delete to report absence")
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestClear(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)

	for i := 0; i < 20; i++ {
		c.Set(strconv.Itoa(i), i)
	}
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d entries", c.Len())
	}
}

func TestDefaultCapacity(t *testing.T) {
	c := NewSharded[string, int](0, StringHasher)
	if c.Capacity() != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, c.Capacity())
	}
}

func TestStats(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)

	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	st := c.Stats()
	if st.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", st.Hits)
	}
	if st.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", st.Misses)
	}
	if st.HitRate < 0.66 || st.HitRate > 0.67 {
		t.Errorf("unexpected hit rate %f", st.HitRate)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewSharded[string, int](64, StringHasher)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := strconv.Itoa(i % 32)
				c.GetOrCreate(key, func() int { return i })
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() == 0 {
		t.Error("expected entries after concurrent writes")
	}
}
