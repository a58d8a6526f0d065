// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCache_BasicOperations(t *testing.T) {
	c := New[string]("test", 3, time.Hour)

	c.Set("a", "alpha", time.Minute)
	c.Set("b", "beta", time.Minute)

	if v, ok := c.Get("a"); !ok || v != "alpha" {
		t.Errorf("Expected alpha, got %q (found=%v)", v, ok)
	}
	if !c.Has("b") {
		t.Error("Expected Has(b) to be true")
	}
	if c.Has("missing") {
		t.Error("Expected Has(missing) to be false")
	}
	if c.Len() != 2 {
		t.Errorf("Expected len 2, got %d", c.Len())
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := New[int]("test", 3, time.Hour)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Set("c", 3, time.Minute)

	// Access 'a' to make it most recently used
	c.Get("a")

	// Insert at capacity; 'b' is now LRU and must go
	c.Set("d", 4, time.Minute)

	if _, ok := c.Get("b"); ok {
		t.Error("Expected 'b' to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("Expected %q to be present", k)
		}
	}
}

func TestCache_ExpiredEntryIsMissButStaleReadable(t *testing.T) {
	c := New[string]("test", 8, time.Hour)

	c.Set("k", "old", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Expected expired entry to behave as a miss")
	}
	if v, ok := c.GetStale("k"); !ok || v != "old" {
		t.Errorf("Expected GetStale to return retained value, got %q (found=%v)", v, ok)
	}
}

func TestCache_SetReplacesEntry(t *testing.T) {
	c := New[string]("test", 8, time.Hour)

	c.Set("k", "v1", time.Minute)
	c.Set("k", "v2", time.Minute)

	if v, _ := c.Get("k"); v != "v2" {
		t.Errorf("Expected v2, got %q", v)
	}
	if c.Len() != 1 {
		t.Errorf("Expected single entry, got %d", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[string]("test", 8, time.Hour)

	c.Set("k", "v", time.Minute)
	if !c.Delete("k") {
		t.Error("Expected Delete to report existing entry")
	}
	if c.Delete("k") {
		t.Error("Expected Delete on missing key to report false")
	}
}

func TestCache_Clear(t *testing.T) {
	c := New[string]("test", 8, time.Hour)

	c.Set("a", "1", time.Minute)
	c.Set("b", "2", time.Minute)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Expected entries gone after Clear")
	}
}

func TestCache_Stats(t *testing.T) {
	c := New[string]("test", 4, time.Hour)

	c.Set("a", "1", time.Minute)
	c.Get("a")       // hit
	c.Get("a")       // hit
	c.Get("missing") // miss

	s := c.Stats()
	if s.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", s.Misses)
	}
	if s.Size != 1 || s.Capacity != 4 {
		t.Errorf("Expected size 1 capacity 4, got %d/%d", s.Size, s.Capacity)
	}
}

func TestCache_SweepHonorsStaleRetention(t *testing.T) {
	c := New[string]("test", 8, 50*time.Millisecond)

	c.Set("fresh", "f", time.Minute)
	c.Set("stale", "s", 5*time.Millisecond)

	// Expired but inside the retention window: sweep keeps it.
	time.Sleep(15 * time.Millisecond)
	if removed := c.Sweep(); removed != 0 {
		t.Errorf("Expected no removals inside retention window, got %d", removed)
	}
	if _, ok := c.GetStale("stale"); !ok {
		t.Error("Expected stale entry retained inside retention window")
	}

	// Past retention: sweep removes it.
	time.Sleep(60 * time.Millisecond)
	if removed := c.Sweep(); removed != 1 {
		t.Errorf("Expected 1 removal past retention window, got %d", removed)
	}
	if _, ok := c.GetStale("stale"); ok {
		t.Error("Expected stale entry removed after retention window")
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("Expected fresh entry to survive sweep")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int]("test", 128, time.Hour)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key-%d", i%32)
				c.Set(key, g*1000+i, time.Minute)
				c.Get(key)
				if i%50 == 0 {
					c.Sweep()
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 128 {
		t.Errorf("Expected at most 128 entries, got %d", c.Len())
	}
}

func TestHashKey(t *testing.T) {
	a := HashKey("secret-api-key")
	b := HashKey("secret-api-key")
	other := HashKey("different")

	if a != b {
		t.Error("Expected deterministic hash")
	}
	if a == other {
		t.Error("Expected distinct inputs to hash differently")
	}
	if len(a) != 16 {
		t.Errorf("Expected 16-char digest, got %d", len(a))
	}
	if a == "secret-api-key" {
		t.Error("Hash must not equal the raw secret")
	}
}
