package infra

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewCacheBounds(t *testing.T) {
	for _, tt := range []struct {
		max  int
		want int64
	}{
		{max: 25, want: 25},
		{max: 0, want: DefaultMaxCacheEntries},
		{max: -3, want: DefaultMaxCacheEntries},
	} {
		c := NewCache[string](tt.max)
		if c.maxEntries != tt.want {
			t.Errorf("NewCache(%d).maxEntries = %d, want %d", tt.max, c.maxEntries, tt.want)
		}
		c.Close()
	}
}

func TestCacheHitMissAndOverwrite(t *testing.T) {
	c := NewCache[[]string](10)
	defer c.Close()

	if got, ok := c.Get("search:s=arrabiata"); ok || got != nil {
		t.Fatalf("empty cache Get = %v, %v", got, ok)
	}

	c.Set("search:s=arrabiata", []string{"52771"}, time.Minute)
	c.Set("search:s=arrabiata", []string{"52771", "52772"}, time.Minute)

	got, ok := c.Get("search:s=arrabiata")
	if !ok || len(got) != 2 {
		t.Errorf("Get after overwrite = %v, %v", got, ok)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache[string](10)
	defer c.Close()

	c.Set("letter:f=a", "apple frangipan tart", 10*time.Millisecond)
	if _, ok := c.Get("letter:f=a"); !ok {
		t.Fatal("entry missing before expiry")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("letter:f=a"); ok {
		t.Error("entry served after expiry")
	}
	if c.Size() != 0 {
		t.Errorf("Size = %d after expiry", c.Size())
	}
}

func TestCacheOverwriteRenewsTTL(t *testing.T) {
	c := NewCache[string](10)
	defer c.Close()

	c.Set("k", "old", 30*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	c.Set("k", "new", time.Second)
	time.Sleep(25 * time.Millisecond)

	if v, ok := c.Get("k"); !ok || v != "new" {
		t.Errorf("Get = %q, %v; want renewed entry", v, ok)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache[int](5)
	defer c.Close()

	for i := range 5 {
		c.Set(fmt.Sprintf("k%d", i), i, time.Minute)
	}
	time.Sleep(2 * time.Millisecond)
	c.Get("k0") // keep the oldest entry warm

	c.Set("k5", 5, time.Minute)
	time.Sleep(50 * time.Millisecond) // eviction runs asynchronously

	if c.Size() > 5 {
		t.Errorf("Size = %d, want <= 5", c.Size())
	}
	if c.Evictions() == 0 {
		t.Error("no evictions recorded")
	}
	if _, ok := c.Get("k0"); !ok {
		t.Error("recently used entry was evicted")
	}
}

func TestCacheGetRefreshesAccessTime(t *testing.T) {
	c := NewCache[string](10)
	defer c.Close()

	c.Set("k", "v", time.Minute)
	raw, _ := c.entries.Load("k")
	e := raw.(*cacheEntry[string])
	before := e.accessedAt.Load()

	time.Sleep(2 * time.Millisecond)
	c.Get("k")

	if e.accessedAt.Load() <= before {
		t.Error("Get did not refresh the access time")
	}
}

func TestCacheConcurrentUse(t *testing.T) {
	c := NewCache[int](100)
	defer c.Close()

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				key := fmt.Sprintf("k%d", (w+j)%20)
				if j%2 == 0 {
					c.Set(key, j, time.Minute)
				} else {
					c.Get(key)
				}
			}
		}()
	}
	wg.Wait()

	if c.Size() > 20 {
		t.Errorf("Size = %d, want <= 20 distinct keys", c.Size())
	}
}

func TestCacheCloseTwice(t *testing.T) {
	c := NewCache[int](1)
	c.Close()
	c.Close()
}
