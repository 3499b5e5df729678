package upstream

import (
	"fmt"
	"testing"
)

func TestUserAgentCacheFixed(t *testing.T) {
	cache := NewUserAgentCache(false, 10)

	for i := 0; i < 5; i++ {
		device := fmt.Sprintf("device-%d", i)
		if got := cache.For(device); got != DefaultUserAgent {
			t.Errorf("For(%q) = %q, want the default agent", device, got)
		}
	}

	if cache.Len() != 0 {
		t.Errorf("fixed-mode cache stored %d entries, want 0", cache.Len())
	}
}

func TestUserAgentCacheStablePerDevice(t *testing.T) {
	cache := NewUserAgentCache(true, 10)

	first := cache.For("device-a")
	for i := 0; i < 20; i++ {
		if got := cache.For("device-a"); got != first {
			t.Fatalf("agent changed for the same device: %q then %q", first, got)
		}
	}
}

func TestUserAgentCacheAgentsFromPool(t *testing.T) {
	cache := NewUserAgentCache(true, 100)
	pool := make(map[string]bool, len(browserPool))
	for _, ua := range browserPool {
		pool[ua] = true
	}

	for i := 0; i < 50; i++ {
		agent := cache.For(fmt.Sprintf("device-%d", i))
		if !pool[agent] {
			t.Errorf("agent %q not in the browser pool", agent)
		}
	}
}

func TestUserAgentCacheBounded(t *testing.T) {
	cache := NewUserAgentCache(true, 3)

	for i := 0; i < 10; i++ {
		if agent := cache.For(fmt.Sprintf("device-%d", i)); agent == "" {
			t.Error("cache at capacity returned empty agent")
		}
	}

	if cache.Len() > 3 {
		t.Errorf("cache grew to %d entries, bound is 3", cache.Len())
	}
}

func TestUserAgentCacheConcurrent(t *testing.T) {
	cache := NewUserAgentCache(true, 50)
	done := make(chan struct{})

	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				cache.For(fmt.Sprintf("device-%d", i%20))
			}
		}(g)
	}

	for g := 0; g < 8; g++ {
		<-done
	}

	if cache.Len() > 50 {
		t.Errorf("cache grew to %d entries, bound is 50", cache.Len())
	}
}
