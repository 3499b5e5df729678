package upstream

import (
	"math/rand"
	"sync"
)

// DefaultUserAgent is the browser identity presented to the upstream when
// randomization is disabled. It matches the desktop client the upstream's
// own web frontend is served to.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/133.0.0.0 Safari/537.36"

// browserPool holds the identities used when User-Agent randomization is
// enabled. All are current desktop browsers; the upstream rejects nothing,
// but mobile identities change its response markup.
var browserPool = []string{
	DefaultUserAgent,
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:134.0) Gecko/20100101 Firefox/134.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36 Edg/132.0.0.0",
}

// UserAgentCache assigns a stable User-Agent to each device identity. The
// upstream correlates the two, so every request for a given device must
// present the same browser. The cache is bounded: once full, new devices
// still get a consistent-looking identity but it is not remembered, which
// is acceptable because device identities are fresh per request anyway.
type UserAgentCache struct {
	randomize bool
	maxSize   int

	mu       sync.RWMutex
	byDevice map[string]string
}

// NewUserAgentCache creates a cache. With randomize false every device gets
// DefaultUserAgent and nothing is stored. maxSize bounds the number of
// remembered devices; zero or negative disables storage entirely.
func NewUserAgentCache(randomize bool, maxSize int) *UserAgentCache {
	return &UserAgentCache{
		randomize: randomize,
		maxSize:   maxSize,
		byDevice:  make(map[string]string),
	}
}

// For returns the User-Agent to present for the given device identity.
func (c *UserAgentCache) For(deviceID string) string {
	if !c.randomize {
		return DefaultUserAgent
	}

	c.mu.RLock()
	agent, ok := c.byDevice[deviceID]
	c.mu.RUnlock()
	if ok {
		return agent
	}

	agent = browserPool[rand.Intn(len(browserPool))]

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check under the write lock; another goroutine may have assigned
	// an agent for this device in the meantime, and that one must win so
	// the device keeps a single identity.
	if existing, ok := c.byDevice[deviceID]; ok {
		return existing
	}
	if len(c.byDevice) < c.maxSize {
		c.byDevice[deviceID] = agent
	}
	return agent
}

// Len reports the number of remembered device identities.
func (c *UserAgentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byDevice)
}
