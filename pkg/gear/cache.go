package gear

import "sync"

// Cache shares one Profile between every request for the same parameters.
// It is safe for concurrent use. Failed syntheses are not cached.
type Cache struct {
	mu       sync.Mutex
	opts     []Option
	profiles map[Params]*Profile
}

// NewCache returns an empty cache that synthesizes with opts.
func NewCache(opts ...Option) *Cache {
	return &Cache{
		opts:     opts,
		profiles: make(map[Params]*Profile),
	}
}

// Get returns the cached profile for p, synthesizing it on first use.
func (c *Cache) Get(p Params) (*Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prof, ok := c.profiles[p]; ok {
		return prof, nil
	}
	prof, err := Synthesize(p, c.opts...)
	if err != nil {
		return nil, err
	}
	c.profiles[p] = prof
	return prof, nil
}

// Len returns the number of cached profiles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.profiles)
}
