package raster

import "sync"

// chunkKey identifies a decoded chunk: its plane (0 for chunky data) and its
// index within that plane.
type chunkKey struct {
	plane int
	index int
}

// chunkCache keeps recently decoded chunks so that row-by-row reads do not
// decompress the same tile or strip once per row. Eviction is FIFO.
type chunkCache struct {
	mu      sync.Mutex
	entries map[chunkKey][]byte
	order   []chunkKey
	maxSize int
}

func newChunkCache(maxEntries int) *chunkCache {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &chunkCache{
		entries: make(map[chunkKey][]byte, maxEntries),
		order:   make([]chunkKey, 0, maxEntries),
		maxSize: maxEntries,
	}
}

func (c *chunkCache) get(key chunkKey) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key]
}

func (c *chunkCache) put(key chunkKey, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return
	}
	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = data
	c.order = append(c.order, key)
}

func (c *chunkCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[chunkKey][]byte, c.maxSize)
	c.order = c.order[:0]
}
