package gateway

import (
	"sync"
	"time"
)

type cacheEntry struct {
	rows    [][]string
	expires time.Time
}

// rowCache holds sheet rows keyed by sheet name until they expire or a write
// to the sheet invalidates them. Each invalidation bumps the sheet's
// generation so a read that started before a write cannot store its rows
// after it.
type rowCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
	gens    map[string]uint64
}

func newRowCache(ttl time.Duration) *rowCache {
	return &rowCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
		gens:    make(map[string]uint64),
	}
}

func (c *rowCache) generation(sheet string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[sheet]
}

func (c *rowCache) get(sheet string) ([][]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[sheet]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, sheet)
		return nil, false
	}
	return cloneRows(entry.rows), true
}

// set stores rows read at generation gen. It reports false and stores
// nothing when the sheet was invalidated since.
func (c *rowCache) set(sheet string, rows [][]string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[sheet] != gen {
		return false
	}
	c.entries[sheet] = cacheEntry{rows: cloneRows(rows), expires: c.now().Add(c.ttl)}
	return true
}

func (c *rowCache) invalidate(sheet string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sheet)
	c.gens[sheet]++
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
