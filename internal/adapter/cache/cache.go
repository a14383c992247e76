// Package cache keeps recently assembled dashboards in memory.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
)

// DashboardCache is a thread-safe LRU cache of dashboards keyed by scenario.
// Entries older than ttl are treated as missing; a zero ttl never expires.
// Cached dashboards are shared, callers must not modify them.
type DashboardCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[domain.ScenarioID]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key      domain.ScenarioID
	value    *domain.Dashboard
	storedAt time.Time
	prev     *entry
	next     *entry
}

// New creates a cache holding at most maxEntries dashboards.
func New(maxEntries int, ttl time.Duration, clock clockwork.Clock) *DashboardCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &DashboardCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[domain.ScenarioID]*entry),
	}
}

// Get returns the cached dashboard for id, if present and fresh.
func (c *DashboardCache) Get(id domain.ScenarioID) (*domain.Dashboard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if c.expired(e) {
		c.drop(e)
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

// Put stores a dashboard, evicting the least recently used entry when full.
func (c *DashboardCache) Put(id domain.ScenarioID, d *domain.Dashboard) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if e, ok := c.entries[id]; ok {
		e.value = d
		e.storedAt = now
		c.moveToFront(e)
		return
	}

	e := &entry{key: id, value: d, storedAt: now}
	c.entries[id] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.drop(c.tail)
	}
}

// Invalidate removes one scenario.
func (c *DashboardCache) Invalidate(id domain.ScenarioID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		c.drop(e)
	}
}

// Purge removes every entry.
func (c *DashboardCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[domain.ScenarioID]*entry)
	c.head, c.tail = nil, nil
}

// Len reports the number of stored entries, fresh or not.
func (c *DashboardCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *DashboardCache) expired(e *entry) bool {
	return c.ttl > 0 && c.clock.Since(e.storedAt) >= c.ttl
}

func (c *DashboardCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *DashboardCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *DashboardCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *DashboardCache) drop(e *entry) {
	if e == nil {
		return
	}
	delete(c.entries, e.key)
	c.remove(e)
}
