package registry

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

const (
	// DefaultTTL bounds how long a resolved location may be served without
	// consulting the ownership tables again.
	DefaultTTL = 5 * time.Minute

	// DefaultSweepInterval is how often the expiry sweep runs.
	DefaultSweepInterval = time.Minute
)

type cacheEntry struct {
	location  models.ItemLocation
	expiresAt time.Time
}

// LocationCache is an in-process TTL cache over resolved locations. It is an
// optimization only; every invalidation path assumes the database already
// holds the truth. The clock and sweep interval are injectable so expiry is
// testable without waiting.
type LocationCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	byStore map[int]map[string]struct{}

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	log           *zap.Logger

	stop chan struct{}
	done chan struct{}
}

func NewCache(ttl, sweepInterval time.Duration, now func() time.Time, log *zap.Logger) *LocationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if now == nil {
		now = time.Now
	}
	return &LocationCache{
		entries:       make(map[string]cacheEntry),
		byStore:       make(map[int]map[string]struct{}),
		ttl:           ttl,
		sweepInterval: sweepInterval,
		now:           now,
		log:           log,
	}
}

// Start launches the background expiry sweep. Calling Start twice without a
// Stop in between is a programming error.
func (c *LocationCache) Start() {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep goroutine and waits for it to exit.
func (c *LocationCache) Stop() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop = nil
}

// Get returns a cached location if it has not expired.
func (c *LocationCache) Get(serial string) (models.ItemLocation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[serial]
	if !ok || c.now().After(entry.expiresAt) {
		return models.ItemLocation{}, false
	}
	return entry.location, true
}

// Put stores a resolved location for the TTL window.
func (c *LocationCache) Put(location models.ItemLocation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	serial := location.SerialNumber
	c.dropIndexLocked(serial)
	c.entries[serial] = cacheEntry{
		location:  location,
		expiresAt: c.now().Add(c.ttl),
	}
	if location.StoreID != nil {
		index, ok := c.byStore[*location.StoreID]
		if !ok {
			index = make(map[string]struct{})
			c.byStore[*location.StoreID] = index
		}
		index[serial] = struct{}{}
	}
}

// Invalidate drops one serial. Moves call it after every commit.
func (c *LocationCache) Invalidate(serial string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropIndexLocked(serial)
	delete(c.entries, serial)
}

// InvalidateStore drops every serial cached against that store.
func (c *LocationCache) InvalidateStore(storeID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for serial := range c.byStore[storeID] {
		delete(c.entries, serial)
	}
	delete(c.byStore, storeID)
}

func (c *LocationCache) dropIndexLocked(serial string) {
	entry, ok := c.entries[serial]
	if !ok || entry.location.StoreID == nil {
		return
	}
	if index, ok := c.byStore[*entry.location.StoreID]; ok {
		delete(index, serial)
		if len(index) == 0 {
			delete(c.byStore, *entry.location.StoreID)
		}
	}
}

// Len reports live entries; expired but unswept entries do not count.
func (c *LocationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	count := 0
	for _, entry := range c.entries {
		if !now.After(entry.expiresAt) {
			count++
		}
	}
	return count
}

func (c *LocationCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for serial, entry := range c.entries {
		if now.After(entry.expiresAt) {
			c.dropIndexLocked(serial)
			delete(c.entries, serial)
			removed++
		}
	}
	if removed > 0 && c.log != nil {
		c.log.Debug("location cache sweep", zap.Int("removed", removed))
	}
}
