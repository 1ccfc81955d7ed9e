package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

type fakeClock struct {
	current time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.current
}

func (f *fakeClock) Advance(d time.Duration) {
	f.current = f.current.Add(d)
}

func storeLocation(serial string, storeID int) models.ItemLocation {
	return models.ItemLocation{
		SerialNumber: serial,
		Location:     metadata.KindStore,
		StoreID:      &storeID,
	}
}

func TestCacheServesWithinTTL(t *testing.T) {
	clock := &fakeClock{current: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCache(5*time.Minute, time.Minute, clock.Now, zap.NewNop())

	cache.Put(storeLocation("SN001", 7))

	clock.Advance(4 * time.Minute)
	location, ok := cache.Get("SN001")
	assert.True(t, ok)
	assert.Equal(t, metadata.KindStore, location.Location)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{current: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCache(5*time.Minute, time.Minute, clock.Now, zap.NewNop())

	cache.Put(storeLocation("SN001", 7))

	clock.Advance(5*time.Minute + time.Second)
	_, ok := cache.Get("SN001")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestCacheInvalidateDropsSerial(t *testing.T) {
	clock := &fakeClock{current: time.Now()}
	cache := NewCache(5*time.Minute, time.Minute, clock.Now, zap.NewNop())

	cache.Put(storeLocation("SN001", 7))
	cache.Invalidate("SN001")

	_, ok := cache.Get("SN001")
	assert.False(t, ok)
}

func TestCacheInvalidateStoreDropsOnlyThatStore(t *testing.T) {
	clock := &fakeClock{current: time.Now()}
	cache := NewCache(5*time.Minute, time.Minute, clock.Now, zap.NewNop())

	cache.Put(storeLocation("SN001", 7))
	cache.Put(storeLocation("SN002", 7))
	cache.Put(storeLocation("SN003", 3))
	cache.Put(models.ItemLocation{SerialNumber: "SN004", Location: metadata.KindOutbound})

	cache.InvalidateStore(7)

	_, ok := cache.Get("SN001")
	assert.False(t, ok)
	_, ok = cache.Get("SN002")
	assert.False(t, ok)
	_, ok = cache.Get("SN003")
	assert.True(t, ok)
	_, ok = cache.Get("SN004")
	assert.True(t, ok)
}

func TestCacheSweepRemovesExpiredEntries(t *testing.T) {
	clock := &fakeClock{current: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCache(5*time.Minute, time.Minute, clock.Now, zap.NewNop())

	cache.Put(storeLocation("SN001", 7))
	clock.Advance(3 * time.Minute)
	cache.Put(storeLocation("SN002", 7))
	clock.Advance(3 * time.Minute)

	cache.sweep()

	_, ok := cache.Get("SN001")
	assert.False(t, ok)
	_, ok = cache.Get("SN002")
	assert.True(t, ok)
}

func TestCacheStartStop(t *testing.T) {
	cache := NewCache(time.Minute, time.Millisecond, time.Now, zap.NewNop())

	cache.Start()
	cache.Stop()

	// Stop is idempotent once the sweeper has exited.
	cache.Stop()
}
