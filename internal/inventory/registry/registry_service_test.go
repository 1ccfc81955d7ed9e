package registry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) ResolveLocation(serial string, now time.Time) (*models.ItemLocation, error) {
	args := m.Called(serial, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ItemLocation), args.Error(1)
}

func newTestRegistry(lr LocationRepository, cache *LocationCache) (*RegistryService, *[]time.Duration) {
	pauses := &[]time.Duration{}
	service := NewService(lr, cache, zap.NewNop())
	service.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	service.sleep = func(d time.Duration) { *pauses = append(*pauses, d) }
	return service, pauses
}

func TestLocateUsesCacheOnSecondLookup(t *testing.T) {
	lr := new(MockLocationRepository)
	cache := NewCache(5*time.Minute, time.Minute, time.Now, zap.NewNop())
	service, _ := newTestRegistry(lr, cache)

	storeID := 7
	lr.On("ResolveLocation", "SN001", mock.Anything).Return(&models.ItemLocation{
		SerialNumber: "SN001",
		Location:     metadata.KindStore,
		StoreID:      &storeID,
	}, nil).Once()

	first, err := service.Locate("SN001")
	assert.NoError(t, err)
	second, err := service.Locate("SN001")
	assert.NoError(t, err)

	assert.Equal(t, first.Location, second.Location)
	lr.AssertNumberOfCalls(t, "ResolveLocation", 1)
}

func TestLocateBatchChunksWithPauses(t *testing.T) {
	lr := new(MockLocationRepository)
	service, pauses := newTestRegistry(lr, nil)

	serials := make([]string, 25)
	for i := range serials {
		serials[i] = fmt.Sprintf("SN%03d", i)
		location := models.InventoryLocation(serials[i], time.Now())
		lr.On("ResolveLocation", serials[i], mock.Anything).Return(&location, nil)
	}

	locations := service.LocateBatch(serials)

	assert.Len(t, locations, 25)
	// 25 serials resolve in chunks of 10, 10 and 5, with a pause before the
	// second and third chunks.
	assert.Equal(t, []time.Duration{batchPause, batchPause}, *pauses)
}

func TestLocateBatchFailedLookupDefaultsToInventory(t *testing.T) {
	lr := new(MockLocationRepository)
	service, _ := newTestRegistry(lr, nil)

	storeID := 7
	lr.On("ResolveLocation", "SN001", mock.Anything).Return(&models.ItemLocation{
		SerialNumber: "SN001",
		Location:     metadata.KindStore,
		StoreID:      &storeID,
	}, nil)
	lr.On("ResolveLocation", "SN002", mock.Anything).Return(nil, fmt.Errorf("connection reset"))
	lr.On("ResolveLocation", "SN003", mock.Anything).Return(&models.ItemLocation{
		SerialNumber: "SN003",
		Location:     metadata.KindOutbound,
	}, nil)

	locations := service.LocateBatch([]string{"SN001", "SN002", "SN003"})

	assert.Len(t, locations, 3)
	assert.Equal(t, metadata.KindStore, locations[0].Location)
	assert.Equal(t, metadata.KindInventory, locations[1].Location)
	assert.Equal(t, metadata.KindOutbound, locations[2].Location)
}

func TestLocateUnknownSerialFallsBackToInventory(t *testing.T) {
	lr := new(MockLocationRepository)
	service, _ := newTestRegistry(lr, nil)

	fallback := models.InventoryLocation("SN999", time.Now())
	lr.On("ResolveLocation", "SN999", mock.Anything).Return(&fallback, nil)

	location, err := service.Locate("SN999")

	assert.NoError(t, err)
	assert.Equal(t, metadata.KindInventory, location.Location)
	assert.Nil(t, location.StoreID)
}
