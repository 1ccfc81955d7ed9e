package outbound

import (
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/registry"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/notify"
	"github.com/ChrisHK/system-monitor-sub001/pkg/roles"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

type MockOutboundRepository struct {
	mock.Mock
}

func (m *MockOutboundRepository) EnsurePendingOutbound(tx *goqu.TxDatabase) (int, error) {
	args := m.Called(tx)
	return args.Int(0), args.Error(1)
}

func (m *MockOutboundRepository) AssetInInventory(tx *goqu.TxDatabase, recordID int) (bool, error) {
	args := m.Called(tx, recordID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOutboundRepository) QueueItem(tx *goqu.TxDatabase, outboundID, recordID int) error {
	args := m.Called(tx, outboundID, recordID)
	return args.Error(0)
}

func (m *MockOutboundRepository) RemoveQueuedItem(tx *goqu.TxDatabase, recordID int) (int, int64, error) {
	args := m.Called(tx, recordID)
	return args.Int(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockOutboundRepository) QueuedAssets(tx *goqu.TxDatabase, outboundID int) ([]QueuedAsset, error) {
	args := m.Called(tx, outboundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]QueuedAsset), args.Error(1)
}

func (m *MockOutboundRepository) DropOutboundIfEmpty(tx *goqu.TxDatabase, outboundID int) error {
	args := m.Called(tx, outboundID)
	return args.Error(0)
}

func (m *MockOutboundRepository) InsertStoreStock(tx *goqu.TxDatabase, storeID, recordID int) error {
	args := m.Called(tx, storeID, recordID)
	return args.Error(0)
}

func (m *MockOutboundRepository) ClearQueue(tx *goqu.TxDatabase, outboundID int) error {
	args := m.Called(tx, outboundID)
	return args.Error(0)
}

func (m *MockOutboundRepository) CompleteOutbound(tx *goqu.TxDatabase, outboundID, storeID int, notes *string) error {
	args := m.Called(tx, outboundID, storeID, notes)
	return args.Error(0)
}

func (m *MockOutboundRepository) GetPendingOutbound() (*models.Outbound, []models.FlatOutboundItemRecord, error) {
	args := m.Called()
	var outbound *models.Outbound
	if args.Get(0) != nil {
		outbound = args.Get(0).(*models.Outbound)
	}
	var items []models.FlatOutboundItemRecord
	if args.Get(1) != nil {
		items = args.Get(1).([]models.FlatOutboundItemRecord)
	}
	return outbound, items, args.Error(2)
}

type MockAssetGetter struct {
	mock.Mock
}

func (m *MockAssetGetter) GetAsset(recordID int) (*models.Asset, error) {
	args := m.Called(recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Asset), args.Error(1)
}

func newTestService(obr OutboundRepository, assets AssetGetter) *OutboundService {
	return &OutboundService{
		obr:     obr,
		assets:  assets,
		emitter: notify.NopEmitter{},
		log:     zap.NewNop(),
		withTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return fn(nil)
		},
	}
}

func adminActor() security.Actor {
	return security.Actor{UserID: 1, Role: roles.Admin}
}

func TestAddToOutboundQueuesFreeAsset(t *testing.T) {
	obr := new(MockOutboundRepository)
	assets := new(MockAssetGetter)
	service := newTestService(obr, assets)

	assets.On("GetAsset", 42).Return(&models.Asset{ID: 42, SerialNumber: "SN001"}, nil)
	obr.On("AssetInInventory", mock.Anything, 42).Return(true, nil)
	obr.On("EnsurePendingOutbound", mock.Anything).Return(5, nil)
	obr.On("QueueItem", mock.Anything, 5, 42).Return(nil)

	asset, err := service.AddToOutbound(adminActor(), 42)

	assert.NoError(t, err)
	assert.Equal(t, "SN001", asset.SerialNumber)
	obr.AssertExpectations(t)
}

func TestAddToOutboundHeldAssetIsConflict(t *testing.T) {
	obr := new(MockOutboundRepository)
	assets := new(MockAssetGetter)
	service := newTestService(obr, assets)

	assets.On("GetAsset", 42).Return(&models.Asset{ID: 42, SerialNumber: "SN001"}, nil)
	obr.On("AssetInInventory", mock.Anything, 42).Return(false, nil)

	_, err := service.AddToOutbound(adminActor(), 42)

	var conflict *custom_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
	obr.AssertNotCalled(t, "QueueItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddToOutboundRequiresAdmin(t *testing.T) {
	service := newTestService(new(MockOutboundRepository), new(MockAssetGetter))

	_, err := service.AddToOutbound(security.Actor{UserID: 2, Role: roles.Staff}, 42)

	var authz *custom_error.AuthorizationError
	assert.ErrorAs(t, err, &authz)
}

func TestRemoveFromOutboundDropsEmptyQueue(t *testing.T) {
	obr := new(MockOutboundRepository)
	assets := new(MockAssetGetter)
	service := newTestService(obr, assets)

	assets.On("GetAsset", 42).Return(&models.Asset{ID: 42, SerialNumber: "SN001"}, nil)
	obr.On("RemoveQueuedItem", mock.Anything, 42).Return(5, int64(1), nil)
	obr.On("DropOutboundIfEmpty", mock.Anything, 5).Return(nil)

	err := service.RemoveFromOutbound(adminActor(), 42)

	assert.NoError(t, err)
	obr.AssertExpectations(t)
}

func TestRemoveFromOutboundUnqueuedAssetIsNotFound(t *testing.T) {
	obr := new(MockOutboundRepository)
	assets := new(MockAssetGetter)
	service := newTestService(obr, assets)

	assets.On("GetAsset", 42).Return(&models.Asset{ID: 42, SerialNumber: "SN001"}, nil)
	obr.On("RemoveQueuedItem", mock.Anything, 42).Return(0, int64(0), nil)

	err := service.RemoveFromOutbound(adminActor(), 42)

	var notFound *custom_error.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	obr.AssertNotCalled(t, "DropOutboundIfEmpty", mock.Anything, mock.Anything)
}

func TestSendToStoreShipsEveryQueuedItem(t *testing.T) {
	obr := new(MockOutboundRepository)
	service := newTestService(obr, new(MockAssetGetter))

	obr.On("EnsurePendingOutbound", mock.Anything).Return(5, nil)
	obr.On("QueuedAssets", mock.Anything, 5).Return([]QueuedAsset{
		{RecordID: 42, Serial: "SN042"},
		{RecordID: 43, Serial: "SN043"},
		{RecordID: 44, Serial: "SN044"},
	}, nil)
	obr.On("InsertStoreStock", mock.Anything, 7, 42).Return(nil)
	obr.On("InsertStoreStock", mock.Anything, 7, 43).Return(nil)
	obr.On("InsertStoreStock", mock.Anything, 7, 44).Return(nil)
	obr.On("ClearQueue", mock.Anything, 5).Return(nil)
	obr.On("CompleteOutbound", mock.Anything, 5, 7, (*string)(nil)).Return(nil)

	sent, err := service.SendToStore(adminActor(), 7, nil)

	assert.NoError(t, err)
	assert.Equal(t, 3, sent)
	obr.AssertExpectations(t)
}

func TestSendToStoreEmptyQueueIsConflict(t *testing.T) {
	obr := new(MockOutboundRepository)
	service := newTestService(obr, new(MockAssetGetter))

	obr.On("EnsurePendingOutbound", mock.Anything).Return(5, nil)
	obr.On("QueuedAssets", mock.Anything, 5).Return([]QueuedAsset{}, nil)

	_, err := service.SendToStore(adminActor(), 7, nil)

	var conflict *custom_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
	obr.AssertNotCalled(t, "CompleteOutbound", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendToStoreStopsOnFirstInsertFailure(t *testing.T) {
	obr := new(MockOutboundRepository)
	service := newTestService(obr, new(MockAssetGetter))

	obr.On("EnsurePendingOutbound", mock.Anything).Return(5, nil)
	obr.On("QueuedAssets", mock.Anything, 5).Return([]QueuedAsset{
		{RecordID: 42, Serial: "SN042"},
		{RecordID: 43, Serial: "SN043"},
	}, nil)
	obr.On("InsertStoreStock", mock.Anything, 7, 42).
		Return(custom_error.NewConflictError("store stock already exists"))

	_, err := service.SendToStore(adminActor(), 7, nil)

	assert.Error(t, err)
	obr.AssertNotCalled(t, "InsertStoreStock", mock.Anything, 7, 43)
	obr.AssertNotCalled(t, "ClearQueue", mock.Anything, mock.Anything)
}

type captureEmitter struct {
	events []notify.MoveEvent
}

func (e *captureEmitter) Emit(event notify.MoveEvent) {
	e.events = append(e.events, event)
}

func TestSendToStoreDropsShippedSerialsFromCache(t *testing.T) {
	cache := registry.NewCache(registry.DefaultTTL, registry.DefaultSweepInterval, time.Now, zap.NewNop())
	cache.Put(models.ItemLocation{
		SerialNumber: "SN042",
		Location:     metadata.KindOutbound,
		CheckedAt:    time.Now(),
	})

	obr := new(MockOutboundRepository)
	service := newTestService(obr, new(MockAssetGetter))
	service.cache = cache

	obr.On("EnsurePendingOutbound", mock.Anything).Return(5, nil)
	obr.On("QueuedAssets", mock.Anything, 5).Return([]QueuedAsset{{RecordID: 42, Serial: "SN042"}}, nil)
	obr.On("InsertStoreStock", mock.Anything, 7, 42).Return(nil)
	obr.On("ClearQueue", mock.Anything, 5).Return(nil)
	obr.On("CompleteOutbound", mock.Anything, 5, 7, (*string)(nil)).Return(nil)

	sent, err := service.SendToStore(adminActor(), 7, nil)

	assert.NoError(t, err)
	assert.Equal(t, 1, sent)
	_, hit := cache.Get("SN042")
	assert.False(t, hit, "shipped serial must not keep its outbound cache entry")
}

func TestSendToStoreEmitsEventPerShippedAsset(t *testing.T) {
	emitter := &captureEmitter{}
	obr := new(MockOutboundRepository)
	service := newTestService(obr, new(MockAssetGetter))
	service.emitter = emitter

	obr.On("EnsurePendingOutbound", mock.Anything).Return(5, nil)
	obr.On("QueuedAssets", mock.Anything, 5).Return([]QueuedAsset{
		{RecordID: 42, Serial: "SN042"},
		{RecordID: 43, Serial: "SN043"},
	}, nil)
	obr.On("InsertStoreStock", mock.Anything, 7, 42).Return(nil)
	obr.On("InsertStoreStock", mock.Anything, 7, 43).Return(nil)
	obr.On("ClearQueue", mock.Anything, 5).Return(nil)
	obr.On("CompleteOutbound", mock.Anything, 5, 7, (*string)(nil)).Return(nil)

	_, err := service.SendToStore(adminActor(), 7, nil)

	assert.NoError(t, err)
	assert.Len(t, emitter.events, 2)
	assert.Equal(t, "SN042", emitter.events[0].Serial)
	assert.Equal(t, metadata.KindOutbound, emitter.events[0].From)
	assert.Equal(t, metadata.KindStore, emitter.events[0].To)
	assert.Equal(t, 7, *emitter.events[0].StoreID)
	assert.Equal(t, "SN043", emitter.events[1].Serial)
}
