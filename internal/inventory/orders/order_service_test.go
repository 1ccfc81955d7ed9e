package orders

import (
	"fmt"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/notify"
	"github.com/ChrisHK/system-monitor-sub001/pkg/roles"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) EnsurePendingOrder(tx *goqu.TxDatabase, storeID int) (int, bool, error) {
	args := m.Called(tx, storeID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockOrderRepository) FindActiveItem(tx *goqu.TxDatabase, recordID int) (*ActiveItemRef, error) {
	args := m.Called(tx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ActiveItemRef), args.Error(1)
}

func (m *MockOrderRepository) SupersedeItem(tx *goqu.TxDatabase, itemID int) error {
	args := m.Called(tx, itemID)
	return args.Error(0)
}

func (m *MockOrderRepository) UnsupersedeForRecord(tx *goqu.TxDatabase, recordID int) (int64, error) {
	args := m.Called(tx, recordID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) InsertOrderItem(tx *goqu.TxDatabase, orderID, recordID int, notes *string) (int, error) {
	args := m.Called(tx, orderID, recordID, notes)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderRepository) RemoveStoreStock(tx *goqu.TxDatabase, storeID, recordID int) (int64, error) {
	args := m.Called(tx, storeID, recordID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) InsertStoreStock(tx *goqu.TxDatabase, storeID, recordID int) error {
	args := m.Called(tx, storeID, recordID)
	return args.Error(0)
}

func (m *MockOrderRepository) GetOrderItem(tx *goqu.TxDatabase, itemID int) (*OrderItemRow, error) {
	args := m.Called(tx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OrderItemRow), args.Error(1)
}

func (m *MockOrderRepository) DeleteOrderItemRow(tx *goqu.TxDatabase, itemID int) (int64, error) {
	args := m.Called(tx, itemID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) UpdateOrderItem(tx *goqu.TxDatabase, itemID int, fields goqu.Record) (int64, error) {
	args := m.Called(tx, itemID, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CompleteOrder(tx *goqu.TxDatabase, storeID, orderID int) (int64, error) {
	args := m.Called(tx, storeID, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) GetOrderStatus(tx *goqu.TxDatabase, storeID, orderID int) (metadata.Status, error) {
	args := m.Called(tx, storeID, orderID)
	return args.Get(0).(metadata.Status), args.Error(1)
}

func (m *MockOrderRepository) GetOrderItems(tx *goqu.TxDatabase, orderID int) ([]models.OrderItem, error) {
	args := m.Called(tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderItem), args.Error(1)
}

func (m *MockOrderRepository) DeleteOrderItems(tx *goqu.TxDatabase, orderID int) error {
	args := m.Called(tx, orderID)
	return args.Error(0)
}

func (m *MockOrderRepository) DeleteOrder(tx *goqu.TxDatabase, orderID int) (int64, error) {
	args := m.Called(tx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) GetStoreOrders(storeID int) ([]models.Order, error) {
	args := m.Called(storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

// stubAssetGetter answers every lookup with a ledger row whose serial is
// derived from the record id.
type stubAssetGetter struct{}

func (stubAssetGetter) GetAsset(recordID int) (*models.Asset, error) {
	return &models.Asset{ID: recordID, SerialNumber: fmt.Sprintf("SN%03d", recordID)}, nil
}

type captureEmitter struct {
	events []notify.MoveEvent
}

func (e *captureEmitter) Emit(event notify.MoveEvent) {
	e.events = append(e.events, event)
}

type recordingInvalidator struct {
	serials []string
	stores  []int
}

func (r *recordingInvalidator) Invalidate(serial string) {
	r.serials = append(r.serials, serial)
}

func (r *recordingInvalidator) InvalidateStore(storeID int) {
	r.stores = append(r.stores, storeID)
}

func newTestService(or OrderRepository) *OrderService {
	return &OrderService{
		or:     or,
		assets: stubAssetGetter{},
		log:    zap.NewNop(),
		withTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return fn(nil)
		},
	}
}

func staffActor(storeIDs ...int) security.Actor {
	return security.Actor{UserID: 2, Role: roles.Staff, Stores: storeIDs}
}

func adminActor() security.Actor {
	return security.Actor{UserID: 1, Role: roles.Admin}
}

func addRequest(recordIDs ...int) models.AddOrderItemsRequest {
	var req models.AddOrderItemsRequest
	for _, id := range recordIDs {
		req.Items = append(req.Items, models.OrderItemRequest{RecordID: id})
	}
	return req
}

func TestAddItemsToFreshOrder(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	or.On("EnsurePendingOrder", mock.Anything, 7).Return(31, true, nil)
	or.On("FindActiveItem", mock.Anything, 100).Return(nil, nil)
	or.On("RemoveStoreStock", mock.Anything, 7, 100).Return(int64(1), nil)
	or.On("InsertOrderItem", mock.Anything, 31, 100, (*string)(nil)).Return(501, nil)

	result, err := service.AddItemsToOrder(staffActor(7), 7, addRequest(100))

	assert.NoError(t, err)
	assert.Equal(t, 31, result.OrderID)
	assert.True(t, result.OrderIsNew)
	assert.Equal(t, []models.OrderItemOutcome{{RecordID: 100, ItemID: 501, Superseded: false}}, result.Items)
	or.AssertExpectations(t)
}

func TestAddItemHeldByPendingOrderIsConflict(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	or.On("EnsurePendingOrder", mock.Anything, 7).Return(31, false, nil)
	or.On("FindActiveItem", mock.Anything, 100).Return(&ActiveItemRef{
		ItemID: 400, OrderID: 29, StoreID: 3, OrderStatus: metadata.StatusPending,
	}, nil)

	_, err := service.AddItemsToOrder(staffActor(7), 7, addRequest(100))

	var conflict *custom_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
	or.AssertNotCalled(t, "RemoveStoreStock", mock.Anything, mock.Anything, mock.Anything)
	or.AssertNotCalled(t, "SupersedeItem", mock.Anything, mock.Anything)
}

func TestAddItemSupersedesCompletedOrderRow(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	or.On("EnsurePendingOrder", mock.Anything, 7).Return(31, false, nil)
	or.On("FindActiveItem", mock.Anything, 100).Return(&ActiveItemRef{
		ItemID: 400, OrderID: 29, StoreID: 7, OrderStatus: metadata.StatusCompleted,
	}, nil)
	or.On("SupersedeItem", mock.Anything, 400).Return(nil)
	or.On("RemoveStoreStock", mock.Anything, 7, 100).Return(int64(1), nil)
	or.On("InsertOrderItem", mock.Anything, 31, 100, (*string)(nil)).Return(501, nil)

	result, err := service.AddItemsToOrder(staffActor(7), 7, addRequest(100))

	assert.NoError(t, err)
	assert.True(t, result.Items[0].Superseded)
	or.AssertExpectations(t)
}

func TestAddItemsStopsOnFirstFailure(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	or.On("EnsurePendingOrder", mock.Anything, 7).Return(31, false, nil)
	or.On("FindActiveItem", mock.Anything, 100).Return(nil, nil)
	or.On("RemoveStoreStock", mock.Anything, 7, 100).Return(int64(1), nil)
	or.On("InsertOrderItem", mock.Anything, 31, 100, (*string)(nil)).Return(501, nil)
	or.On("FindActiveItem", mock.Anything, 101).Return(nil, nil)
	or.On("RemoveStoreStock", mock.Anything, 7, 101).Return(int64(0), nil)

	result, err := service.AddItemsToOrder(staffActor(7), 7, addRequest(100, 101, 102))

	var notFound *custom_error.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Nil(t, result)
	// The third item is never attempted once the second fails the batch.
	or.AssertNotCalled(t, "FindActiveItem", mock.Anything, 102)
}

func TestAddItemsDeniedForForeignStore(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	_, err := service.AddItemsToOrder(staffActor(3), 7, addRequest(100))

	var authz *custom_error.AuthorizationError
	assert.ErrorAs(t, err, &authz)
	or.AssertNotCalled(t, "EnsurePendingOrder", mock.Anything, mock.Anything)
}

func TestSaveOrderAlreadyCompletedIsConflict(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	or.On("CompleteOrder", mock.Anything, 7, 31).Return(int64(0), nil)
	or.On("GetOrderStatus", mock.Anything, 7, 31).Return(metadata.StatusCompleted, nil)

	err := service.SaveOrder(staffActor(7), 7, 31)

	var conflict *custom_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestSaveOrderUnknownOrderIsNotFound(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	or.On("CompleteOrder", mock.Anything, 7, 99).Return(int64(0), nil)
	or.On("GetOrderStatus", mock.Anything, 7, 99).
		Return(metadata.Status(""), custom_error.NewNotFoundError("order", 99))

	err := service.SaveOrder(staffActor(7), 7, 99)

	var notFound *custom_error.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDeleteOrderItemRestocksAndUnsupersedes(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	or.On("GetOrderItem", mock.Anything, 501).Return(&OrderItemRow{
		ItemID: 501, OrderID: 31, StoreID: 7, OrderStatus: metadata.StatusPending, RecordID: 100,
	}, nil)
	or.On("DeleteOrderItemRow", mock.Anything, 501).Return(int64(1), nil)
	or.On("InsertStoreStock", mock.Anything, 7, 100).Return(nil)
	or.On("UnsupersedeForRecord", mock.Anything, 100).Return(int64(1), nil)

	err := service.DeleteOrderItem(staffActor(7), 7, 501)

	assert.NoError(t, err)
	or.AssertExpectations(t)
}

func TestDeleteOrderItemOnCompletedOrderIsConflict(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	or.On("GetOrderItem", mock.Anything, 501).Return(&OrderItemRow{
		ItemID: 501, OrderID: 31, StoreID: 7, OrderStatus: metadata.StatusCompleted, RecordID: 100,
	}, nil)

	err := service.DeleteOrderItem(staffActor(7), 7, 501)

	var conflict *custom_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
	or.AssertNotCalled(t, "DeleteOrderItemRow", mock.Anything, mock.Anything)
}

func TestDeleteCompletedOrderItemRequiresAdmin(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	err := service.DeleteCompletedOrderItem(staffActor(7), 7, 501)

	var authz *custom_error.AuthorizationError
	assert.ErrorAs(t, err, &authz)
}

func TestDeleteCompletedOrderItemSkipsRestockWhenSuperseded(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	or.On("GetOrderItem", mock.Anything, 501).Return(&OrderItemRow{
		ItemID: 501, OrderID: 31, StoreID: 7, OrderStatus: metadata.StatusCompleted,
		RecordID: 100, IsDeleted: true,
	}, nil)
	or.On("DeleteOrderItemRow", mock.Anything, 501).Return(int64(1), nil)

	err := service.DeleteCompletedOrderItem(adminActor(), 7, 501)

	assert.NoError(t, err)
	or.AssertNotCalled(t, "InsertStoreStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteCompletedOrderRestocksActiveItemsOnly(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	or.On("GetOrderStatus", mock.Anything, 7, 31).Return(metadata.StatusCompleted, nil)
	or.On("GetOrderItems", mock.Anything, 31).Return([]models.OrderItem{
		{ID: 501, RecordID: 100, IsDeleted: false},
		{ID: 502, RecordID: 101, IsDeleted: true},
		{ID: 503, RecordID: 102, IsDeleted: false},
	}, nil)
	or.On("InsertStoreStock", mock.Anything, 7, 100).Return(nil)
	or.On("InsertStoreStock", mock.Anything, 7, 102).Return(nil)
	or.On("DeleteOrderItems", mock.Anything, 31).Return(nil)
	or.On("DeleteOrder", mock.Anything, 31).Return(int64(1), nil)

	err := service.DeleteCompletedOrder(adminActor(), 7, 31)

	assert.NoError(t, err)
	or.AssertExpectations(t)
	or.AssertNotCalled(t, "InsertStoreStock", mock.Anything, 7, 101)
}

func TestUpdateItemPriceRejectsNonPositive(t *testing.T) {
	service := newTestService(new(MockOrderRepository))

	tests := []struct {
		name  string
		price decimal.Decimal
	}{
		{"zero", decimal.Zero},
		{"negative", decimal.NewFromInt(-10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.UpdateItemPrice(staffActor(7), 7, 501, tt.price)

			var validation *custom_error.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestUpdateItemOnCompletedOrderIsConflict(t *testing.T) {
	or := new(MockOrderRepository)
	service := newTestService(or)

	or.On("GetOrderItem", mock.Anything, 501).Return(&OrderItemRow{
		ItemID: 501, OrderID: 31, StoreID: 7, OrderStatus: metadata.StatusCompleted, RecordID: 100,
	}, nil)

	err := service.UpdateItemPrice(staffActor(7), 7, 501, decimal.NewFromInt(250))

	var conflict *custom_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
	or.AssertNotCalled(t, "UpdateOrderItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddItemsEmitsEventPerMovedAsset(t *testing.T) {
	or := new(MockOrderRepository)
	emitter := &captureEmitter{}
	service := newTestService(or)
	service.emitter = emitter

	or.On("EnsurePendingOrder", mock.Anything, 7).Return(31, true, nil)
	or.On("FindActiveItem", mock.Anything, mock.Anything).Return(nil, nil)
	or.On("RemoveStoreStock", mock.Anything, 7, mock.Anything).Return(int64(1), nil)
	or.On("InsertOrderItem", mock.Anything, 31, 100, (*string)(nil)).Return(501, nil)
	or.On("InsertOrderItem", mock.Anything, 31, 101, (*string)(nil)).Return(502, nil)

	_, err := service.AddItemsToOrder(staffActor(7), 7, addRequest(100, 101))

	assert.NoError(t, err)
	assert.Len(t, emitter.events, 2)
	assert.Equal(t, "SN100", emitter.events[0].Serial)
	assert.Equal(t, metadata.KindStore, emitter.events[0].From)
	assert.Equal(t, metadata.KindOrder, emitter.events[0].To)
	assert.Equal(t, 7, *emitter.events[0].StoreID)
	assert.Equal(t, "SN101", emitter.events[1].Serial)
}

func TestAddItemsFailedBatchEmitsNothing(t *testing.T) {
	or := new(MockOrderRepository)
	emitter := &captureEmitter{}
	service := newTestService(or)
	service.emitter = emitter

	or.On("EnsurePendingOrder", mock.Anything, 7).Return(31, true, nil)
	or.On("FindActiveItem", mock.Anything, 100).Return(nil, nil)
	or.On("RemoveStoreStock", mock.Anything, 7, 100).Return(int64(0), nil)

	_, err := service.AddItemsToOrder(staffActor(7), 7, addRequest(100))

	assert.Error(t, err)
	assert.Empty(t, emitter.events)
}

func TestDeleteOrderItemEmitsRestockEvent(t *testing.T) {
	or := new(MockOrderRepository)
	emitter := &captureEmitter{}
	service := newTestService(or)
	service.emitter = emitter

	or.On("GetOrderItem", mock.Anything, 501).Return(&OrderItemRow{
		ItemID: 501, OrderID: 31, StoreID: 7, OrderStatus: metadata.StatusPending, RecordID: 100,
	}, nil)
	or.On("DeleteOrderItemRow", mock.Anything, 501).Return(int64(1), nil)
	or.On("InsertStoreStock", mock.Anything, 7, 100).Return(nil)
	or.On("UnsupersedeForRecord", mock.Anything, 100).Return(int64(1), nil)

	err := service.DeleteOrderItem(staffActor(7), 7, 501)

	assert.NoError(t, err)
	assert.Len(t, emitter.events, 1)
	assert.Equal(t, "SN100", emitter.events[0].Serial)
	assert.Equal(t, metadata.KindOrder, emitter.events[0].From)
	assert.Equal(t, metadata.KindStore, emitter.events[0].To)
}

func TestAddItemsInvalidatesMovedSerials(t *testing.T) {
	or := new(MockOrderRepository)
	invalidator := &recordingInvalidator{}
	service := newTestService(or)
	service.cache = invalidator

	or.On("EnsurePendingOrder", mock.Anything, 7).Return(31, true, nil)
	or.On("FindActiveItem", mock.Anything, 100).Return(nil, nil)
	or.On("RemoveStoreStock", mock.Anything, 7, 100).Return(int64(1), nil)
	or.On("InsertOrderItem", mock.Anything, 31, 100, (*string)(nil)).Return(501, nil)

	_, err := service.AddItemsToOrder(staffActor(7), 7, addRequest(100))

	assert.NoError(t, err)
	assert.Equal(t, []string{"SN100"}, invalidator.serials)
	assert.Equal(t, []int{7}, invalidator.stores)
}
