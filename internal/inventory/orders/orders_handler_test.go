package orders

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

func setupOrderRouter(or OrderRepository, role string, stores []int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", 2)
		c.Set("role", role)
		c.Set("stores", stores)
		c.Next()
	})

	service := &OrderService{
		or:     or,
		assets: stubAssetGetter{},
		log:    zap.NewNop(),
		withTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return fn(nil)
		},
	}
	handler := NewHandler(service)

	router.GET("/stores/:store_id/orders", handler.GetStoreOrders)
	router.POST("/stores/:store_id/orders/items", handler.AddItems)
	router.POST("/stores/:store_id/orders/:order_id/save", handler.SaveOrder)
	router.DELETE("/stores/:store_id/orders/items/:item_id", handler.DeleteItem)
	router.DELETE("/stores/:store_id/orders/:order_id", handler.DeleteCompletedOrder)
	return router
}

func TestGetStoreOrdersHandler(t *testing.T) {
	or := new(MockOrderRepository)
	or.On("GetStoreOrders", 7).Return([]models.Order{
		{ID: 31, StoreID: 7, Status: metadata.StatusPending},
		{ID: 29, StoreID: 7, Status: metadata.StatusCompleted},
	}, nil)
	router := setupOrderRouter(or, "user", []int{7})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/stores/7/orders", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool           `json:"success"`
		Orders  []models.Order `json:"orders"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Orders, 2)
	assert.Equal(t, metadata.StatusPending, body.Orders[0].Status)
}

func TestAddItemsHandlerCreated(t *testing.T) {
	or := new(MockOrderRepository)
	or.On("EnsurePendingOrder", mock.Anything, 7).Return(31, true, nil)
	or.On("FindActiveItem", mock.Anything, 100).Return(nil, nil)
	or.On("RemoveStoreStock", mock.Anything, 7, 100).Return(int64(1), nil)
	or.On("InsertOrderItem", mock.Anything, 31, 100, (*string)(nil)).Return(501, nil)
	router := setupOrderRouter(or, "user", []int{7})

	payload, _ := json.Marshal(models.AddOrderItemsRequest{
		Items: []models.OrderItemRequest{{RecordID: 100}},
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/stores/7/orders/items", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAddItemsHandlerConflict(t *testing.T) {
	or := new(MockOrderRepository)
	or.On("EnsurePendingOrder", mock.Anything, 7).Return(31, false, nil)
	or.On("FindActiveItem", mock.Anything, 100).Return(&ActiveItemRef{
		ItemID: 400, OrderID: 29, StoreID: 3, OrderStatus: metadata.StatusPending,
	}, nil)
	router := setupOrderRouter(or, "user", []int{7})

	payload, _ := json.Marshal(models.AddOrderItemsRequest{
		Items: []models.OrderItemRequest{{RecordID: 100}},
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/stores/7/orders/items", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAddItemsHandlerRejectsEmptyBatch(t *testing.T) {
	router := setupOrderRouter(new(MockOrderRepository), "user", []int{7})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/stores/7/orders/items", bytes.NewBufferString(`{"items":[]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveOrderHandlerForbiddenStore(t *testing.T) {
	router := setupOrderRouter(new(MockOrderRepository), "user", []int{3})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/stores/7/orders/31/save", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteCompletedOrderHandlerRequiresAdmin(t *testing.T) {
	router := setupOrderRouter(new(MockOrderRepository), "user", []int{7})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/stores/7/orders/29", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteItemHandlerNotFound(t *testing.T) {
	or := new(MockOrderRepository)
	or.On("GetOrderItem", mock.Anything, 501).Return(&OrderItemRow{
		ItemID: 501, OrderID: 31, StoreID: 4, OrderStatus: metadata.StatusPending, RecordID: 100,
	}, nil)
	router := setupOrderRouter(or, "admin", nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/stores/7/orders/items/501", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
