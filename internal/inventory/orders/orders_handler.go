package orders

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/roles"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

type OrderHandler struct {
	Service *OrderService
}

func NewHandler(service *OrderService) *OrderHandler {
	return &OrderHandler{Service: service}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stores/:store_id/orders", h.GetStoreOrders)
	router.POST("/stores/:store_id/orders/items", h.AddItems)
	router.POST("/stores/:store_id/orders/:order_id/save", h.SaveOrder)
	router.DELETE("/stores/:store_id/orders/items/:item_id", h.DeleteItem)
	router.PATCH("/stores/:store_id/orders/items/:item_id", h.UpdateItem)
	router.DELETE("/stores/:store_id/orders/completed/items/:item_id",
		security.Authorize(roles.Admin), h.DeleteCompletedItem)
	router.DELETE("/stores/:store_id/orders/:order_id",
		security.Authorize(roles.Admin), h.DeleteCompletedOrder)
}

type orderURI struct {
	StoreID int `uri:"store_id" binding:"required"`
	OrderID int `uri:"order_id"`
	ItemID  int `uri:"item_id"`
}

func bindOrderRequest(c *gin.Context) (orderURI, security.Actor, bool) {
	var uri orderURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid path parameters", "details": err.Error()})
		return uri, security.Actor{}, false
	}
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return uri, security.Actor{}, false
	}
	return uri, actor, true
}

func (h *OrderHandler) GetStoreOrders(c *gin.Context) {
	uri, actor, ok := bindOrderRequest(c)
	if !ok {
		return
	}

	orders, err := h.Service.GetStoreOrders(actor, uri.StoreID)
	if err != nil {
		log.Println("Error fetching store orders:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

func (h *OrderHandler) AddItems(c *gin.Context) {
	uri, actor, ok := bindOrderRequest(c)
	if !ok {
		return
	}

	var req models.AddOrderItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	result, err := h.Service.AddItemsToOrder(actor, uri.StoreID, req)
	if err != nil {
		log.Println("Error adding order items:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "result": result})
}

func (h *OrderHandler) SaveOrder(c *gin.Context) {
	uri, actor, ok := bindOrderRequest(c)
	if !ok {
		return
	}

	if err := h.Service.SaveOrder(actor, uri.StoreID, uri.OrderID); err != nil {
		log.Println("Error saving order:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order_id": uri.OrderID, "status": "completed"})
}

func (h *OrderHandler) DeleteItem(c *gin.Context) {
	uri, actor, ok := bindOrderRequest(c)
	if !ok {
		return
	}

	if err := h.Service.DeleteOrderItem(actor, uri.StoreID, uri.ItemID); err != nil {
		log.Println("Error deleting order item:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type updateItemRequest struct {
	Notes     *string             `json:"notes"`
	Price     decimal.NullDecimal `json:"price"`
	PayMethod *string             `json:"pay_method"`
}

func (h *OrderHandler) UpdateItem(c *gin.Context) {
	uri, actor, ok := bindOrderRequest(c)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if req.Notes == nil && !req.Price.Valid && req.PayMethod == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	if req.Notes != nil {
		if err := h.Service.UpdateItemNotes(actor, uri.StoreID, uri.ItemID, req.Notes); err != nil {
			c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
			return
		}
	}
	if req.Price.Valid {
		if err := h.Service.UpdateItemPrice(actor, uri.StoreID, uri.ItemID, req.Price.Decimal); err != nil {
			c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
			return
		}
	}
	if req.PayMethod != nil {
		if err := h.Service.UpdateItemPayMethod(actor, uri.StoreID, uri.ItemID, *req.PayMethod); err != nil {
			c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *OrderHandler) DeleteCompletedItem(c *gin.Context) {
	uri, actor, ok := bindOrderRequest(c)
	if !ok {
		return
	}

	if err := h.Service.DeleteCompletedOrderItem(actor, uri.StoreID, uri.ItemID); err != nil {
		log.Println("Error deleting completed order item:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *OrderHandler) DeleteCompletedOrder(c *gin.Context) {
	uri, actor, ok := bindOrderRequest(c)
	if !ok {
		return
	}

	if err := h.Service.DeleteCompletedOrder(actor, uri.StoreID, uri.OrderID); err != nil {
		log.Println("Error deleting completed order:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
