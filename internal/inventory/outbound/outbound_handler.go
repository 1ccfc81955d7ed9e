package outbound

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/roles"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

type OutboundHandler struct {
	Service *OutboundService
}

func NewHandler(service *OutboundService) *OutboundHandler {
	return &OutboundHandler{Service: service}
}

func (h *OutboundHandler) RegisterRoutes(router *gin.RouterGroup) {
	outbound := router.Group("/outbound", security.Authorize(roles.Admin))
	outbound.GET("", h.GetPending)
	outbound.POST("/items", h.AddItem)
	outbound.DELETE("/items/:record_id", h.RemoveItem)
	outbound.POST("/send", h.SendToStore)
}

func (h *OutboundHandler) GetPending(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	outbound, items, err := h.Service.GetPendingOutbound(actor)
	if err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}
	if outbound == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "outbound": nil, "items": []interface{}{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "outbound": outbound, "items": items})
}

type addItemRequest struct {
	RecordID int `json:"record_id" binding:"required"`
}

func (h *OutboundHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	asset, err := h.Service.AddToOutbound(actor, req.RecordID)
	if err != nil {
		log.Println("Error adding item to outbound:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "asset": asset})
}

func (h *OutboundHandler) RemoveItem(c *gin.Context) {
	var uri struct {
		RecordID int `uri:"record_id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid path parameters", "details": err.Error()})
		return
	}

	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if err := h.Service.RemoveFromOutbound(actor, uri.RecordID); err != nil {
		log.Println("Error removing item from outbound:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type sendRequest struct {
	StoreID int     `json:"store_id" binding:"required"`
	Notes   *string `json:"notes"`
}

func (h *OutboundHandler) SendToStore(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	sent, err := h.Service.SendToStore(actor, req.StoreID, req.Notes)
	if err != nil {
		log.Println("Error sending outbound to store:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "store_id": req.StoreID, "items_sent": sent})
}
