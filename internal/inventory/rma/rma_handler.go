package rma

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

type RMAHandler struct {
	Service *RMAService
}

func NewHandler(service *RMAService) *RMAHandler {
	return &RMAHandler{Service: service}
}

func (h *RMAHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/rma", h.GetRMAItems)
	router.POST("/rma", h.AddToRMA)
}

func (h *RMAHandler) GetRMAItems(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var storeID *int
	if raw := c.Query("store_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "store_id must be a number"})
			return
		}
		storeID = &id
	}

	items, err := h.Service.GetRMAItems(actor, storeID)
	if err != nil {
		log.Println("Error fetching rma items:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "items": items})
}

func (h *RMAHandler) AddToRMA(c *gin.Context) {
	var req models.RMARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	asset, err := h.Service.AddToRMA(actor, req)
	if err != nil {
		log.Println("Error adding asset to rma:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "asset": asset})
}
