package sales

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

type SalesHandler struct {
	Service *SalesService
}

func NewHandler(service *SalesService) *SalesHandler {
	return &SalesHandler{Service: service}
}

func (h *SalesHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stores/:store_id/sales", h.GetStoreSales)
	router.POST("/stores/:store_id/sales", h.RecordSale)
}

type salesURI struct {
	StoreID int `uri:"store_id" binding:"required"`
}

func (h *SalesHandler) GetStoreSales(c *gin.Context) {
	var uri salesURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid path parameters", "details": err.Error()})
		return
	}

	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	sales, err := h.Service.GetStoreSales(actor, uri.StoreID)
	if err != nil {
		log.Println("Error fetching store sales:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sales": sales})
}

func (h *SalesHandler) RecordSale(c *gin.Context) {
	var uri salesURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid path parameters", "details": err.Error()})
		return
	}

	var req models.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	asset, err := h.Service.RecordSale(actor, uri.StoreID, req)
	if err != nil {
		log.Println("Error recording sale:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "asset": asset})
}
