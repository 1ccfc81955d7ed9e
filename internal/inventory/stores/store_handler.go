package stores

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/roles"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

type StoreHandler struct {
	r *StoreRepository
}

func NewHandler(r *StoreRepository) *StoreHandler {
	return &StoreHandler{r: r}
}

func (h *StoreHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stores", h.GetStores)
	router.POST("/stores", security.Authorize(roles.Admin), h.CreateStore)
	router.GET("/stores/:store_id", h.GetStore)
	router.GET("/stores/:store_id/stock", h.GetStoreStock)
}

func (h *StoreHandler) GetStore(c *gin.Context) {
	var uri struct {
		StoreID int `uri:"store_id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid path parameters", "details": err.Error()})
		return
	}

	store, err := h.r.GetStore(uri.StoreID)
	if err != nil {
		log.Println("Error fetching store:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "store": store})
}

func (h *StoreHandler) GetStores(c *gin.Context) {
	stores, err := h.r.GetStores()
	if err != nil {
		log.Println("Error fetching stores:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "stores": stores})
}

type createStoreRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req createStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	store, err := h.r.PersistStore(req.Name)
	if err != nil {
		log.Println("Error creating store:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "store": store})
}

func (h *StoreHandler) GetStoreStock(c *gin.Context) {
	var uri struct {
		StoreID int `uri:"store_id" binding:"required"`
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
	if decision := actor.Decide(uri.StoreID); !decision.Allowed {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no access to this store"})
		return
	}

	stock, err := h.r.GetStoreStock(uri.StoreID)
	if err != nil {
		log.Println("Error fetching store stock:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "stock": stock})
}
