package registry

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
)

type RegistryHandler struct {
	Service *RegistryService
}

func NewHandler(service *RegistryService) *RegistryHandler {
	return &RegistryHandler{Service: service}
}

func (h *RegistryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/locations/:serial", h.Locate)
	router.POST("/locations/batch", h.LocateBatch)
}

func (h *RegistryHandler) Locate(c *gin.Context) {
	serial := c.Param("serial")
	if serial == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "serial is required"})
		return
	}

	location, err := h.Service.Locate(serial)
	if err != nil {
		log.Println("Error resolving location:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "location": location})
}

type batchRequest struct {
	Serials []string `json:"serials" binding:"required,min=1"`
}

func (h *RegistryHandler) LocateBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	locations := h.Service.LocateBatch(req.Serials)
	c.JSON(http.StatusOK, gin.H{"success": true, "locations": locations})
}
