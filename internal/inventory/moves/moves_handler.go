package moves

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

type MoveHandler struct {
	Service *MoveService
}

func NewHandler(service *MoveService) *MoveHandler {
	return &MoveHandler{Service: service}
}

func (h *MoveHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/moves", h.MoveAsset)
}

func (h *MoveHandler) MoveAsset(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	asset, err := h.Service.MoveAsset(actor, req)
	if err != nil {
		log.Println("Error moving asset:", err)
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"asset":   asset,
		"dest":    req.Dest,
	})
}
