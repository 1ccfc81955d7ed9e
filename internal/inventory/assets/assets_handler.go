package assets

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	"github.com/ChrisHK/system-monitor-sub001/pkg/auditlog"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/roles"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

// Ledger is the asset registry surface the handler needs.
type Ledger interface {
	RegisterAsset(req models.AssetRequest) (*models.Asset, error)
	GetAsset(id int) (*models.Asset, error)
	GetAssetBySerial(serial string) (*models.Asset, error)
	GetAssetList() (*[]models.Asset, error)
	GetAssetsBy(conditions repository.QueryBuilder) (*[]models.Asset, error)
}

// AuditTrail records actions against ledger rows and reads them back.
type AuditTrail interface {
	Log(action string, data interface{}, item auditlog.Auditable)
	History(resourceID int, resourceType string) (*[]models.AuditLog, error)
}

type AssetHandler struct {
	r        Ledger
	AuditLog AuditTrail
}

func NewHandler(r Ledger, a AuditTrail) *AssetHandler {
	return &AssetHandler{r: r, AuditLog: a}
}

func (h *AssetHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/assets", h.GetAssets)
	router.GET("/assets/serial/:serial", h.GetAssetBySerial)
	router.GET("/assets/log/:id", h.GetAssetLog)
	router.POST("/assets", security.Authorize(roles.Staff), h.RegisterAsset)
}

func (h *AssetHandler) GetAssets(c *gin.Context) {
	conditions := repository.NewQueryBuilder()
	for _, key := range []string{"model", "cpu", "serialnumber"} {
		if value := c.Query(key); value != "" {
			conditions.AddCondition(key, value)
		}
	}

	var (
		assets *[]models.Asset
		err    error
	)
	if conditions.HasConditions() {
		assets, err = h.r.GetAssetsBy(conditions)
	} else {
		assets, err = h.r.GetAssetList()
	}
	if err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Unable to get assets", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, assets)
}

func (h *AssetHandler) GetAssetBySerial(c *gin.Context) {
	serial := c.Param("serial")
	if serial == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "serial is required"})
		return
	}

	asset, err := h.r.GetAssetBySerial(serial)
	if err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, asset)
}

// GetAssetLog answers with the audit trail of one asset, newest entries
// first. The asset itself must exist; an asset that was never moved simply
// has an empty trail.
func (h *AssetHandler) GetAssetLog(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	if _, err := h.r.GetAsset(id); err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	entries, err := h.AuditLog.History(id, "asset")
	if err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Unable to get asset log", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *AssetHandler) RegisterAsset(c *gin.Context) {
	var req models.AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	asset, err := h.r.RegisterAsset(req)
	if err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	if h.AuditLog != nil {
		h.AuditLog.Log("register", map[string]interface{}{"serialnumber": asset.SerialNumber}, asset)
	}

	c.JSON(http.StatusCreated, asset)
}
