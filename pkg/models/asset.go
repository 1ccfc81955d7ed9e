package models

import (
	"time"

	"github.com/lib/pq"
)

// Asset is one serialized physical unit, identified by its serial number.
// Static attributes never change because of a move; only the ownership row
// pointing at the asset changes.
type Asset struct {
	ID              int            `json:"id" db:"id"`
	SerialNumber    string         `json:"serialnumber" db:"serialnumber"`
	ComputerName    string         `json:"computername" db:"computername"`
	Model           string         `json:"model" db:"model"`
	SystemSKU       string         `json:"system_sku" db:"systemsku"`
	OperatingSystem string         `json:"operating_system" db:"operatingsystem"`
	CPU             string         `json:"cpu" db:"cpu"`
	RamGB           int            `json:"ram_gb" db:"ram_gb"`
	Disks           pq.StringArray `json:"disks" db:"disks"`
	BatteryHealth   *int           `json:"battery_health,omitempty" db:"battery_health"`
	IsCurrent       bool           `json:"is_current" db:"is_current"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

func (a *Asset) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   a.ID,
		ResourceType: "asset",
	}
}

// AssetRequest is the payload for registering an asset into central inventory.
type AssetRequest struct {
	SerialNumber    string   `json:"serialnumber" binding:"required"`
	ComputerName    string   `json:"computername"`
	Model           string   `json:"model" binding:"required"`
	SystemSKU       string   `json:"system_sku"`
	OperatingSystem string   `json:"operating_system"`
	CPU             string   `json:"cpu"`
	RamGB           int      `json:"ram_gb"`
	Disks           []string `json:"disks"`
	BatteryHealth   *int     `json:"battery_health"`
}
