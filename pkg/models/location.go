package models

import (
	"time"

	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
)

// ItemLocation is the registry's answer to "where is this serial right now".
// It is always derived from the ownership tables at query time, never stored
// on the asset.
type ItemLocation struct {
	SerialNumber string        `json:"serialnumber" db:"serialnumber"`
	Location     metadata.Kind `json:"location" db:"location"`
	StoreID      *int          `json:"store_id" db:"store_id"`
	StoreName    *string       `json:"store_name" db:"store_name"`
	OrderID      *int          `json:"order_id,omitempty" db:"order_id"`
	CheckedAt    time.Time     `json:"checked_at"`
}

// InventoryLocation is the fallback for serials no ownership table claims.
func InventoryLocation(serial string, now time.Time) ItemLocation {
	return ItemLocation{
		SerialNumber: serial,
		Location:     metadata.KindInventory,
		CheckedAt:    now,
	}
}
