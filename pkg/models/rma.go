package models

import "time"

// RMAItem holds an asset pulled for return-merchandise handling. StoreID is
// nil when the asset was pulled straight from central inventory.
type RMAItem struct {
	ID        int       `json:"id" db:"id"`
	StoreID   *int      `json:"store_id" db:"store_id"`
	RecordID  int       `json:"record_id" db:"record_id"`
	Reason    string    `json:"reason" db:"reason"`
	Notes     *string   `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (r *RMAItem) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   r.ID,
		ResourceType: "rma",
	}
}

type RMARequest struct {
	RecordID int     `json:"record_id" binding:"required"`
	StoreID  *int    `json:"store_id"`
	Reason   string  `json:"reason" binding:"required"`
	Notes    *string `json:"notes"`
}
