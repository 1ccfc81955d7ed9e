package models

import (
	"time"

	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
)

// Outbound is the single pending transfer queue feeding assets from central
// inventory to a store. It gets a store only when it is sent.
type Outbound struct {
	ID          int             `json:"id" db:"id"`
	Status      metadata.Status `json:"status" db:"status"`
	StoreID     *int            `json:"store_id" db:"store_id"`
	Notes       *string         `json:"notes" db:"notes"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	CompletedAt *time.Time      `json:"completed_at" db:"completed_at"`
}

func (o *Outbound) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   o.ID,
		ResourceType: "outbound",
	}
}

type OutboundItem struct {
	ID         int       `json:"id" db:"id"`
	OutboundID int       `json:"outbound_id" db:"outbound_id"`
	RecordID   int       `json:"record_id" db:"record_id"`
	AddedAt    time.Time `json:"added_at" db:"added_at"`
}

// FlatOutboundItemRecord joins a queued item with its asset attributes for
// the outbound listing.
type FlatOutboundItemRecord struct {
	ItemID       int       `db:"outbound_item_id"`
	RecordID     int       `db:"record_id"`
	SerialNumber string    `db:"serialnumber"`
	Model        string    `db:"model"`
	CPU          string    `db:"cpu"`
	RamGB        int       `db:"ram_gb"`
	AddedAt      time.Time `db:"added_at"`
}
