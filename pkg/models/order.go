package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
)

// Order is a store order aggregate. At most one pending order exists per
// store; a completed order is immutable except for soft-delete flags on its
// items.
type Order struct {
	ID         int             `json:"order_id" db:"id"`
	StoreID    int             `json:"store_id" db:"store_id"`
	Status     metadata.Status `json:"status" db:"status"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	Items      []OrderItem     `json:"items"`
	TotalItems int             `json:"total_items"`
	// ActiveItems counts items that have not been superseded by a newer order.
	ActiveItems int `json:"items_count"`
}

func (o *Order) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   o.ID,
		ResourceType: "order",
	}
}

// OrderItem links an asset to an order. IsDeleted marks a completed order's
// line as superseded when the same asset was re-added to a newer pending
// order; it never means the row was removed.
type OrderItem struct {
	ID        int                 `json:"id" db:"id"`
	OrderID   int                 `json:"order_id" db:"order_id"`
	RecordID  int                 `json:"record_id" db:"record_id"`
	Notes     *string             `json:"notes" db:"notes"`
	Price     decimal.NullDecimal `json:"price" db:"price"`
	PayMethod *string             `json:"pay_method" db:"pay_method"`
	IsDeleted bool                `json:"is_deleted" db:"is_deleted"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
}

// FlatOrderItemRecord is the joined row shape the order read path scans:
// order item plus the asset's static attributes.
type FlatOrderItemRecord struct {
	OrderID         int                 `db:"order_id"`
	OrderStatus     string              `db:"order_status"`
	OrderCreatedAt  time.Time           `db:"order_created_at"`
	ItemID          *int                `db:"item_id"`
	RecordID        *int                `db:"record_id"`
	SerialNumber    *string             `db:"serialnumber"`
	ComputerName    *string             `db:"computername"`
	Model           *string             `db:"model"`
	CPU             *string             `db:"cpu"`
	RamGB           *int                `db:"ram_gb"`
	Notes           *string             `db:"notes"`
	Price           decimal.NullDecimal `db:"price"`
	PayMethod       *string             `db:"pay_method"`
	ItemIsDeleted   *bool               `db:"is_deleted"`
	ItemCreatedAt   *time.Time          `db:"item_created_at"`
}

// AddOrderItemsRequest is the payload for adding store-stock assets to the
// store's pending order.
type AddOrderItemsRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1"`
}

type OrderItemRequest struct {
	RecordID int     `json:"record_id" binding:"required"`
	Notes    *string `json:"notes"`
}

// AddOrderItemsResult reports, per asset, whether a stale completed-order row
// had to be superseded to make room for the new line.
type AddOrderItemsResult struct {
	OrderID    int                `json:"order_id"`
	OrderIsNew bool               `json:"order_is_new"`
	Items      []OrderItemOutcome `json:"items"`
}

type OrderItemOutcome struct {
	RecordID   int  `json:"record_id"`
	ItemID     int  `json:"item_id"`
	Superseded bool `json:"superseded"`
}
