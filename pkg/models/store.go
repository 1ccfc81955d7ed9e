package models

import "time"

type Store struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// StoreStockItem is the store-shelf ownership row: the asset sits on this
// store's shelf until it is ordered, sold or pulled back.
type StoreStockItem struct {
	ID         int       `json:"id" db:"id"`
	StoreID    int       `json:"store_id" db:"store_id"`
	RecordID   int       `json:"record_id" db:"record_id"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}
