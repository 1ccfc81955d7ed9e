package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sale struct {
	ID        int             `json:"id" db:"id"`
	StoreID   int             `json:"store_id" db:"store_id"`
	RecordID  int             `json:"record_id" db:"record_id"`
	Price     decimal.Decimal `json:"price" db:"price"`
	PayMethod string          `json:"pay_method" db:"pay_method"`
	Notes     *string         `json:"notes" db:"notes"`
	SaleDate  time.Time       `json:"sale_date" db:"sale_date"`
}

func (s *Sale) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   s.ID,
		ResourceType: "sale",
	}
}

type SaleRequest struct {
	RecordID  int     `json:"record_id" binding:"required"`
	Price     string  `json:"price" binding:"required"`
	PayMethod string  `json:"pay_method" binding:"required"`
	Notes     *string `json:"notes"`
}
