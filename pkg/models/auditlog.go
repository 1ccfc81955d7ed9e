package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           int                    `json:"id"`
	ResourceID   int                    `json:"resource_id"`
	ResourceType string                 `json:"resource_type"`
	Action       string                 `json:"action"`
	Data         map[string]interface{} `json:"data,omitempty"`
	DataRaw      []byte                 `json:"-"`
	CreatedAt    time.Time              `json:"created_at"`
}

// LoadFromDB decodes the raw jsonb payload scanned from the audit table.
func (a *AuditLog) LoadFromDB() {
	if len(a.DataRaw) == 0 {
		return
	}
	_ = json.Unmarshal(a.DataRaw, &a.Data)
}
