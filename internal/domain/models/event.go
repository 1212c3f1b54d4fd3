// internal/domain/models/event.go
package models

import (
	"encoding/json"
	"time"
)

// Sheet change kinds reported by the spreadsheet trigger script.
const (
	ChangeEdit   = "edit"
	ChangeInsert = "insert"
	ChangeDelete = "delete"
)

// Notification types pushed to subscribers.
const (
	NotificationConnected    = "connected"
	NotificationHeartbeat    = "heartbeat"
	NotificationSheetUpdated = "sheet-updated"
)

// SheetChange is the webhook payload sent when the spreadsheet is edited.
type SheetChange struct {
	SheetID   string `json:"sheetId"`
	Range     string `json:"range"`
	EventType string `json:"eventType"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"userId,omitempty"`
}

// Notification is one server-push message. It is never persisted.
type Notification struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}
