// Package events contains the WebSocket message contracts pushed to
// dashboard clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeUploadStatus is sent on every upload status transition
	MessageTypeUploadStatus MessageType = "upload.status"

	// MessageTypeConnect greets a client right after the upgrade
	MessageTypeConnect MessageType = "connect"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// UploadStatus is the payload of an upload.status message
type UploadStatus struct {
	UploadID          string    `json:"upload_id"`
	OwnerID           string    `json:"owner_id"`
	Filename          string    `json:"filename"`
	Source            string    `json:"source"` // http|sheet|watch
	Status            string    `json:"status"` // processing|completed|failed
	Final             bool      `json:"final"`
	ProductsProcessed int       `json:"products_processed"`
	Errors            []string  `json:"errors,omitempty"`
	Warnings          []string  `json:"warnings,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SystemStatus is sent to a client right after it connects
type SystemStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Clients int    `json:"clients"`
}
