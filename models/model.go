// Package models defines data structures used across the application.
// File: models/model.go
package models

import "time"

// ----------------------- model list -----------------------

// ModelEntry is one row of the model list shown by the viewer.
type ModelEntry struct {
	Name string `json:"name"`
}

// ModelRecord is the server-side description of a model asset file.
type ModelRecord struct {
	Name     string    `json:"name"`     // asset name without extension, e.g. "teapot"
	File     string    `json:"file"`     // file name under /models/, e.g. "teapot.js"
	Size     int64     `json:"size"`     // bytes
	Modified time.Time `json:"modified"` // last modification time
}

// Entry projects a record to the list entry the viewer consumes.
func (r ModelRecord) Entry() ModelEntry {
	return ModelEntry{Name: r.Name}
}

// Names returns the names of the given entries in order.
func Names(entries []ModelEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// ------------------------ connection ------------------------

// ConnectionState tracks the single viewer connection.
type ConnectionState int

const (
	StateNone ConnectionState = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ------------------------ wire messages ------------------------

// ServerMessage is the JSON envelope exchanged over the model server WebSocket.
type ServerMessage struct {
	Action string       `json:"action"`
	Models []ModelEntry `json:"models,omitempty"`
}

// Actions understood or emitted by the model server.
const (
	ActionListModels    = "listModels"
	ActionModels        = "models"
	ActionModelsChanged = "modelsChanged"
)
