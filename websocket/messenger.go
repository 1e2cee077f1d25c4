// Package websocket Description: the Messenger interface decouples broadcasters
// such as the catalog watcher from the hub.
// file: websocket/messenger.go
package websocket

import "go-model-viewer/models"

// Messenger is an interface for broadcasting messages.
type Messenger interface {
	BroadcastMessage(msg models.ServerMessage)
	BroadcastRaw(msg []byte)
}

var _ Messenger = (*Hub)(nil)
