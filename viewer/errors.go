package viewer

import "errors"

// Error categories surfaced to the user as Status events.
var (
	ErrModelLoad        = errors.New("model load failed")
	ErrListRequest      = errors.New("model list request failed")
	ErrMalformedMessage = errors.New("malformed server message")
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotImplemented   = errors.New("not implemented")
	ErrClosed           = errors.New("connection manager closed")
)
