package server

import "errors"

var (
	// ErrConnectionClosed is returned by operations attempted on a
	// connection that has already been closed.
	ErrConnectionClosed = errors.New("connection already closed")

	// ErrNoHandler is returned by Run when no connection handler has
	// been registered on the server.
	ErrNoHandler = errors.New("no connection handler configured")
)
