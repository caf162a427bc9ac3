// Package transport is the thin adapter between a session.Manager's
// encoded change maps and a browser connection. The core packages
// (render, fingerprint, liveview, registry, changemap) never import
// this package — it only consumes their output, never the reverse.
package transport

import (
	"context"
	"errors"
)

// Sender is the minimal surface the session manager's caller needs: push
// an already-encoded change map to the client, and find out if the
// connection is gone. Anything richer (framing, reconnects, multiple
// sub-protocols) lives in the concrete implementation below, not here.
type Sender interface {
	Send(ctx context.Context, frame []byte) error
	Close() error
}

// Common transport errors.
var (
	ErrNotConnected     = errors.New("transport not connected")
	ErrConnectionClosed = errors.New("connection closed")
)
