// Package inbound defines the inbound port interfaces for awaymail.
// Inbound adapters (HTTP) call these interfaces.
package inbound

import (
	"context"

	"github.com/Sentinel-Gate/awaymail/pkg/xmpp"
)

// MessageDispatcher hands an in-flight message to the registered
// interceptors. Implemented by service.DispatchService.
type MessageDispatcher interface {
	// Dispatch returns an error when an interceptor rejects the message.
	Dispatch(ctx context.Context, msg *xmpp.Message, processed, read bool) error
}

// Server is a long-running inbound transport.
type Server interface {
	// Start serves until ctx is cancelled or an error occurs.
	// Returns nil on graceful shutdown.
	Start(ctx context.Context) error

	// Close gracefully shuts the server down.
	Close() error
}
