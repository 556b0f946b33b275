package transport

import (
	"errors"
	"fmt"
)

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed pipe.
	ErrClosed = errors.New("transport: closed")

	// ErrNotConnected is returned when an operation requires a connected transport.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrAlreadyConnected is returned when Connect is called on a connected transport.
	ErrAlreadyConnected = errors.New("transport: already connected")

	// ErrInProgress is returned when Connect or Disconnect is called while the
	// other is still in flight.
	ErrInProgress = errors.New("transport: connect or disconnect in progress")

	// ErrHandlerAttached is returned when Attach is called while a handler is
	// already attached.
	ErrHandlerAttached = errors.New("transport: handler already attached")

	// ErrNilMessage is returned when SendMessage is called with a nil message.
	ErrNilMessage = errors.New("transport: nil message")

	// ErrMessageTooLarge is returned when a message exceeds the maximum size.
	ErrMessageTooLarge = errors.New("transport: message too large")

	// ErrInvalidConfig is returned for inconsistent configuration values.
	ErrInvalidConfig = errors.New("transport: invalid config")
)

// TransportFailure is an I/O-level failure. It is only ever delivered
// through a Future or a handler's OnDetach reason, never returned
// synchronously from Connect or Disconnect.
type TransportFailure struct {
	// Op is the operation that failed, e.g. "connect", "read" or "write".
	Op  string
	Err error
}

func (e *TransportFailure) Error() string {
	return fmt.Sprintf("transport: %s failed: %v", e.Op, e.Err)
}

func (e *TransportFailure) Unwrap() error {
	return e.Err
}
