// Package transport defines the contract between a WAMP session and the
// transport that carries its messages.
//
// A Transport is message based, bidirectional, reliable and ordered: every
// accepted message is delivered exactly once and in submission order, or the
// connection is reported as failed. Implementations are free in how they
// achieve this; the contract assumes it.
//
// Lifecycle:
//
//	Disconnected --Connect--> Connecting --> Connected --Disconnect--> Disconnecting --> Disconnected
//
// Connect and Disconnect return a *Future that is satisfied once the
// operation completes; failures travel through the Future and are never
// returned synchronously. A transport may be connected again after it has
// disconnected unless the implementation documents itself as single-use.
//
// Backpressure works in both directions. When the outbound path congests the
// transport calls the registered PauseHandler once per congestion onset, and
// the ResumeHandler once when it clears; these are advisory and SendMessage
// keeps accepting messages. Pause and Resume on the transport itself stop and
// restart delivery of inbound messages to the attached Handler.
//
// The package also provides the pieces concrete transports are built from
// (Dispatcher, Congestion, Gate, StateTracker, Future) and PipeTransport, an
// in-memory implementation for tests.
package transport

// Message is an opaque protocol message. The transport never interprets
// Data. Ownership passes to the transport on SendMessage; the caller must not
// modify or reuse the message afterwards.
type Message struct {
	// Data contains the serialized message bytes.
	Data []byte
}

// NewMessage wraps data in a Message without copying it.
func NewMessage(data []byte) *Message {
	return &Message{Data: data}
}

// Handler receives inbound messages and lifecycle notifications from the
// transport it is attached to. The transport does not own its handler.
//
// Callbacks run on a transport goroutine. A callback that is in progress when
// the handler is detached or replaced completes on the handler it started on.
type Handler interface {
	// OnAttach is called once the handler has been attached to t.
	OnAttach(t Transport)

	// OnDetach is called when the handler is removed, either by Detach
	// (wasClean true) or because the connection failed (wasClean false).
	OnDetach(wasClean bool, reason string)

	// OnMessage is called for each inbound message in wire order.
	OnMessage(msg *Message)
}

// PauseHandler is invoked when the transport detects outbound congestion.
// The session should stop calling SendMessage until the ResumeHandler runs.
type PauseHandler func()

// ResumeHandler is invoked when outbound congestion has cleared.
type ResumeHandler func()

// Transport is the capability set a WAMP session programs against.
//
// All methods are safe for concurrent use.
type Transport interface {
	// Connect starts connecting the transport. The returned Future is
	// satisfied when the attempt completes.
	Connect() *Future

	// Disconnect starts disconnecting the transport. The returned Future is
	// satisfied when the transport is disconnected.
	Disconnect() *Future

	// IsConnected reports a snapshot of the connection state. It does not
	// block and may race with an in-flight Connect or Disconnect.
	IsConnected() bool

	// SendMessage hands msg to the transport for delivery. It does not wait
	// for the peer. Behavior while disconnected is implementation defined
	// and documented by each implementation.
	SendMessage(msg *Message) error

	// SetPauseHandler registers the outbound congestion callback, replacing
	// any previous one. A nil handler drops pause events.
	SetPauseHandler(h PauseHandler)

	// SetResumeHandler registers the congestion-cleared callback, replacing
	// any previous one. A nil handler drops resume events.
	SetResumeHandler(h ResumeHandler)

	// Pause stops delivery of inbound messages to the handler. The
	// connection stays open.
	Pause()

	// Resume restarts delivery of inbound messages.
	Resume()

	// Attach installs h as the single message handler. Attaching while a
	// handler is attached fails with ErrHandlerAttached and leaves the
	// current handler in place.
	Attach(h Handler) error

	// Detach removes the attached handler, if any.
	Detach()

	// HasHandler reports whether a handler is attached.
	HasHandler() bool
}
