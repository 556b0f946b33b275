package transport

import "sync/atomic"

// State is the connection state of a Transport.
type State int32

const (
	// StateDisconnected is the initial and terminal state.
	StateDisconnected State = iota
	// StateConnecting means a Connect is in flight.
	StateConnecting
	// StateConnected means messages can be sent and received.
	StateConnected
	// StateDisconnecting means a Disconnect is in flight.
	StateDisconnecting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return "Unknown"
	}
}

// StateTracker holds a State that can be read without locking and changed
// with compare-and-swap transitions. The zero value is StateDisconnected.
type StateTracker struct {
	v atomic.Int32
}

// State returns the current state.
func (s *StateTracker) State() State {
	return State(s.v.Load())
}

// IsConnected reports whether the current state is StateConnected.
func (s *StateTracker) IsConnected() bool {
	return s.State() == StateConnected
}

// Transition moves from one state to another and reports whether the
// current state was from.
func (s *StateTracker) Transition(from, to State) bool {
	return s.v.CompareAndSwap(int32(from), int32(to))
}

// Set stores a state unconditionally.
func (s *StateTracker) Set(state State) {
	s.v.Store(int32(state))
}

// transitionError maps the state a Connect or Disconnect found the
// transport in to the error reported through its Future.
func transitionError(current State, connecting bool) error {
	switch current {
	case StateConnecting, StateDisconnecting:
		return ErrInProgress
	case StateConnected:
		if connecting {
			return ErrAlreadyConnected
		}
	case StateDisconnected:
		if !connecting {
			return ErrNotConnected
		}
	}
	return ErrInProgress
}
