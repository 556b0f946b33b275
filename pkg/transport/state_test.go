package transport

import (
	"errors"
	"testing"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "Disconnected"},
		{StateConnecting, "Connecting"},
		{StateConnected, "Connected"},
		{StateDisconnecting, "Disconnecting"},
		{State(42), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStateTracker_Transition(t *testing.T) {
	var s StateTracker

	if s.State() != StateDisconnected {
		t.Fatalf("zero value = %v, want Disconnected", s.State())
	}

	if s.Transition(StateConnected, StateDisconnecting) {
		t.Error("Transition from wrong state should fail")
	}
	if !s.Transition(StateDisconnected, StateConnecting) {
		t.Fatal("Transition Disconnected -> Connecting should succeed")
	}
	if s.IsConnected() {
		t.Error("IsConnected should be false while connecting")
	}

	s.Set(StateConnected)
	if !s.IsConnected() {
		t.Error("IsConnected should be true after Set(Connected)")
	}
}

func TestTransitionError(t *testing.T) {
	tests := []struct {
		name       string
		current    State
		connecting bool
		want       error
	}{
		{"connect while connected", StateConnected, true, ErrAlreadyConnected},
		{"connect while connecting", StateConnecting, true, ErrInProgress},
		{"connect while disconnecting", StateDisconnecting, true, ErrInProgress},
		{"disconnect while disconnected", StateDisconnected, false, ErrNotConnected},
		{"disconnect while connecting", StateConnecting, false, ErrInProgress},
		{"disconnect while disconnecting", StateDisconnecting, false, ErrInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := transitionError(tt.current, tt.connecting); !errors.Is(err, tt.want) {
				t.Errorf("transitionError = %v, want %v", err, tt.want)
			}
		})
	}
}
