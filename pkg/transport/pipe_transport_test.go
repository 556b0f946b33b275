package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPair(t *testing.T, config PipeTransportConfig) (*PipeTransport, *PipeTransport) {
	t.Helper()

	a, b, err := NewPipeTransportPair(config)
	if err != nil {
		t.Fatalf("NewPipeTransportPair failed: %v", err)
	}
	t.Cleanup(func() { a.Pipe().Close() })
	return a, b
}

func waitFuture(t *testing.T, f *Future) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := f.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("timeout waiting for future")
	}
	return err
}

func connectAll(t *testing.T, transports ...*PipeTransport) {
	t.Helper()
	for _, tr := range transports {
		if err := waitFuture(t, tr.Connect()); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
	}
}

func sendAll(t *testing.T, tr Transport, msgs []string) {
	t.Helper()
	for _, m := range msgs {
		if err := tr.SendMessage(NewMessage([]byte(m))); err != nil {
			t.Fatalf("SendMessage(%q) failed: %v", m, err)
		}
	}
}

func expectMessages(t *testing.T, h *recordingHandler, want []string) {
	t.Helper()
	for i, w := range want {
		select {
		case got := <-h.received:
			if got != w {
				t.Fatalf("message %d = %q, want %q", i, got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for message %d (%q)", i, w)
		}
	}
}

func expectNoMessage(t *testing.T, h *recordingHandler, wait time.Duration) {
	t.Helper()
	select {
	case got := <-h.received:
		t.Fatalf("unexpected message %q", got)
	case <-time.After(wait):
	}
}

func numbered(prefix string, n int) []string {
	msgs := make([]string, n)
	for i := range msgs {
		msgs[i] = fmt.Sprintf("%s-%03d", prefix, i)
	}
	return msgs
}

func TestPipeTransport_ConnectDisconnect(t *testing.T) {
	a, _ := newTestPair(t, DefaultPipeTransportConfig())

	if a.IsConnected() || a.State() != StateDisconnected {
		t.Fatalf("new transport state = %v, want Disconnected", a.State())
	}

	if err := waitFuture(t, a.Connect()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !a.IsConnected() || a.State() != StateConnected {
		t.Fatalf("state after Connect = %v, want Connected", a.State())
	}

	if err := waitFuture(t, a.Connect()); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect = %v, want ErrAlreadyConnected", err)
	}

	if err := waitFuture(t, a.Disconnect()); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if a.IsConnected() || a.State() != StateDisconnected {
		t.Fatalf("state after Disconnect = %v, want Disconnected", a.State())
	}

	if err := waitFuture(t, a.Disconnect()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("second Disconnect = %v, want ErrNotConnected", err)
	}
}

func TestPipeTransport_ConnectAfterCloseFailsThroughFuture(t *testing.T) {
	a, _ := newTestPair(t, DefaultPipeTransportConfig())
	a.Pipe().Close()

	f := a.Connect()
	if f == nil {
		t.Fatal("Connect returned nil future")
	}

	err := waitFuture(t, f)
	var tf *TransportFailure
	if !errors.As(err, &tf) || !errors.Is(err, ErrClosed) {
		t.Fatalf("Connect = %v, want *TransportFailure wrapping ErrClosed", err)
	}
	if tf.Op != "connect" {
		t.Errorf("Op = %q, want connect", tf.Op)
	}
	if a.IsConnected() {
		t.Error("transport should not be connected")
	}
}

func TestPipeTransport_SendMessageErrors(t *testing.T) {
	config := DefaultPipeTransportConfig()
	config.MaxMessageSize = 8
	a, _ := newTestPair(t, config)

	tests := []struct {
		name string
		msg  *Message
		want error
	}{
		{"nil message", nil, ErrNilMessage},
		{"too large", NewMessage(make([]byte, 9)), ErrMessageTooLarge},
		{"disconnected", NewMessage([]byte("hello")), ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.SendMessage(tt.msg); !errors.Is(err, tt.want) {
				t.Errorf("SendMessage = %v, want %v", err, tt.want)
			}
		})
	}

	if n := a.Backlog(); n != 0 {
		t.Errorf("Backlog = %d after rejected sends, want 0", n)
	}
}

func TestPipeTransport_Ordering(t *testing.T) {
	a, b := newTestPair(t, DefaultPipeTransportConfig())
	ha, hb := newRecordingHandler(), newRecordingHandler()

	if err := a.Attach(ha); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := b.Attach(hb); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	connectAll(t, a, b)

	forward := numbered("a", 200)
	backward := numbered("b", 50)

	sendAll(t, a, forward)
	sendAll(t, b, backward)

	expectMessages(t, hb, forward)
	expectMessages(t, ha, backward)
}

func TestPipeTransport_AttachDetach(t *testing.T) {
	a, b := newTestPair(t, DefaultPipeTransportConfig())
	first, second := newRecordingHandler(), newRecordingHandler()

	if b.HasHandler() {
		t.Fatal("new transport should have no handler")
	}
	if err := b.Attach(first); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if first.attachedT != Transport(b) {
		t.Error("OnAttach should receive the transport")
	}

	if err := b.Attach(second); !errors.Is(err, ErrHandlerAttached) {
		t.Fatalf("second Attach = %v, want ErrHandlerAttached", err)
	}

	connectAll(t, a, b)
	sendAll(t, a, []string{"one"})
	expectMessages(t, first, []string{"one"})

	b.Detach()
	if b.HasHandler() {
		t.Error("HasHandler should be false after Detach")
	}
	select {
	case got := <-first.detached:
		if got != "true:detached" {
			t.Errorf("OnDetach = %q, want true:detached", got)
		}
	case <-time.After(time.Second):
		t.Fatal("OnDetach not called")
	}

	// Detach without a handler is a no-op.
	b.Detach()
	if got := first.Detaches(); len(got) != 1 {
		t.Errorf("detaches = %v, want exactly one", got)
	}

	if err := b.Attach(second); err != nil {
		t.Fatalf("Attach after Detach failed: %v", err)
	}
	sendAll(t, a, []string{"two"})
	expectMessages(t, second, []string{"two"})
	if got := second.Messages(); len(got) != 1 {
		t.Errorf("second handler messages = %v", got)
	}
}

func TestPipeTransport_HeldUntilAttached(t *testing.T) {
	a, b := newTestPair(t, DefaultPipeTransportConfig())
	connectAll(t, a, b)

	msgs := numbered("early", 3)
	sendAll(t, a, msgs)
	time.Sleep(20 * time.Millisecond)

	h := newRecordingHandler()
	if err := b.Attach(h); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	expectMessages(t, h, msgs)
}

func TestPipeTransport_ReceivePause(t *testing.T) {
	a, b := newTestPair(t, DefaultPipeTransportConfig())
	h := newRecordingHandler()
	b.Attach(h)
	connectAll(t, a, b)

	b.Pause()
	b.Pause()

	msgs := numbered("paused", 5)
	sendAll(t, a, msgs)
	expectNoMessage(t, h, 50*time.Millisecond)

	if !b.IsConnected() {
		t.Error("receive pause should not disconnect")
	}

	b.Resume()
	expectMessages(t, h, msgs)

	// Resume while not paused is a no-op.
	b.Resume()
	sendAll(t, a, []string{"after"})
	expectMessages(t, h, []string{"after"})
}

func TestPipeTransport_BackpressureCycles(t *testing.T) {
	config := DefaultPipeTransportConfig()
	config.Window = 4
	config.HighWatermark = 8
	config.LowWatermark = 2
	config.PipeConfig.AutoProcess = false
	a, b := newTestPair(t, config)

	var pauses, resumes atomic.Int32
	paused := make(chan struct{}, 8)
	resumed := make(chan struct{}, 8)
	a.SetPauseHandler(func() {
		pauses.Add(1)
		paused <- struct{}{}
	})
	a.SetResumeHandler(func() {
		resumes.Add(1)
		resumed <- struct{}{}
	})

	h := newRecordingHandler()
	b.Attach(h)
	connectAll(t, a, b)

	for cycle := 1; cycle <= 3; cycle++ {
		msgs := numbered(fmt.Sprintf("c%d", cycle), config.Window+config.HighWatermark+5)

		a.Pipe().SetAutoProcess(false)
		sendAll(t, a, msgs[:config.Window+config.HighWatermark])

		select {
		case <-paused:
		case <-time.After(2 * time.Second):
			t.Fatalf("cycle %d: pause handler not called", cycle)
		}

		// Further sends while congested are accepted and do not pause again.
		sendAll(t, a, msgs[config.Window+config.HighWatermark:])
		time.Sleep(20 * time.Millisecond)
		if got := pauses.Load(); got != int32(cycle) {
			t.Fatalf("cycle %d: pauses = %d, want %d", cycle, got, cycle)
		}
		if got := resumes.Load(); got != int32(cycle-1) {
			t.Fatalf("cycle %d: resumes = %d before draining, want %d", cycle, got, cycle-1)
		}

		a.Pipe().SetAutoProcess(true)

		select {
		case <-resumed:
		case <-time.After(2 * time.Second):
			t.Fatalf("cycle %d: resume handler not called", cycle)
		}

		expectMessages(t, h, msgs)
	}

	if p, r := pauses.Load(), resumes.Load(); p != 3 || r != 3 {
		t.Errorf("pauses = %d, resumes = %d, want 3 each", p, r)
	}
}

func TestPipeTransport_Reconnect(t *testing.T) {
	a, b := newTestPair(t, DefaultPipeTransportConfig())
	h := newRecordingHandler()
	b.Attach(h)
	connectAll(t, a, b)

	sendAll(t, a, []string{"first"})
	expectMessages(t, h, []string{"first"})

	if err := waitFuture(t, b.Disconnect()); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if !b.HasHandler() {
		t.Error("Disconnect should not detach the handler")
	}

	// Messages sent while the receiver is down wait in the pipe.
	pending := numbered("pending", 3)
	sendAll(t, a, pending)
	expectNoMessage(t, h, 30*time.Millisecond)

	connectAll(t, b)
	expectMessages(t, h, pending)

	// The sender can also cycle its connection.
	if err := waitFuture(t, a.Disconnect()); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if err := a.SendMessage(NewMessage([]byte("dropped?"))); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SendMessage while disconnected = %v, want ErrNotConnected", err)
	}
	connectAll(t, a)
	sendAll(t, a, []string{"again"})
	expectMessages(t, h, []string{"again"})
}

func TestPipeTransport_QueuedMessagesSurviveDisconnect(t *testing.T) {
	config := DefaultPipeTransportConfig()
	config.Window = 1
	config.PipeConfig.AutoProcess = false
	a, b := newTestPair(t, config)

	h := newRecordingHandler()
	b.Attach(h)
	connectAll(t, a, b)

	msgs := numbered("queued", 5)
	sendAll(t, a, msgs)
	time.Sleep(20 * time.Millisecond)

	if err := waitFuture(t, a.Disconnect()); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if n := a.Backlog(); n != len(msgs)-1 {
		t.Errorf("Backlog after Disconnect = %d, want %d", n, len(msgs)-1)
	}

	connectAll(t, a)
	a.Pipe().SetAutoProcess(true)
	expectMessages(t, h, msgs)
}

func TestPipeTransport_PipeCloseReportsFailure(t *testing.T) {
	a, b := newTestPair(t, DefaultPipeTransportConfig())
	h := newRecordingHandler()
	b.Attach(h)
	connectAll(t, a, b)

	a.Pipe().Close()

	select {
	case got := <-h.detached:
		if !strings.HasPrefix(got, "false:") {
			t.Errorf("OnDetach = %q, want wasClean false", got)
		}
		if !strings.Contains(got, ErrClosed.Error()) {
			t.Errorf("OnDetach reason = %q, want it to mention %q", got, ErrClosed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not detached after pipe close")
	}

	if b.IsConnected() {
		t.Error("transport should be disconnected after failure")
	}
	if err := waitFuture(t, b.Connect()); !errors.Is(err, ErrClosed) {
		t.Errorf("Connect after close = %v, want ErrClosed", err)
	}
}

func TestNewPipeTransportPair_Config(t *testing.T) {
	config := DefaultPipeTransportConfig()
	if config.Window != 16 || config.HighWatermark != 64 || config.LowWatermark != 16 {
		t.Errorf("defaults = %+v", config)
	}
	if config.PollInterval != time.Millisecond {
		t.Errorf("PollInterval = %v, want 1ms", config.PollInterval)
	}

	a, _, err := NewPipeTransportPair(PipeTransportConfig{})
	if err != nil {
		t.Fatalf("zero config failed: %v", err)
	}
	defer a.Pipe().Close()
	if a.config.Window != 16 || a.config.MaxMessageSize != 1<<20 {
		t.Errorf("zero config not defaulted: %+v", a.config)
	}

	bad := DefaultPipeTransportConfig()
	bad.LowWatermark = bad.HighWatermark
	if _, _, err := NewPipeTransportPair(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("equal watermarks = %v, want ErrInvalidConfig", err)
	}
}
