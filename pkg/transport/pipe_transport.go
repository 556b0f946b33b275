package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"
	"golang.org/x/sync/errgroup"
)

// PipeTransportConfig configures a pair of PipeTransports.
type PipeTransportConfig struct {
	// Window is the maximum number of messages a transport keeps in the pipe
	// that the peer has not read yet. Further messages wait in the local
	// outbound queue.
	// Default: 16
	Window int

	// HighWatermark is the outbound queue length at which the pause handler
	// fires.
	// Default: 64
	HighWatermark int

	// LowWatermark is the outbound queue length at which the resume handler
	// fires after a pause. Must be below HighWatermark.
	// Default: 16
	LowWatermark int

	// PollInterval is how often a blocked writer rechecks the window, and a
	// reader with no handler attached rechecks for one.
	// Default: 1ms
	PollInterval time.Duration

	// MaxMessageSize is the largest message SendMessage accepts.
	// Default: 1 MiB
	MaxMessageSize int

	// PipeConfig configures the underlying Pipe. It is used as given.
	PipeConfig PipeConfig

	// LoggerFactory is the factory for creating loggers. It is also used for
	// the pipe when PipeConfig.LoggerFactory is nil.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// DefaultPipeTransportConfig returns the default configuration.
func DefaultPipeTransportConfig() PipeTransportConfig {
	return PipeTransportConfig{
		Window:         16,
		HighWatermark:  64,
		LowWatermark:   16,
		PollInterval:   1 * time.Millisecond,
		MaxMessageSize: 1 << 20,
		PipeConfig:     DefaultPipeConfig(),
	}
}

// PipeTransport is an in-memory Transport connected to a peer PipeTransport
// through a Pipe. It is meant for tests of session code.
//
// Outbound messages are queued and written by a writer goroutine, at most
// Window of them unread by the peer at a time. The queue length drives the
// pause and resume handlers. Inbound messages are read by a reader goroutine
// and delivered to the attached handler; while receive is paused or no
// handler is attached they stay in the pipe.
//
// SendMessage fails with ErrNotConnected unless the transport is connected.
// A PipeTransport can be connected again after Disconnect. Messages still
// queued at Disconnect are sent after the next Connect, and inbound messages
// not yet delivered are delivered then, so nothing accepted is dropped.
// Disconnect does not detach the handler.
type PipeTransport struct {
	pipe   *Pipe
	id     int
	conn   net.Conn
	config PipeTransportConfig
	log    logging.LeveledLogger

	state      StateTracker
	dispatch   Dispatcher
	gate       Gate
	congestion *Congestion

	queueMu sync.Mutex
	queue   []*Message
	wake    chan struct{}

	mu  sync.Mutex
	run *pipeRun

	// held is a message read from the pipe but not delivered when the reader
	// last stopped. Only the reader goroutine touches it.
	held *Message
}

var _ Transport = (*PipeTransport)(nil)

// pipeRun is one connected period of a PipeTransport.
type pipeRun struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewPipeTransportPair creates a Pipe and the two transports at its ends.
// Zero values in config take their defaults.
func NewPipeTransportPair(config PipeTransportConfig) (*PipeTransport, *PipeTransport, error) {
	defaults := DefaultPipeTransportConfig()
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.HighWatermark == 0 && config.LowWatermark == 0 {
		config.HighWatermark = defaults.HighWatermark
		config.LowWatermark = defaults.LowWatermark
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}
	pipeConfig := config.PipeConfig
	if pipeConfig.LoggerFactory == nil {
		pipeConfig.LoggerFactory = config.LoggerFactory
	}
	pipe := NewPipeWithConfig(pipeConfig)

	t0, err := newPipeTransport(pipe, 0, config)
	if err != nil {
		_ = pipe.Close()
		return nil, nil, err
	}
	t1, err := newPipeTransport(pipe, 1, config)
	if err != nil {
		_ = pipe.Close()
		return nil, nil, err
	}
	return t0, t1, nil
}

func newPipeTransport(pipe *Pipe, id int, config PipeTransportConfig) (*PipeTransport, error) {
	t := &PipeTransport{
		pipe:   pipe,
		id:     id,
		conn:   pipe.conn(id),
		config: config,
		wake:   make(chan struct{}, 1),
	}

	if config.LoggerFactory != nil {
		t.log = config.LoggerFactory.NewLogger("transport-pipe")
	}

	congestion, err := NewCongestion(config.LowWatermark, config.HighWatermark, t.onCongested, t.onDrained)
	if err != nil {
		return nil, err
	}
	t.congestion = congestion
	return t, nil
}

// Pipe returns the pipe shared with the peer transport.
func (t *PipeTransport) Pipe() *Pipe {
	return t.pipe
}

// State returns the current connection state.
func (t *PipeTransport) State() State {
	return t.state.State()
}

// Connect starts the reader and writer goroutines. The Future fails with
// ErrAlreadyConnected or ErrInProgress on misuse, and with a
// *TransportFailure wrapping ErrClosed once the pipe is closed.
func (t *PipeTransport) Connect() *Future {
	if t.pipe.Closed() {
		return Resolved(&TransportFailure{Op: "connect", Err: ErrClosed})
	}
	if !t.state.Transition(StateDisconnected, StateConnecting) {
		return Resolved(transitionError(t.state.State(), true))
	}

	f := NewFuture()
	go func() {
		// Clear the deadline used to stop the previous reader.
		err := t.conn.SetReadDeadline(time.Time{})
		if err == nil && t.pipe.Closed() {
			err = ErrClosed
		}
		if err != nil {
			t.state.Set(StateDisconnected)
			f.Complete(&TransportFailure{Op: "connect", Err: err})
			return
		}

		t.mu.Lock()
		t.state.Set(StateConnected)
		t.run = t.start()
		t.mu.Unlock()

		if t.log != nil {
			t.log.Infof("pipe endpoint %d connected", t.id)
		}
		f.Complete(nil)
	}()
	return f
}

// Disconnect stops the reader and writer goroutines and waits for them.
// The Future fails with ErrNotConnected or ErrInProgress on misuse.
func (t *PipeTransport) Disconnect() *Future {
	if !t.state.Transition(StateConnected, StateDisconnecting) {
		return Resolved(transitionError(t.state.State(), false))
	}

	t.mu.Lock()
	run := t.run
	t.mu.Unlock()

	f := NewFuture()
	go func() {
		run.cancel()
		t.interruptRead()
		<-run.done

		t.state.Set(StateDisconnected)
		if t.log != nil {
			t.log.Infof("pipe endpoint %d disconnected", t.id)
		}
		f.Complete(run.err)
	}()
	return f
}

// start launches the goroutines of a new connected period.
func (t *PipeTransport) start() *pipeRun {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	run := &pipeRun{cancel: cancel, done: make(chan struct{})}

	g.Go(func() error { return t.readLoop(ctx) })
	g.Go(func() error { return t.writeLoop(ctx) })

	go func() {
		run.err = g.Wait()
		cancel()

		// A Disconnect in flight reports the error through its Future.
		if run.err != nil && t.state.Transition(StateConnected, StateDisconnected) {
			if t.log != nil {
				t.log.Warnf("pipe endpoint %d failed: %v", t.id, run.err)
			}
			t.dispatch.Detach(false, run.err.Error())
		}
		close(run.done)
	}()
	return run
}

// interruptRead unblocks a reader waiting in Read.
func (t *PipeTransport) interruptRead() {
	_ = t.conn.SetReadDeadline(time.Now())
}

// failure wraps an I/O error, reporting ErrClosed once the pipe is closed.
func (t *PipeTransport) failure(op string, err error) error {
	if t.pipe.Closed() {
		err = ErrClosed
	}
	return &TransportFailure{Op: op, Err: err}
}

// IsConnected reports whether the transport is connected.
func (t *PipeTransport) IsConnected() bool {
	return t.state.IsConnected()
}

// SendMessage queues msg for the peer. It fails with ErrNotConnected unless
// the transport is connected.
func (t *PipeTransport) SendMessage(msg *Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if len(msg.Data) > t.config.MaxMessageSize {
		return ErrMessageTooLarge
	}
	if !t.state.IsConnected() {
		return ErrNotConnected
	}

	t.queueMu.Lock()
	t.queue = append(t.queue, msg)
	t.queueMu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
	return nil
}

// Backlog returns the number of queued outbound messages not yet written
// to the pipe.
func (t *PipeTransport) Backlog() int {
	t.queueMu.Lock()
	defer t.queueMu.Unlock()
	return len(t.queue)
}

func (t *PipeTransport) peek() *Message {
	t.queueMu.Lock()
	defer t.queueMu.Unlock()

	if len(t.queue) == 0 {
		return nil
	}
	return t.queue[0]
}

func (t *PipeTransport) pop() {
	t.queueMu.Lock()
	defer t.queueMu.Unlock()

	t.queue[0] = nil
	t.queue = t.queue[1:]
}

// writeLoop writes queued messages in order while the window allows. A
// message leaves the queue only once written.
func (t *PipeTransport) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(t.config.PollInterval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		t.congestion.Update(t.Backlog())

		msg := t.peek()
		if msg == nil {
			select {
			case <-ctx.Done():
				return nil
			case <-t.wake:
			}
			continue
		}

		if t.pipe.InFlight(t.id) >= t.config.Window {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			continue
		}

		if _, err := t.conn.Write(msg.Data); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			t.interruptRead()
			return t.failure("write", err)
		}
		t.pop()
	}
}

// readLoop reads messages from the pipe and delivers them in order.
func (t *PipeTransport) readLoop(ctx context.Context) error {
	buf := make([]byte, t.config.MaxMessageSize)

	for {
		msg := t.held
		t.held = nil

		if msg == nil {
			n, err := t.conn.Read(buf)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return t.failure("read", err)
			}
			msg = NewMessage(append([]byte(nil), buf[:n]...))
		}

		if !t.deliver(ctx, msg) {
			t.held = msg
			return nil
		}
	}
}

// deliver waits for the gate to open and a handler to be attached, then
// hands msg over. It returns false if ctx ends first.
func (t *PipeTransport) deliver(ctx context.Context, msg *Message) bool {
	for {
		if !t.gate.Wait(ctx.Done()) {
			return false
		}
		if t.dispatch.Deliver(msg) {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(t.config.PollInterval):
		}
	}
}

func (t *PipeTransport) onCongested() {
	if t.log != nil {
		t.log.Debugf("pipe endpoint %d congested", t.id)
	}
	t.dispatch.NotifyPause()
}

func (t *PipeTransport) onDrained() {
	if t.log != nil {
		t.log.Debugf("pipe endpoint %d drained", t.id)
	}
	t.dispatch.NotifyResume()
}

// SetPauseHandler registers the outbound congestion callback. It runs on
// the writer goroutine.
func (t *PipeTransport) SetPauseHandler(h PauseHandler) {
	t.dispatch.SetPauseHandler(h)
}

// SetResumeHandler registers the congestion-cleared callback. It runs on
// the writer goroutine.
func (t *PipeTransport) SetResumeHandler(h ResumeHandler) {
	t.dispatch.SetResumeHandler(h)
}

// Pause stops inbound delivery. A delivery already in progress completes.
func (t *PipeTransport) Pause() {
	t.gate.Pause()
	if t.log != nil {
		t.log.Debugf("pipe endpoint %d receive paused", t.id)
	}
}

// Resume restarts inbound delivery.
func (t *PipeTransport) Resume() {
	t.gate.Resume()
	if t.log != nil {
		t.log.Debugf("pipe endpoint %d receive resumed", t.id)
	}
}

// Attach installs h as the message handler.
func (t *PipeTransport) Attach(h Handler) error {
	return t.dispatch.Attach(t, h)
}

// Detach removes the handler, calling its OnDetach with wasClean true.
func (t *PipeTransport) Detach() {
	t.dispatch.Detach(true, ReasonDetached)
}

// HasHandler reports whether a handler is attached.
func (t *PipeTransport) HasHandler() bool {
	return t.dispatch.HasHandler()
}
