package transport

import "sync"

// ReasonDetached is the OnDetach reason reported for an explicit Detach.
const ReasonDetached = "detached"

// Dispatcher holds the handler references of a transport and dispatches
// to them. Every dispatch captures the reference under the lock and calls it
// outside the lock, so a callback in progress finishes on the handler it
// started with even if the slot is changed concurrently, and callbacks may
// call back into the transport.
//
// OnAttach and OnDetach are serialized: a Detach racing an Attach reports
// OnDetach only after OnAttach has returned. They must therefore not call
// Attach or Detach themselves.
//
// The zero value is ready to use.
type Dispatcher struct {
	// lifecycleMu orders OnAttach and OnDetach callbacks.
	lifecycleMu sync.Mutex

	mu            sync.RWMutex
	handler       Handler
	pauseHandler  PauseHandler
	resumeHandler ResumeHandler
}

// Attach installs h and calls h.OnAttach(t). It returns ErrHandlerAttached
// without replacing anything if a handler is already attached. A nil h is a
// programming error and panics.
func (d *Dispatcher) Attach(t Transport, h Handler) error {
	if h == nil {
		panic("transport: attach of nil handler")
	}

	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()

	d.mu.Lock()
	if d.handler != nil {
		d.mu.Unlock()
		return ErrHandlerAttached
	}
	d.handler = h
	d.mu.Unlock()

	h.OnAttach(t)
	return nil
}

// Detach removes the handler and calls its OnDetach. It reports whether a
// handler was attached.
func (d *Dispatcher) Detach(wasClean bool, reason string) bool {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()

	d.mu.Lock()
	h := d.handler
	d.handler = nil
	d.mu.Unlock()

	if h == nil {
		return false
	}
	h.OnDetach(wasClean, reason)
	return true
}

// HasHandler reports whether a handler is attached.
func (d *Dispatcher) HasHandler() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handler != nil
}

// Deliver passes msg to the attached handler. It reports false, without
// consuming msg, when no handler is attached.
func (d *Dispatcher) Deliver(msg *Message) bool {
	d.mu.RLock()
	h := d.handler
	d.mu.RUnlock()

	if h == nil {
		return false
	}
	h.OnMessage(msg)
	return true
}

// SetPauseHandler replaces the pause callback.
func (d *Dispatcher) SetPauseHandler(h PauseHandler) {
	d.mu.Lock()
	d.pauseHandler = h
	d.mu.Unlock()
}

// SetResumeHandler replaces the resume callback.
func (d *Dispatcher) SetResumeHandler(h ResumeHandler) {
	d.mu.Lock()
	d.resumeHandler = h
	d.mu.Unlock()
}

// NotifyPause invokes the pause callback, if one is registered.
func (d *Dispatcher) NotifyPause() {
	d.mu.RLock()
	h := d.pauseHandler
	d.mu.RUnlock()

	if h != nil {
		h()
	}
}

// NotifyResume invokes the resume callback, if one is registered.
func (d *Dispatcher) NotifyResume() {
	d.mu.RLock()
	h := d.resumeHandler
	d.mu.RUnlock()

	if h != nil {
		h()
	}
}
