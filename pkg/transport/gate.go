package transport

import "sync"

// Gate holds back inbound delivery while paused. Pausing an already paused
// gate, or resuming an open one, has no effect.
//
// The zero value is an open gate.
type Gate struct {
	mu      sync.Mutex
	paused  bool
	resumed chan struct{}
}

// Pause closes the gate.
func (g *Gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.paused {
		g.paused = true
		g.resumed = make(chan struct{})
	}
}

// Resume opens the gate and releases all waiters.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.paused {
		g.paused = false
		close(g.resumed)
	}
}

// Paused reports whether the gate is closed.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Wait blocks while the gate is closed. It returns true once the gate is
// open and false if stop is closed first.
func (g *Gate) Wait(stop <-chan struct{}) bool {
	for {
		g.mu.Lock()
		if !g.paused {
			g.mu.Unlock()
			return true
		}
		resumed := g.resumed
		g.mu.Unlock()

		select {
		case <-resumed:
		case <-stop:
			return false
		}
	}
}
