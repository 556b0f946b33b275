package transport

import (
	"fmt"
	"sync/atomic"
)

// Congestion turns an outbound backlog measurement into pause and resume
// edges. The pause callback runs exactly once each time the backlog reaches
// the high watermark from an uncongested state, and the resume callback
// exactly once each time it falls to the low watermark from a congested
// state. Values in between never fire.
//
// Update must be called from a single goroutine (typically the transport's
// writer), which is where the callbacks run; that keeps the edges ordered.
type Congestion struct {
	low, high int
	congested atomic.Bool

	onPause  func()
	onResume func()
}

// NewCongestion returns a detector with the given watermarks. It requires
// 0 <= low < high. Nil callbacks are allowed.
func NewCongestion(low, high int, onPause, onResume func()) (*Congestion, error) {
	if low < 0 || high <= low {
		return nil, fmt.Errorf("%w: watermarks low=%d high=%d", ErrInvalidConfig, low, high)
	}
	return &Congestion{
		low:      low,
		high:     high,
		onPause:  onPause,
		onResume: onResume,
	}, nil
}

// Update records the current backlog and fires at most one edge.
func (c *Congestion) Update(backlog int) {
	switch {
	case !c.congested.Load() && backlog >= c.high:
		c.congested.Store(true)
		if c.onPause != nil {
			c.onPause()
		}
	case c.congested.Load() && backlog <= c.low:
		c.congested.Store(false)
		if c.onResume != nil {
			c.onResume()
		}
	}
}

// Congested reports whether the last edge was a pause.
func (c *Congestion) Congested() bool {
	return c.congested.Load()
}

// Watermarks returns the configured low and high watermarks.
func (c *Congestion) Watermarks() (low, high int) {
	return c.low, c.high
}
