// Package integration provides test infrastructure for end-to-end tests of
// WAMP-CRA sessions over the in-memory transport.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/backkem/wamp/pkg/transport"
	"github.com/pion/logging"
)

// TestPair holds a client and a router handler attached to the two ends of
// a connected PipeTransport pair. Generic over the handler types so tests
// get type-safe access to role-specific state.
//
// Example usage:
//
//	pair := NewTestPair(t, newClient(...), newRouter(...))
//	defer pair.Close()
//	pair.Client.Start()
type TestPair[C, R transport.Handler] struct {
	// Client is the handler attached to ClientTransport.
	Client C

	// Router is the handler attached to RouterTransport.
	Router R

	// ClientTransport is endpoint 0 of the pipe.
	ClientTransport *transport.PipeTransport

	// RouterTransport is endpoint 1 of the pipe.
	RouterTransport *transport.PipeTransport

	// internal
	t             *testing.T
	ctx           context.Context
	cancel        context.CancelFunc
	loggerFactory logging.LoggerFactory
}

// TestPairConfig configures the test pair creation.
type TestPairConfig struct {
	// Transport configures the transport pair.
	Transport transport.PipeTransportConfig

	// Timeout bounds connecting and the pair's Context.
	// Defaults to 10 seconds.
	Timeout time.Duration

	// LoggerFactory for logging. If nil, uses DefaultLoggerFactory.
	LoggerFactory logging.LoggerFactory
}

// DefaultTestPairConfig returns default configuration for test pairs.
func DefaultTestPairConfig() TestPairConfig {
	return TestPairConfig{
		Transport: transport.DefaultPipeTransportConfig(),
		Timeout:   10 * time.Second,
	}
}

// NewTestPair creates a connected test pair with default configuration.
func NewTestPair[C, R transport.Handler](t *testing.T, client C, router R) *TestPair[C, R] {
	return NewTestPairWithConfig(t, client, router, DefaultTestPairConfig())
}

// NewTestPairWithConfig creates a connected test pair. Both handlers are
// attached before either side connects.
func NewTestPairWithConfig[C, R transport.Handler](
	t *testing.T,
	client C,
	router R,
	config TestPairConfig,
) *TestPair[C, R] {
	t.Helper()

	// Apply defaults
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	config.Transport.LoggerFactory = loggerFactory

	clientTransport, routerTransport, err := transport.NewPipeTransportPair(config.Transport)
	if err != nil {
		t.Fatalf("Failed to create transports: %v", err)
	}

	if err := routerTransport.Attach(router); err != nil {
		clientTransport.Pipe().Close()
		t.Fatalf("Failed to attach router: %v", err)
	}
	if err := clientTransport.Attach(client); err != nil {
		clientTransport.Pipe().Close()
		t.Fatalf("Failed to attach client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)

	for _, tr := range []*transport.PipeTransport{routerTransport, clientTransport} {
		if err := tr.Connect().Wait(ctx); err != nil {
			clientTransport.Pipe().Close()
			cancel()
			t.Fatalf("Connect failed: %v", err)
		}
	}

	return &TestPair[C, R]{
		Client:          client,
		Router:          router,
		ClientTransport: clientTransport,
		RouterTransport: routerTransport,
		t:               t,
		ctx:             ctx,
		cancel:          cancel,
		loggerFactory:   loggerFactory,
	}
}

// Close disconnects both transports and releases the pipe.
// Should be called with defer after creating the pair.
func (p *TestPair[C, R]) Close() {
	for _, tr := range []*transport.PipeTransport{p.ClientTransport, p.RouterTransport} {
		if tr.IsConnected() {
			if err := tr.Disconnect().Wait(p.ctx); err != nil {
				p.t.Logf("Disconnect failed: %v", err)
			}
		}
	}

	if err := p.ClientTransport.Pipe().Close(); err != nil {
		p.t.Logf("Pipe close failed: %v", err)
	}

	if p.cancel != nil {
		p.cancel()
	}
}

// Context returns the pair's context, bounded by the configured timeout.
func (p *TestPair[C, R]) Context() context.Context {
	return p.ctx
}

// LoggerFactory returns the logger factory used by this pair.
func (p *TestPair[C, R]) LoggerFactory() logging.LoggerFactory {
	return p.loggerFactory
}
