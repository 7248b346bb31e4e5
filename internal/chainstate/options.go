package chainstate

import (
	"github.com/gabapcia/blockledger/internal/txverify"
)

type config struct {
	retentionWindow int
	acceptor        *txverify.Acceptor
	observer        Observer
}

// Option configures a Chain.
type Option func(*config)

// WithRetentionWindow sets the cutoff age. Values below MinRetentionWindow are
// raised to MinRetentionWindow.
func WithRetentionWindow(n int) Option {
	return func(c *config) {
		c.retentionWindow = max(n, MinRetentionWindow)
	}
}

// WithAcceptor replaces the transaction batch acceptor used to validate block contents.
func WithAcceptor(a *txverify.Acceptor) Option {
	return func(c *config) {
		if a != nil {
			c.acceptor = a
		}
	}
}

// WithObserver registers a callback invoked after every AddBlock decision,
// outside the chain lock.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}
