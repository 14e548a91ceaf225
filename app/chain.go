package app

import (
	"github.com/cipherlock/cipherlock"
)

// Decorators holds a chain of decorators, not yet resolved by a Handler.
type Decorators struct {
	chain []cipherlock.Decorator
}

// ChainDecorators sets up a chain of decorators to wrap a handler. They
// are executed in the order given, wrapping the handler passed to
// WithHandler.
func ChainDecorators(chain ...cipherlock.Decorator) Decorators {
	return Decorators{chain: chain}
}

// Chain appends more decorators to the end of an existing chain.
func (d Decorators) Chain(chain ...cipherlock.Decorator) Decorators {
	return Decorators{chain: append(d.chain, chain...)}
}

// WithHandler resolves the stack of decorators into a concrete Handler
// that executes the chain and then the given handler.
func (d Decorators) WithHandler(h cipherlock.Handler) cipherlock.Handler {
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = step{d: d.chain[i], next: h}
	}
	return h
}

// step captures one decorator and the rest of the handler chain.
type step struct {
	d    cipherlock.Decorator
	next cipherlock.Handler
}

var _ cipherlock.Handler = step{}

func (s step) Check(ctx cipherlock.Context, store cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	return s.d.Check(ctx, store, tx, s.next)
}

func (s step) Deliver(ctx cipherlock.Context, store cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	return s.d.Deliver(ctx, store, tx, s.next)
}
