package utils

import (
	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/errors"
)

// Recovery is a decorator to recover from panics in transactions, so
// we can report them as normal errors.
type Recovery struct{}

var _ cipherlock.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator.
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors.
func (r Recovery) Check(ctx cipherlock.Context, store cipherlock.KVStore, tx cipherlock.Tx, next cipherlock.Checker) (_ *cipherlock.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors.
func (r Recovery) Deliver(ctx cipherlock.Context, store cipherlock.KVStore, tx cipherlock.Tx, next cipherlock.Deliverer) (_ *cipherlock.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, store, tx)
}
