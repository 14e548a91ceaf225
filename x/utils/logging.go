package utils

import (
	"time"

	"github.com/cipherlock/cipherlock"
)

// Logging is a decorator to log messages as they pass through.
type Logging struct{}

var _ cipherlock.Decorator = Logging{}

// NewLogging creates a Logging decorator.
func NewLogging() Logging {
	return Logging{}
}

// Check logs error -> info, success -> debug.
func (r Logging) Check(ctx cipherlock.Context, store cipherlock.KVStore, tx cipherlock.Tx, next cipherlock.Checker) (*cipherlock.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, start, resLog, err, true)
	return res, err
}

// Deliver logs error -> error, success -> info.
func (r Logging) Deliver(ctx cipherlock.Context, store cipherlock.KVStore, tx cipherlock.Tx, next cipherlock.Deliverer) (*cipherlock.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, start, resLog, err, false)
	return res, err
}

// logDuration writes information about the time and result to the logger.
func logDuration(ctx cipherlock.Context, start time.Time, msg string, err error, lowPrio bool) {
	delta := time.Since(start)
	logger := cipherlock.GetLogger(ctx).With("duration", delta/time.Microsecond)

	if err != nil {
		logger = logger.With("err", err)
		logger.Error(msg)
		return
	}

	// Message can be empty, we still want a log entry because it
	// carries the duration.
	if lowPrio {
		logger.Debug(msg)
	} else {
		logger.Info(msg)
	}
}
