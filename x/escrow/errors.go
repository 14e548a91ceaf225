package escrow

import (
	"github.com/cipherlock/cipherlock/errors"
)

// ABCI response codes 1000-1019 are reserved for the escrow extension.
var (
	// ErrNotFunded is returned when the job custody account does not
	// hold the escrowed amount.
	ErrNotFunded = errors.Register(1000, "job not funded")

	// ErrAlreadyAccepted is returned when a freelancer is already
	// bound to the job.
	ErrAlreadyAccepted = errors.Register(1001, "job already accepted")

	// ErrAlreadyCommitted is returned when a commitment was already
	// recorded for the job.
	ErrAlreadyCommitted = errors.Register(1002, "commitment already submitted")

	// ErrAlreadyRevealed is returned when the decryption key was
	// already revealed.
	ErrAlreadyRevealed = errors.Register(1003, "key already revealed")

	// ErrAlreadyReleased is returned when the job was already settled.
	// Settling includes cancellation and refund.
	ErrAlreadyReleased = errors.Register(1004, "job already settled")

	// ErrNoCommit is returned when an operation requires a recorded
	// commitment and there is none.
	ErrNoCommit = errors.Register(1005, "no commitment submitted")

	// ErrKeyNotRevealed is returned when a payout requires a proven
	// key reveal and there is none.
	ErrKeyNotRevealed = errors.Register(1006, "key not revealed")

	// ErrInvalidKey is returned when a revealed key does not hash to
	// the committed key hash.
	ErrInvalidKey = errors.Register(1007, "key does not match commitment")

	// ErrDeadlinePassed is returned when the commit deadline has
	// passed.
	ErrDeadlinePassed = errors.Register(1008, "deadline passed")

	// ErrDeadlineNotReached is returned when the final deadline has
	// not yet passed.
	ErrDeadlineNotReached = errors.Register(1009, "deadline not reached")

	// ErrCommitDeadlineNotReached is returned when the commit deadline
	// has not yet passed.
	ErrCommitDeadlineNotReached = errors.Register(1010, "commit deadline not reached")

	// ErrInvalidDeadline is returned when job deadlines are malformed
	// or not in the future.
	ErrInvalidDeadline = errors.Register(1011, "invalid deadline")

	// ErrNoFunds is returned when a job is created without a positive
	// amount or the client cannot fund it.
	ErrNoFunds = errors.Register(1012, "no funds")

	// ErrTransferFailed is returned when the custody transfer of a
	// settlement fails. The whole operation is rolled back.
	ErrTransferFailed = errors.Register(1013, "transfer failed")
)
