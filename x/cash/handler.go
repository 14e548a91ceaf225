package cash

import (
	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/errors"
	"github.com/cipherlock/cipherlock/x"
)

const sendTxCost int64 = 100

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r cipherlock.Registry, auth x.Authenticator, control Controller) {
	r.Handle(SendMsg{}.Path(), NewSendHandler(auth, control))
}

// RegisterQuery will register the wallet bucket as "/wallets".
func RegisterQuery(qr cipherlock.QueryRouter) {
	NewBucket().Register("wallets", qr)
}

// SendHandler will handle sending coins.
type SendHandler struct {
	auth    x.Authenticator
	control Controller
}

var _ cipherlock.Handler = SendHandler{}

// NewSendHandler creates a handler for SendMsg.
func NewSendHandler(auth x.Authenticator, control Controller) SendHandler {
	return SendHandler{
		auth:    auth,
		control: control,
	}
}

// Check just verifies it is properly formed and returns the cost of
// executing it.
func (h SendHandler) Check(ctx cipherlock.Context, store cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	var msg SendMsg
	if err := cipherlock.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}

	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "account owner signature missing")
	}

	return &cipherlock.CheckResult{GasAllocated: sendTxCost}, nil
}

// Deliver moves the tokens from source to destination if all
// preconditions are met.
func (h SendHandler) Deliver(ctx cipherlock.Context, store cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	var msg SendMsg
	if err := cipherlock.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}

	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "account owner signature missing")
	}

	if err := h.control.MoveCoins(store, msg.Source, msg.Destination, *msg.Amount); err != nil {
		return nil, err
	}
	return &cipherlock.DeliverResult{}, nil
}
