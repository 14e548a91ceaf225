package cipherlocktest

import "github.com/cipherlock/cipherlock"

// Handler is a mock implementation of the cipherlock.Handler interface.
// Each method call is counted.
type Handler struct {
	checkCall   int
	CheckResult cipherlock.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult cipherlock.DeliverResult
	DeliverErr    error
}

var _ cipherlock.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	h.deliverCall++
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
