package cash

import (
	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/coin"
	"github.com/cipherlock/cipherlock/errors"
)

const (
	maxMemoSize = 128
	maxRefSize  = 64
)

// SendMsg moves the given amount between two wallets.
type SendMsg struct {
	Source      cipherlock.Address `json:"source"`
	Destination cipherlock.Address `json:"destination"`
	Amount      *coin.Coin         `json:"amount"`
	// Memo is a free-form human readable message.
	Memo string `json:"memo,omitempty"`
	// Ref is a reference to a transaction or object this payment
	// relates to.
	Ref []byte `json:"ref,omitempty"`
}

var _ cipherlock.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message.
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible.
func (m *SendMsg) Validate() error {
	if m.Amount == nil || !m.Amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount: %v", m.Amount)
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if err := m.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := m.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if len(m.Memo) > maxMemoSize {
		return errors.Wrap(errors.ErrInput, "memo too long")
	}
	if len(m.Ref) > maxRefSize {
		return errors.Wrap(errors.ErrInput, "ref too long")
	}
	return nil
}

func (m *SendMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}
