package cash

import (
	amino "github.com/tendermint/go-amino"

	"github.com/cipherlock/cipherlock/coin"
	"github.com/cipherlock/cipherlock/errors"
	"github.com/cipherlock/cipherlock/orm"
)

// BucketName is where we store the balances.
const BucketName = "cash"

var cdc = amino.NewCodec()

// Wallet is a set of coins stored under a single address.
type Wallet struct {
	Coins coin.Coins `json:"coins"`
}

var _ orm.Model = (*Wallet)(nil)

// Marshal uses the length prefixed encoding. The bare encoding of a
// wallet with no coins is zero bytes, which the store cannot tell apart
// from a missing key. A drained wallet must remain a stored record.
func (w *Wallet) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryLengthPrefixed(w)
}

func (w *Wallet) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryLengthPrefixed(raw, w)
}

// Validate requires that all coins are valid, sorted and without
// duplicates.
func (w *Wallet) Validate() error {
	return errors.Wrap(w.Coins.Validate(), "coins")
}

// Add modifies the wallet to add coin c.
func (w *Wallet) Add(c coin.Coin) error {
	cs, err := w.Coins.Add(c)
	if err != nil {
		return err
	}
	w.Coins = cs
	return nil
}

// Subtract modifies the wallet to remove coin c.
func (w *Wallet) Subtract(c coin.Coin) error {
	return w.Add(c.Negative())
}

// NewBucket returns a bucket for keeping track of wallets, keyed by the
// owner address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Wallet{})
}
