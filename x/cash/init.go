package cash

import (
	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/coin"
	"github.com/cipherlock/cipherlock/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from the genesis file. The
// address is hex encoded.
type GenesisAccount struct {
	Address cipherlock.Address `json:"address"`
	Coins   coin.Coins         `json:"coins"`
}

// Initializer fulfils the Initializer interface to load initial
// balances from the genesis file.
type Initializer struct{}

var _ cipherlock.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis and save it
// in the database.
func (Initializer) FromGenesis(opts cipherlock.Options, db cipherlock.KVStore) error {
	accts := []GenesisAccount{}
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return errors.Wrap(err, "read genesis options")
	}
	bucket := NewBucket()
	for _, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %q", acct.Address)
		}
		wallet := Wallet{Coins: acct.Coins}
		if _, err := bucket.Put(db, acct.Address, &wallet); err != nil {
			return errors.Wrapf(err, "cannot store account %q", acct.Address)
		}
	}
	return nil
}
