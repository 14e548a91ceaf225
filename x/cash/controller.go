package cash

import (
	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/coin"
	"github.com/cipherlock/cipherlock/errors"
	"github.com/cipherlock/cipherlock/orm"
)

// Controller is the functionality needed by other extensions to move
// funds around. This is implemented by CashController and can be mocked
// in tests.
type Controller interface {
	// MoveCoins removes funds from the source account and adds them
	// to the destination account.
	MoveCoins(db cipherlock.KVStore, src cipherlock.Address, dest cipherlock.Address, amount coin.Coin) error
	// Balance returns the coins held by an account. Missing accounts
	// return ErrEmpty.
	Balance(db cipherlock.ReadOnlyKVStore, addr cipherlock.Address) (coin.Coins, error)
}

// CashController is the standard Controller implementation, operating
// on the wallet bucket.
type CashController struct {
	bucket orm.ModelBucket
}

var _ Controller = CashController{}

// NewController returns a CashController using the given bucket to
// store the wallets.
func NewController(bucket orm.ModelBucket) CashController {
	return CashController{bucket: bucket}
}

// MoveCoins moves the given amount from src to dest. If src doesn't
// exist or doesn't have sufficient coins, it fails.
func (c CashController) MoveCoins(db cipherlock.KVStore, src cipherlock.Address, dest cipherlock.Address, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %q", amount)
	}

	var sender Wallet
	switch err := c.bucket.One(db, src, &sender); {
	case err == nil:
		// All good.
	case errors.ErrNotFound.Is(err):
		return errors.Wrapf(errors.ErrEmpty, "account %s", src)
	default:
		return errors.Wrap(err, "cannot load source account")
	}

	if !sender.Coins.Contains(amount) {
		return errors.Wrapf(errors.ErrAmount, "insufficient funds in %s", src)
	}

	var recipient Wallet
	switch err := c.bucket.One(db, dest, &recipient); {
	case err == nil || errors.ErrNotFound.Is(err):
		// A missing destination account starts empty.
	default:
		return errors.Wrap(err, "cannot load destination account")
	}

	if err := sender.Subtract(amount); err != nil {
		return errors.Wrap(err, "cannot debit source")
	}
	if err := recipient.Add(amount); err != nil {
		return errors.Wrap(err, "cannot credit destination")
	}

	if _, err := c.bucket.Put(db, src, &sender); err != nil {
		return errors.Wrap(err, "cannot store source account")
	}
	if _, err := c.bucket.Put(db, dest, &recipient); err != nil {
		return errors.Wrap(err, "cannot store destination account")
	}
	return nil
}

// Balance returns the amount of coins stored on the given account.
func (c CashController) Balance(db cipherlock.ReadOnlyKVStore, addr cipherlock.Address) (coin.Coins, error) {
	var w Wallet
	switch err := c.bucket.One(db, addr, &w); {
	case err == nil:
		return w.Coins, nil
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(errors.ErrEmpty, "account %s", addr)
	default:
		return nil, errors.Wrap(err, "cannot load account")
	}
}

// IssueCoins attempts to add the given amount of coins to the
// destination address. It fails if it overflows the wallet. Note the
// amount may also be negative.
func (c CashController) IssueCoins(db cipherlock.KVStore, dest cipherlock.Address, amount coin.Coin) error {
	var recipient Wallet
	switch err := c.bucket.One(db, dest, &recipient); {
	case err == nil || errors.ErrNotFound.Is(err):
		// A missing account starts empty.
	default:
		return errors.Wrap(err, "cannot load account")
	}

	if err := recipient.Add(amount); err != nil {
		return err
	}
	if _, err := c.bucket.Put(db, dest, &recipient); err != nil {
		return errors.Wrap(err, "cannot store account")
	}
	return nil
}
