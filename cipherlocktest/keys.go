package cipherlocktest

import (
	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/crypto"
)

// NewKey returns a random ed25519 private key.
func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the signature condition of a freshly generated
// key.
func NewCondition() cipherlock.Condition {
	return NewKey().PublicKey().Condition()
}
