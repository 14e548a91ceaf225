package cipherlocktest

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/cipherlock/cipherlock"
)

// RandomAddr returns a valid random address generated on the fly.
func RandomAddr(t testing.TB) cipherlock.Address {
	raw := make([]byte, cipherlock.AddressLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("cannot generate a random address: %s", err)
	}
	a := cipherlock.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("generated address is not valid: %s", err)
	}
	return a
}

// DecodeAddr takes a hex encoded address string and returns its raw
// representation. This function ensures that the returned value is a
// valid address.
func DecodeAddr(t testing.TB, encoded string) cipherlock.Address {
	t.Helper()
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		t.Fatalf("cannot decode hex string: %s", err)
	}
	a := cipherlock.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("decoded string is not a valid address: %s", err)
	}
	return a
}

// SequenceID returns the n-th identifier as produced by an orm
// sequence, big endian encoded on 8 bytes.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
