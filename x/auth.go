/*
Package x contains interfaces shared by the extensions under x/, most
importantly the Authenticator used by handlers to learn which
conditions a transaction has satisfied.
*/
package x

import (
	"github.com/cipherlock/cipherlock"
)

// Authenticator is an interface we can use to extract authentication
// info from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system rather
// than hard-coding one implementation for all extensions.
type Authenticator interface {
	// GetConditions reveals all conditions fulfilled by the
	// transaction, you may want the GetAddresses helper.
	GetConditions(cipherlock.Context) []cipherlock.Condition
	// HasAddress checks if any condition matches this address.
	HasAddress(cipherlock.Context, cipherlock.Address) bool
}

// MultiAuth chains together many Authenticators into one.
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator.
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all conditions from all authenticators.
func (m MultiAuth) GetConditions(ctx cipherlock.Context) []cipherlock.Condition {
	var res []cipherlock.Condition
	for _, impl := range m.impls {
		add := impl.GetConditions(ctx)
		if len(add) > 0 {
			res = append(res, add...)
		}
	}
	return res
}

// HasAddress returns true iff any authenticator claims this address.
func (m MultiAuth) HasAddress(ctx cipherlock.Context, addr cipherlock.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator.
func GetAddresses(ctx cipherlock.Context, auth Authenticator) []cipherlock.Address {
	perms := auth.GetConditions(ctx)
	addrs := make([]cipherlock.Address, len(perms))
	for i, p := range perms {
		addrs[i] = p.Address()
	}
	return addrs
}

// MainSigner returns the first condition if any, otherwise nil.
func MainSigner(ctx cipherlock.Context, auth Authenticator) cipherlock.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// HasAllAddresses returns true if all elements in required are also in
// the context.
func HasAllAddresses(ctx cipherlock.Context, auth Authenticator, required []cipherlock.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}
