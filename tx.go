package cipherlock

import (
	"reflect"

	"github.com/cipherlock/cipherlock/errors"
)

// Marshaller is anything that can be represented in binary.
//
// Marshal may validate the data before serializing it and unless you
// previously validated the struct, errors should be expected.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal.
//
// This is separated from Marshaller, as this almost always requires a
// pointer, and functions that only need to marshal bytes can use the
// Marshaller interface to access non-pointers.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Msg is a request to make a state transition. It is just the intent,
// and must be validated by the Handlers. All authentication information
// is in the wrapping Tx.
type Msg interface {
	Persistent

	// Path returns the message path. This is used by the Router to
	// locate the proper Handler. Msg should be created alongside the
	// Handler that corresponds to them.
	Path() string

	// Validate makes sure the basic rules are enforced upon input data.
	Validate() error
}

// Tx represents the data sent from the user to the engine. It includes
// the actual message, along with anything needed to pass through
// middleware (caller conditions are resolved by the environment and
// travel in the Context, not here).
type Tx interface {
	Persistent

	// GetMsg returns the action we wish to communicate.
	GetMsg() (Msg, error)
}

// TxDecoder can parse bytes into a Tx.
type TxDecoder func(txBytes []byte) (Tx, error)

// GetPath returns the path of the message, or (missing) if no message.
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// LoadMsg extracts the message from the transaction, validates it and
// loads it into the destination. The destination must be a non-nil
// pointer of the same type as the transported message.
func LoadMsg(tx Tx, destination Msg) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get message")
	}
	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}

	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr {
		return errors.Wrap(errors.ErrType, "destination must be a pointer")
	}
	val := reflect.ValueOf(msg)
	if got, want := val.Type(), dest.Type(); got != want {
		return errors.Wrapf(errors.ErrType, "want %s message, got %s", want, got)
	}
	dest.Elem().Set(val.Elem())
	return nil
}
