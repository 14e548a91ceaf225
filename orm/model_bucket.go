package orm

import (
	"reflect"

	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/errors"
)

// Model is implemented by any entity that can be stored using a
// ModelBucket.
type Model interface {
	cipherlock.Persistent
	Validate() error
}

// ModelBucket is implemented by buckets that operate on Models rather
// than raw bytes.
type ModelBucket interface {
	// One queries the database for a single model instance. Lookup is
	// done by the primary key. The result is loaded into the given
	// destination model.
	// This method returns ErrNotFound if the entity does not exist in
	// the database.
	// If the given model type cannot be used to contain the stored
	// entity, ErrType is returned.
	One(db cipherlock.ReadOnlyKVStore, key []byte, dest Model) error

	// Put saves given model in the database. Before inserting into the
	// database, the model is validated using its Validate method.
	// If the key is nil a sequence generator is used to create a unique
	// key value (this requires the bucket to be configured with
	// WithIDSequence).
	// Using a key that already exists in the database overwrites the
	// existing value.
	// The key used is returned, which matters for generated ids.
	Put(db cipherlock.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the
	// database. It returns ErrNotFound if an entity with given key does
	// not exist.
	Delete(db cipherlock.KVStore, key []byte) error

	// Has returns nil if an entity with given primary key value exists,
	// ErrNotFound otherwise.
	Has(db cipherlock.ReadOnlyKVStore, key []byte) error

	// Register registers this bucket for the given query path, so that
	// raw entities can be fetched by exact key.
	Register(name string, r cipherlock.QueryRouter)
}

// ModelBucketOption configures a model bucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIDSequence configures the bucket to use the given sequence
// instance for generating a key during Put, whenever nil is given as
// the key.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.idSeq = &s
	}
}

// NewModelBucket returns a ModelBucket instance storing entities of the
// same type as given model under keys prefixed with the bucket name.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	kt := reflect.TypeOf(m)
	if kt.Kind() == reflect.Ptr {
		kt = kt.Elem()
	}

	b := &modelBucket{
		name:   name,
		prefix: []byte(name + ":"),
		model:  kt,
	}
	for _, fn := range opts {
		fn(b)
	}
	return b
}

type modelBucket struct {
	name   string
	prefix []byte
	model  reflect.Type
	idSeq  *Sequence
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) dbKey(key []byte) []byte {
	return append(append([]byte{}, mb.prefix...), key...)
}

func (mb *modelBucket) One(db cipherlock.ReadOnlyKVStore, key []byte, dest Model) error {
	if dt := reflect.TypeOf(dest).Elem(); dt != mb.model {
		return errors.Wrapf(errors.ErrType, "%s cannot be represented as %s", mb.model, dt)
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", mb.model)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "cannot unmarshal %s", mb.model)
	}
	return nil
}

func (mb *modelBucket) Put(db cipherlock.KVStore, key []byte, m Model) ([]byte, error) {
	mt := reflect.TypeOf(m)
	if mt.Kind() == reflect.Ptr {
		mt = mt.Elem()
	}
	if mt != mb.model {
		return nil, errors.Wrapf(errors.ErrType, "%s cannot be stored as %s", mt, mb.model)
	}

	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	if key == nil {
		if mb.idSeq == nil {
			return nil, errors.Wrap(errors.ErrInput, "key is required")
		}
		var err error
		key, err = mb.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "ID sequence")
		}
	}

	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot marshal %s", mb.model)
	}
	if len(raw) == 0 {
		// A zero byte value cannot be told apart from a missing key
		// when read back.
		return nil, errors.Wrapf(errors.ErrState, "%s serialized to no data", mb.model)
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return nil, errors.Wrap(err, "cannot store in the database")
	}
	return key, nil
}

func (mb *modelBucket) Delete(db cipherlock.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	return db.Delete(mb.dbKey(key))
}

func (mb *modelBucket) Has(db cipherlock.ReadOnlyKVStore, key []byte) error {
	if key == nil {
		// nil key is a special case that would cause the store API to
		// panic
		return errors.ErrNotFound
	}
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrNotFound
	}
	return nil
}

// Register implements the ModelBucket interface, exposing the raw
// entities via an exact-key query at "/<name>".
func (mb *modelBucket) Register(name string, r cipherlock.QueryRouter) {
	if name == "" {
		name = mb.name
	}
	root := "/" + name
	r.Register(root, mb)
}

// Query implements cipherlock.QueryHandler. Only exact key lookup is
// supported.
func (mb *modelBucket) Query(db cipherlock.ReadOnlyKVStore, mod string, data []byte) ([]cipherlock.Model, error) {
	switch mod {
	case "":
		raw, err := db.Get(mb.dbKey(data))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, nil
		}
		res := []cipherlock.Model{{Key: data, Value: raw}}
		return res, nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
}
