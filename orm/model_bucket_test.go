package orm

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/cipherlocktest"
	"github.com/cipherlock/cipherlock/errors"
	"github.com/cipherlock/cipherlock/store"
)

// counter is a minimal model implementation for bucket tests.
type counter struct {
	Count int64
}

var _ Model = (*counter)(nil)

func (c *counter) Marshal() ([]byte, error) {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(c.Count))
	return raw, nil
}

func (c *counter) Unmarshal(raw []byte) error {
	if len(raw) != 8 {
		return errors.Wrap(errors.ErrInput, "invalid length")
	}
	c.Count = int64(binary.BigEndian.Uint64(raw))
	return nil
}

func (c *counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrState, "negative counter")
	}
	return nil
}

type badModel struct{ counter }

func TestModelBucketPutOne(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	key, err := b.Put(db, []byte("c1"), &counter{Count: 42})
	require.NoError(t, err)
	assert.Equal(t, []byte("c1"), key)

	var got counter
	require.NoError(t, b.One(db, []byte("c1"), &got))
	assert.Equal(t, int64(42), got.Count)
}

func TestModelBucketOneMissing(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	var got counter
	err := b.One(db, []byte("unknown"), &got)
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestModelBucketPutValidates(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	_, err := b.Put(db, []byte("c1"), &counter{Count: -1})
	assert.True(t, errors.ErrState.Is(err))
}

func TestModelBucketWrongModelType(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	_, err := b.Put(db, []byte("c1"), &badModel{})
	assert.True(t, errors.ErrType.Is(err))

	require.NoError(t, db.Set([]byte("cnts:c1"), EncodeSequence(1)))
	var bad badModel
	err = b.One(db, []byte("c1"), &bad)
	assert.True(t, errors.ErrType.Is(err))
}

func TestModelBucketPutGeneratesKey(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{}, WithIDSequence(NewSequence("cnts", "id")))

	key, err := b.Put(db, nil, &counter{Count: 1})
	require.NoError(t, err)
	assert.Equal(t, EncodeSequence(1), key)

	key, err = b.Put(db, nil, &counter{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, EncodeSequence(2), key)
}

func TestModelBucketPutNilKeyWithoutSequence(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	_, err := b.Put(db, nil, &counter{Count: 1})
	assert.True(t, errors.ErrInput.Is(err))
}

func TestModelBucketHasDelete(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	_, err := b.Put(db, []byte("c1"), &counter{Count: 1})
	require.NoError(t, err)

	require.NoError(t, b.Has(db, []byte("c1")))
	assert.True(t, errors.ErrNotFound.Is(b.Has(db, []byte("c2"))))
	assert.True(t, errors.ErrNotFound.Is(b.Has(db, nil)))

	require.NoError(t, b.Delete(db, []byte("c1")))
	assert.True(t, errors.ErrNotFound.Is(b.Has(db, []byte("c1"))))
	assert.True(t, errors.ErrNotFound.Is(b.Delete(db, []byte("c1"))))
}

func TestModelBucketPersists(t *testing.T) {
	db, cleanup := cipherlocktest.CommitKVStore(t)
	defer cleanup()

	b := NewModelBucket("cnts", &counter{})

	cache := db.CacheWrap()
	_, err := b.Put(cache, []byte("c1"), &counter{Count: 42})
	require.NoError(t, err)
	require.NoError(t, cache.Write())

	_, err = db.Commit()
	require.NoError(t, err)

	var got counter
	require.NoError(t, b.One(db.CacheWrap(), []byte("c1"), &got))
	assert.Equal(t, int64(42), got.Count)
}

func TestModelBucketQuery(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})
	qr := cipherlock.NewQueryRouter()
	b.Register("counters", qr)

	_, err := b.Put(db, []byte("c1"), &counter{Count: 9})
	require.NoError(t, err)

	h := qr.Handler("/counters")
	require.NotNil(t, h)

	models, err := h.Query(db, "", []byte("c1"))
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, []byte("c1"), models[0].Key)

	models, err = h.Query(db, "", []byte("missing"))
	require.NoError(t, err)
	assert.Len(t, models, 0)

	_, err = h.Query(db, "prefix", []byte("c1"))
	assert.True(t, errors.ErrInput.Is(err))
}

// ghost serializes to no data, the way an amino struct with all fields
// empty does.
type ghost struct{}

var _ Model = (*ghost)(nil)

func (*ghost) Marshal() ([]byte, error) { return nil, nil }
func (*ghost) Unmarshal([]byte) error   { return nil }
func (*ghost) Validate() error          { return nil }

func TestModelBucketPutRefusesEmptyValue(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("ghosts", &ghost{})

	// A zero byte value would read back as a missing key.
	_, err := b.Put(db, []byte("g1"), &ghost{})
	assert.True(t, errors.ErrState.Is(err))
	assert.True(t, errors.ErrNotFound.Is(b.Has(db, []byte("g1"))))
}
