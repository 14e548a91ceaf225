package store

import "github.com/cipherlock/cipherlock"

// Move references for all storage types into this package for shorter
// names everywhere.

type ReadOnlyKVStore = cipherlock.ReadOnlyKVStore
type KVStore = cipherlock.KVStore
type SetDeleter = cipherlock.SetDeleter
type Batch = cipherlock.Batch
type CacheableKVStore = cipherlock.CacheableKVStore
type KVCacheWrap = cipherlock.KVCacheWrap
type CommitKVStore = cipherlock.CommitKVStore
type CommitID = cipherlock.CommitID
