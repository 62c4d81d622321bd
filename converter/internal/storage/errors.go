package storage

import "errors"

// ErrNotFound indicates that no values were found for the given key.
var ErrNotFound = errors.New("key not found")

// ErrDuplicateKeysInTransaction indicates that the transaction contained
// duplicate keys.
var ErrDuplicateKeysInTransaction = errors.New("duplicate keys in transaction")
