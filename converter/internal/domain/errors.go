package domain

import "errors"

// ErrKeyNotFound indicates that the domain holds no value for the given key.
var ErrKeyNotFound = errors.New("key not found")

// ErrDomainNotFound indicates that the domain does not exist, meaning that it
// holds no keys.
var ErrDomainNotFound = errors.New("domain not found")

// ErrTypeMismatch indicates that a value had a different kind than the caller
// expected.
var ErrTypeMismatch = errors.New("value type mismatch")

// ErrInvalidDomainName indicates that a domain name is empty or contains a
// path separator.
var ErrInvalidDomainName = errors.New("invalid domain name")
