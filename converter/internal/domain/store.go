package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store is a key-value settings store partitioned into named domains. A domain
// exists if and only if it holds at least one key.
//
// Implementations must make CopyDomain complete before returning so that
// callers can rely on copy-then-delete sequences never losing data.
type Store interface {
	// Read returns ErrKeyNotFound if the key is absent.
	Read(ctx context.Context, domain, key string) (Value, error)
	Write(ctx context.Context, domain, key string, value Value) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, domain, key string) error
	// ListKeys returns the domain's keys in sorted order. A missing domain
	// has no keys.
	ListKeys(ctx context.Context, domain string) ([]string, error)
	// ListDomains returns every existing domain in sorted order.
	ListDomains(ctx context.Context) ([]string, error)
	// CopyDomain replaces the contents of dst with the contents of src. It
	// returns ErrDomainNotFound if src does not exist.
	CopyDomain(ctx context.Context, src, dst string) error
	// DeleteDomain removes every key in the domain. It is a no-op for
	// missing domains.
	DeleteDomain(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// ValidateName checks that a domain name can be used with every backend.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidDomainName)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidDomainName, name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidDomainName, name)
	}
	return nil
}

// ValidateKey checks that a settings key is usable.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	return nil
}

// ValidateWrite checks the arguments of a Store.Write call. Backends call it
// before touching storage.
func ValidateWrite(domain, key string, value Value) error {
	if err := ValidateName(domain); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	if !value.IsValid() {
		return fmt.Errorf("cannot write invalid value to %s/%s", domain, key)
	}
	return nil
}

// ReadOptional is like Store.Read but reports absence with ok=false instead of
// an error.
func ReadOptional(ctx context.Context, s Store, domain, key string) (Value, bool, error) {
	v, err := s.Read(ctx, domain, key)
	switch {
	case err == nil:
		return v, true, nil
	case errors.Is(err, ErrKeyNotFound):
		return Value{}, false, nil
	default:
		return Value{}, false, err
	}
}
