package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/macterm/prefs-converter/converter/internal/domain"
)

// deleteKeys removes obsolete keys from a domain. A missing domain has nothing
// to delete.
func deleteKeys(ctx context.Context, env *Env, name string, keys ...string) error {
	exists, err := env.Store.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check for domain %q: %w", name, err)
	}
	if !exists {
		env.Logger.Debug().Str("domain", name).Msg("domain does not exist, nothing to delete")
		return nil
	}
	var errs []error
	for _, key := range keys {
		if err := env.Store.Delete(ctx, name, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %q: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// ConvertFunc derives a new value from an old one.
type ConvertFunc func(old domain.Value) (domain.Value, error)

// RenameKey writes convert(old) under newKey and then deletes oldKey. The old
// key is only deleted once the new value has been written, so a failure at any
// point leaves the original data in place. It reports ok=false when oldKey is
// absent.
func RenameKey(ctx context.Context, s domain.Store, name, oldKey, newKey string, convert ConvertFunc) (bool, error) {
	old, ok, err := domain.ReadOptional(ctx, s, name, oldKey)
	if err != nil {
		return false, fmt.Errorf("failed to read %q: %w", oldKey, err)
	}
	if !ok {
		return false, nil
	}
	updated := old
	if convert != nil {
		updated, err = convert(old)
		if err != nil {
			return true, fmt.Errorf("failed to convert %q: %w", oldKey, err)
		}
	}
	if err := s.Write(ctx, name, newKey, updated); err != nil {
		return true, fmt.Errorf("failed to write %q: %w", newKey, err)
	}
	if err := s.Delete(ctx, name, oldKey); err != nil {
		return true, fmt.Errorf("failed to delete %q: %w", oldKey, err)
	}
	return true, nil
}
