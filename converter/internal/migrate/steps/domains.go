package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/macterm/prefs-converter/converter/internal/domain"
)

// FavoriteListKeys name the primary-domain keys that hold lists of collection
// domain names.
var FavoriteListKeys = []string{
	"favorite-formats",
	"favorite-macro-sets",
	"favorite-sessions",
	"favorite-terminals",
	"favorite-translations",
	"favorite-workspaces",
}

// MigrateToCurrentDomain moves every setting from the legacy namespace to the
// current one. The primary domain is copied as a whole and each collection
// domain named by a favorites list is copied to its renamed counterpart. Old
// domains are only deleted after their copies succeed, and the legacy primary
// domain is deleted last.
type MigrateToCurrentDomain struct{}

func (s *MigrateToCurrentDomain) Version() int { return 6 }

func (s *MigrateToCurrentDomain) Identifier() string {
	return "migrate_to_current_domain"
}

func (s *MigrateToCurrentDomain) Run(ctx context.Context, env *Env) error {
	legacy := env.Names.Legacy
	exists, err := env.Store.Exists(ctx, legacy)
	if err != nil {
		return fmt.Errorf("failed to check for domain %q: %w", legacy, err)
	}
	if !exists {
		env.Logger.Info().Str("domain", legacy).Msg("no legacy settings to migrate")
		return nil
	}

	// Every list is read before any domain moves. The lists stay in the
	// legacy domain until the end, so a re-run after a partial failure still
	// sees the original names.
	lists, errs := readFavoriteLists(ctx, env)

	if err := env.Store.CopyDomain(ctx, legacy, env.Names.Current); err != nil {
		return fmt.Errorf("failed to copy %q to %q: %w", legacy, env.Names.Current, err)
	}
	for _, key := range FavoriteListKeys {
		names, ok := lists[key]
		if !ok {
			continue
		}
		if err := migrateList(ctx, env, key, names); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if err := env.Store.DeleteDomain(ctx, legacy); err != nil {
		return fmt.Errorf("failed to delete domain %q: %w", legacy, err)
	}
	return nil
}

func readFavoriteLists(ctx context.Context, env *Env) (map[string][]string, []error) {
	lists := make(map[string][]string, len(FavoriteListKeys))
	var errs []error
	for _, key := range FavoriteListKeys {
		value, ok, err := domain.ReadOptional(ctx, env.Store, env.Names.Legacy, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: failed to read list: %w", key, err))
			continue
		}
		if !ok {
			continue
		}
		names, err := value.AsStringList()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		lists[key] = names
	}
	return lists, errs
}

func migrateList(ctx context.Context, env *Env, key string, names []string) error {
	var errs []error
	renamed := make([]string, len(names))
	for i, oldName := range names {
		newName := env.Names.Rename(oldName)
		renamed[i] = newName
		if newName == oldName {
			continue
		}
		// The primary domain is moved as a whole. Moving it again from a
		// list entry would delete the legacy lists before they are done.
		if newName == env.Names.Current {
			env.Warn("%s names the primary domain %q, it is not a collection domain", key, oldName)
			continue
		}
		if err := migrateDomain(ctx, env, oldName, newName); err != nil {
			errs = append(errs, err)
		}
	}

	if err := env.Store.Write(ctx, env.Names.Current, key, domain.StringList(renamed...)); err != nil {
		errs = append(errs, fmt.Errorf("failed to write renamed list: %w", err))
	}
	return errors.Join(errs...)
}

func migrateDomain(ctx context.Context, env *Env, oldName, newName string) error {
	logger := env.Logger.With().
		Str("from", oldName).
		Str("to", newName).
		Logger()

	err := env.Store.CopyDomain(ctx, oldName, newName)
	switch {
	case errors.Is(err, domain.ErrDomainNotFound):
		migrated, err := env.Store.Exists(ctx, newName)
		if err != nil {
			return fmt.Errorf("failed to check for domain %q: %w", newName, err)
		}
		if migrated {
			logger.Debug().Msg("domain was already migrated")
			return nil
		}
		env.Warn("referenced domain %q does not exist", oldName)
		return nil
	case err != nil:
		return fmt.Errorf("failed to copy %q to %q: %w", oldName, newName, err)
	}
	if err := env.Store.DeleteDomain(ctx, oldName); err != nil {
		return fmt.Errorf("failed to delete domain %q: %w", oldName, err)
	}
	logger.Info().Msg("migrated domain")
	return nil
}
