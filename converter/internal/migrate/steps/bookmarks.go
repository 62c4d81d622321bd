package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/macterm/prefs-converter/converter/internal/domain"
	"github.com/macterm/prefs-converter/converter/internal/fsref"
)

const (
	captureDirectoryAliasKey    = "terminal-capture-directory-alias"
	captureDirectoryBookmarkKey = "terminal-capture-directory-bookmark"
)

// ConvertCaptureAliasToBookmark rewrites the capture directory of every
// session from a legacy alias record to a bookmark. Values that cannot be
// converted are left in place and fail the step without stopping the rest.
type ConvertCaptureAliasToBookmark struct{}

func (s *ConvertCaptureAliasToBookmark) Version() int { return 8 }

func (s *ConvertCaptureAliasToBookmark) Identifier() string {
	return "convert_capture_alias_to_bookmark"
}

func (s *ConvertCaptureAliasToBookmark) Run(ctx context.Context, env *Env) error {
	var errs []error
	targets, err := s.targets(ctx, env)
	if err != nil {
		errs = append(errs, err)
	}
	for _, name := range targets {
		if err := s.convert(ctx, env, name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// targets returns the session domains followed by the current primary domain,
// which holds the defaults.
func (s *ConvertCaptureAliasToBookmark) targets(ctx context.Context, env *Env) ([]string, error) {
	value, ok, err := domain.ReadOptional(ctx, env.Store, env.Names.Current, "favorite-sessions")
	if err != nil {
		return []string{env.Names.Current}, fmt.Errorf("failed to read session list: %w", err)
	}
	if !ok {
		return []string{env.Names.Current}, nil
	}
	sessions, err := value.AsStringList()
	if err != nil {
		return []string{env.Names.Current}, fmt.Errorf("favorite-sessions: %w", err)
	}
	return append(sessions, env.Names.Current), nil
}

func (s *ConvertCaptureAliasToBookmark) convert(ctx context.Context, env *Env, name string) error {
	logger := env.Logger.With().Str("domain", name).Logger()

	exists, err := env.Store.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check for domain: %w", err)
	}
	if !exists {
		logger.Debug().Msg("domain does not exist, skipping")
		return nil
	}

	var bookmark []byte
	found, err := RenameKey(ctx, env.Store, name, captureDirectoryAliasKey, captureDirectoryBookmarkKey,
		func(old domain.Value) (domain.Value, error) {
			alias, err := old.AsData()
			if err != nil {
				logger.Warn().Str("value", old.String()).Msg("capture directory alias is not a data value")
				return domain.Value{}, err
			}
			bookmark, err = fsref.ConvertAliasToBookmark(alias)
			if err != nil {
				return domain.Value{}, err
			}
			return domain.Data(bookmark), nil
		})
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	path, err := fsref.ResolveBookmark(bookmark)
	if err != nil {
		env.Warn("converted capture directory of %q cannot be resolved: %v", name, err)
		return nil
	}
	logger.Info().Str("path", path).Msg("converted capture directory alias to bookmark")
	return nil
}
