package steps

import "context"

// SkipResourceForkPreferences stands in for the conversion of resource fork
// preferences, which are no longer read.
type SkipResourceForkPreferences struct{}

func (s *SkipResourceForkPreferences) Version() int { return 1 }

func (s *SkipResourceForkPreferences) Identifier() string {
	return "skip_resource_fork_preferences"
}

func (s *SkipResourceForkPreferences) Run(_ context.Context, env *Env) error {
	env.Logger.Info().Msg("resource fork preferences are no longer converted, ignoring them")
	return nil
}

// SkipExperimentalVersion stands in for version 2, which never shipped.
type SkipExperimentalVersion struct{}

func (s *SkipExperimentalVersion) Version() int { return 2 }

func (s *SkipExperimentalVersion) Identifier() string {
	return "skip_experimental_version"
}

func (s *SkipExperimentalVersion) Run(_ context.Context, _ *Env) error {
	return nil
}

// RemoveFavoriteMacrosAndStyles deletes the old favorites keys. They were
// replaced by "favorite-macro-sets" and "favorite-formats", which hold lists
// of domain names.
type RemoveFavoriteMacrosAndStyles struct{}

func (s *RemoveFavoriteMacrosAndStyles) Version() int { return 3 }

func (s *RemoveFavoriteMacrosAndStyles) Identifier() string {
	return "remove_favorite_macros_and_styles"
}

func (s *RemoveFavoriteMacrosAndStyles) Run(ctx context.Context, env *Env) error {
	return deleteKeys(ctx, env, env.Names.Legacy,
		"favorite-macros",
		"favorite-styles",
	)
}

type RemoveMenuAndMacroEditorKeys struct{}

func (s *RemoveMenuAndMacroEditorKeys) Version() int { return 4 }

func (s *RemoveMenuAndMacroEditorKeys) Identifier() string {
	return "remove_menu_and_macro_editor_keys"
}

func (s *RemoveMenuAndMacroEditorKeys) Run(ctx context.Context, env *Env) error {
	return deleteKeys(ctx, env, env.Names.Legacy,
		"menu-command-set-simplified",
		"menu-key-equivalents",
		"macro-menu-name-string",
		"macro-menu-visible",
		"menu-macros-visible",
		"menu-visible",
		"window-macroeditor-position-pixels",
		"window-macroeditor-size-pixels",
		"window-macroeditor-visible",
	)
}

type RemoveObsoleteWindowKeys struct{}

func (s *RemoveObsoleteWindowKeys) Version() int { return 5 }

func (s *RemoveObsoleteWindowKeys) Identifier() string {
	return "remove_obsolete_window_keys"
}

func (s *RemoveObsoleteWindowKeys) Run(ctx context.Context, env *Env) error {
	return deleteKeys(ctx, env, env.Names.Legacy,
		"window-commandline-position-pixels",
		"window-commandline-size-pixels",
		"window-controlkeys-position-pixels",
		"window-functionkeys-position-pixels",
		"window-preferences-position-pixels",
		"window-sessioninfo-column-order",
		"window-vt220keys-position-pixels",
	)
}

type RemoveCaptureFileKeys struct{}

func (s *RemoveCaptureFileKeys) Version() int { return 7 }

func (s *RemoveCaptureFileKeys) Identifier() string {
	return "remove_capture_file_keys"
}

func (s *RemoveCaptureFileKeys) Run(ctx context.Context, env *Env) error {
	return deleteKeys(ctx, env, env.Names.Current,
		"terminal-capture-file-alias-id",
		"terminal-capture-file-creator-code",
		"terminal-capture-file-open-with-application",
		"terminal-capture-folder",
	)
}
