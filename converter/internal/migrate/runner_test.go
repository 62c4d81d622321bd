package migrate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macterm/prefs-converter/converter/internal/domain"
	"github.com/macterm/prefs-converter/converter/internal/fsref"
	"github.com/macterm/prefs-converter/converter/internal/migrate"
	"github.com/macterm/prefs-converter/converter/internal/migrate/steps"
	"github.com/macterm/prefs-converter/converter/internal/testutils"
)

const (
	legacy  = domain.DefaultLegacyDomain
	current = domain.DefaultCurrentDomain
	history = "net.macterm.PrefsConverter"
)

func newRunner(t *testing.T, store domain.Store, withHistory bool) *migrate.Runner {
	t.Helper()

	all, err := migrate.AllSteps()
	require.NoError(t, err)

	var h *migrate.HistoryStore
	if withHistory {
		h = migrate.NewHistoryStore(store, history)
	}
	runner, err := migrate.NewRunner(store, domain.DefaultNames(), h, testutils.Logger(t), all)
	require.NoError(t, err)
	return runner
}

func seeded(t *testing.T, content domain.Snapshot) *domain.MemoryStore {
	t.Helper()

	store := domain.NewMemoryStore()
	require.NoError(t, domain.Restore(context.Background(), store, content))
	return store
}

func snapshot(t *testing.T, store domain.Store) domain.Snapshot {
	t.Helper()

	snap, err := domain.TakeSnapshot(context.Background(), store)
	require.NoError(t, err)
	return snap
}

func captureAlias(t *testing.T, p string) domain.Value {
	t.Helper()

	raw, err := fsref.EncodeAlias(&fsref.Alias{
		Kind:       fsref.KindFolder,
		VolumeName: "Macintosh HD",
		POSIXPath:  p,
	})
	require.NoError(t, err)
	return domain.Data(raw)
}

// legacySettings resembles what the last MacTelnet release left behind.
func legacySettings(t *testing.T, version int64) domain.Snapshot {
	t.Helper()

	content := domain.Snapshot{
		legacy: {
			"terminal-font":                      domain.String("Monaco"),
			"favorite-macros":                    domain.Data([]byte("old macros")),
			"favorite-styles":                    domain.Data([]byte("old styles")),
			"menu-key-equivalents":               domain.Bool(true),
			"window-macroeditor-visible":         domain.Bool(false),
			"window-commandline-position-pixels": domain.StringList("10", "20"),
			"terminal-capture-folder":            domain.Data([]byte("old folder")),
			"favorite-sessions":                  domain.StringList(legacy + ".sessions.1"),
		},
		legacy + ".sessions.1": {
			"server-host":                      domain.String("example.com"),
			"terminal-capture-directory-alias": captureAlias(t, "/Users/kevin/captures"),
		},
	}
	if version > 0 {
		content[legacy]["prefs-version"] = domain.Int(version)
	}
	return content
}

var obsoleteKeys = []string{
	"favorite-macros",
	"favorite-styles",
	"menu-key-equivalents",
	"window-macroeditor-visible",
	"window-commandline-position-pixels",
	"terminal-capture-folder",
	"terminal-capture-directory-alias",
}

func assertConverted(t *testing.T, snap domain.Snapshot) {
	t.Helper()

	assert.NotContains(t, snap, legacy)
	assert.NotContains(t, snap, legacy+".sessions.1")
	for d, entries := range snap {
		for _, k := range obsoleteKeys {
			assert.NotContains(t, entries, k, "domain %s", d)
		}
	}
	assert.True(t, domain.Int(8).Equal(snap[current]["prefs-version"]))
	assert.True(t, domain.String("Monaco").Equal(snap[current]["terminal-font"]))
	assert.True(t, domain.StringList(current+".sessions.1").Equal(snap[current]["favorite-sessions"]))

	bookmark, err := snap[current+".sessions.1"]["terminal-capture-directory-bookmark"].AsData()
	require.NoError(t, err)
	p, err := fsref.ResolveBookmark(bookmark)
	require.NoError(t, err)
	assert.Equal(t, "/Users/kevin/captures", p)
}

func TestRunnerFreshInstall(t *testing.T) {
	store := domain.NewMemoryStore()

	result := newRunner(t, store, false).Run(context.Background())
	require.NoError(t, result.Err)
	assert.Equal(t, migrate.StateCommitted, result.State)
	assert.Equal(t, migrate.Probe{Version: 0, Source: migrate.SourceNone}, result.Probe)
	assert.Len(t, result.Steps, 8)
	assert.False(t, result.FoundSettings)

	expected := domain.Snapshot{
		current: {"prefs-version": domain.Int(8)},
	}
	actual := snapshot(t, store)
	assert.True(t, expected.Equal(actual), "unexpected store content: %v", actual)
}

func TestRunnerFromLegacyVersion(t *testing.T) {
	for _, version := range []int64{0, 3, 5} {
		store := seeded(t, legacySettings(t, version))

		result := newRunner(t, store, false).Run(context.Background())
		require.NoError(t, result.Err, "from version %d", version)
		assert.Equal(t, migrate.StateCommitted, result.State)
		assert.Len(t, result.Steps, 8-int(version))
		assert.Empty(t, result.Warnings())

		snap := snapshot(t, store)
		if version == 0 {
			assertConverted(t, snap)
			continue
		}
		// keys removed by steps at or below the disk version are carried over
		assert.NotContains(t, snap, legacy)
		assert.True(t, domain.Int(8).Equal(snap[current]["prefs-version"]))
	}
}

func TestRunnerSessionCaptureDirectory(t *testing.T) {
	store := seeded(t, domain.Snapshot{
		legacy: {
			"prefs-version":     domain.Int(5),
			"favorite-sessions": domain.StringList(legacy + ".sessions.1"),
		},
		legacy + ".sessions.1": {
			"terminal-capture-directory-alias": captureAlias(t, "/Users/kevin/captures"),
		},
	})

	result := newRunner(t, store, false).Run(context.Background())
	require.NoError(t, result.Err)
	assert.Equal(t, migrate.StateCommitted, result.State)
	assert.Equal(t, migrate.Probe{Version: 5, Source: migrate.SourceLegacy}, result.Probe)

	snap := snapshot(t, store)
	assert.NotContains(t, snap, legacy)
	assert.NotContains(t, snap, legacy+".sessions.1")
	assert.NotContains(t, snap[current+".sessions.1"], "terminal-capture-directory-alias")
	assert.Contains(t, snap[current+".sessions.1"], "terminal-capture-directory-bookmark")
	assert.True(t, domain.Int(8).Equal(snap[current]["prefs-version"]))
}

func TestRunnerNewerOnDisk(t *testing.T) {
	content := domain.Snapshot{
		current:                 {"prefs-version": domain.Int(9), "terminal-font": domain.String("Menlo")},
		legacy:                  {"favorite-macros": domain.Data([]byte("old"))},
		current + ".sessions.1": {"terminal-capture-directory-alias": domain.Data([]byte("whatever"))},
	}
	store := seeded(t, content)
	store.FailWrites = func(op, name, key string) error {
		t.Errorf("unexpected %s of %s/%s", op, name, key)
		return errors.New("read only")
	}

	result := newRunner(t, store, true).Run(context.Background())
	assert.Equal(t, migrate.StateNewerOnDisk, result.State)
	assert.ErrorIs(t, result.Err, migrate.ErrVersionRegression)
	assert.Empty(t, result.Steps)
	assert.True(t, content.Equal(snapshot(t, store)))
}

func TestRunnerUpToDate(t *testing.T) {
	content := domain.Snapshot{
		current: {"prefs-version": domain.Int(8), "terminal-font": domain.String("Menlo")},
	}
	store := seeded(t, content)

	result := newRunner(t, store, true).Run(context.Background())
	require.NoError(t, result.Err)
	assert.Equal(t, migrate.StateUpToDate, result.State)
	assert.Empty(t, result.Steps)
	assert.True(t, content.Equal(snapshot(t, store)))
}

func TestRunnerIdempotent(t *testing.T) {
	ctx := context.Background()
	once := seeded(t, legacySettings(t, 0))
	twice := seeded(t, legacySettings(t, 0))

	require.Equal(t, migrate.StateCommitted, newRunner(t, once, false).Run(ctx).State)
	require.Equal(t, migrate.StateCommitted, newRunner(t, twice, false).Run(ctx).State)

	// a second pass finds the new version and changes nothing
	result := newRunner(t, twice, false).Run(ctx)
	assert.Equal(t, migrate.StateUpToDate, result.State)
	assert.True(t, snapshot(t, once).Equal(snapshot(t, twice)))
}

func TestRunnerPartialFailure(t *testing.T) {
	ctx := context.Background()
	content := legacySettings(t, 5)
	content[legacy]["favorite-sessions"] = domain.StringList(legacy+".sessions.1", legacy+".sessions.2")
	content[legacy+".sessions.2"] = map[string]domain.Value{
		"terminal-capture-directory-alias": domain.String("not an alias"),
	}
	store := seeded(t, content)

	result := newRunner(t, store, false).Run(ctx)
	assert.Equal(t, migrate.StateFailed, result.State)
	assert.ErrorIs(t, result.Err, domain.ErrTypeMismatch)
	require.Len(t, result.Steps, 3)
	assert.True(t, result.Steps[0].Successful)
	assert.True(t, result.Steps[1].Successful)
	assert.False(t, result.Steps[2].Successful)

	snap := snapshot(t, store)
	// the bad entry is kept and the good one is converted
	assert.Contains(t, snap[current+".sessions.2"], "terminal-capture-directory-alias")
	assert.NotContains(t, snap[current+".sessions.1"], "terminal-capture-directory-alias")
	assert.Contains(t, snap[current+".sessions.1"], "terminal-capture-directory-bookmark")
	// the version is not advanced
	assert.True(t, domain.Int(5).Equal(snap[current]["prefs-version"]))
}

func TestRunnerWriteFailure(t *testing.T) {
	ctx := context.Background()
	store := seeded(t, legacySettings(t, 5))
	store.FailWrites = func(op, name, key string) error {
		if op == "copy" && name == current+".sessions.1" {
			return errors.New("disk full")
		}
		return nil
	}

	result := newRunner(t, store, false).Run(ctx)
	assert.Equal(t, migrate.StateFailed, result.State)
	assert.ErrorContains(t, result.Err, "disk full")

	snap := snapshot(t, store)
	assert.Contains(t, snap, legacy)
	assert.Contains(t, snap, legacy+".sessions.1")
	assert.True(t, domain.Int(5).Equal(snap[current]["prefs-version"]))

	// the next start resumes from the same version and completes
	store.FailWrites = nil
	result = newRunner(t, store, false).Run(ctx)
	require.NoError(t, result.Err)
	assert.Equal(t, migrate.Probe{Version: 5, Source: migrate.SourceCurrent}, result.Probe)
	assert.Equal(t, migrate.StateCommitted, result.State)
}

func TestRunnerVersionWriteFailure(t *testing.T) {
	store := domain.NewMemoryStore()
	store.FailWrites = func(op, _, key string) error {
		if op == "write" && key == domain.VersionKey {
			return errors.New("permission denied")
		}
		return nil
	}

	result := newRunner(t, store, false).Run(context.Background())
	assert.Equal(t, migrate.StateFailed, result.State)
	assert.ErrorContains(t, result.Err, "permission denied")
	for _, s := range result.Steps {
		assert.True(t, s.Successful)
	}
}

func TestRunnerProbeFailure(t *testing.T) {
	store := &errorStore{
		MemoryStore: domain.NewMemoryStore(),
		err:         errors.New("connection refused"),
	}

	result := newRunner(t, store, false).Run(context.Background())
	assert.Equal(t, migrate.StateFailed, result.State)
	assert.ErrorContains(t, result.Err, "connection refused")
	assert.Empty(t, result.Steps)
}

func TestRunnerRenameTotality(t *testing.T) {
	content := domain.Snapshot{
		legacy: {"prefs-version": domain.Int(5)},
	}
	for _, key := range steps.FavoriteListKeys {
		old := legacy + "." + key + ".1"
		content[legacy][key] = domain.StringList(old)
		content[old] = map[string]domain.Value{"name": domain.String(key)}
	}
	store := seeded(t, content)

	result := newRunner(t, store, false).Run(context.Background())
	require.NoError(t, result.Err)

	snap := snapshot(t, store)
	for _, key := range steps.FavoriteListKeys {
		assert.NotContains(t, snap, legacy+"."+key+".1")
		assert.True(t, domain.String(key).Equal(snap[current+"."+key+".1"]["name"]))
		assert.True(t, domain.StringList(current+"."+key+".1").Equal(snap[current][key]))
	}
	for d := range snap {
		assert.NotContains(t, d, legacy)
	}
}

func TestRunnerFoundSettings(t *testing.T) {
	t.Run("only history from an earlier run", func(t *testing.T) {
		store := seeded(t, domain.Snapshot{
			history: {"v6": domain.String("earlier run")},
		})

		result := newRunner(t, store, true).Run(context.Background())
		require.NoError(t, result.Err)
		assert.Equal(t, migrate.StateCommitted, result.State)
		assert.False(t, result.FoundSettings)
	})

	t.Run("legacy data without a version", func(t *testing.T) {
		store := seeded(t, domain.Snapshot{
			legacy: {
				"terminal-font":     domain.String("Monaco"),
				"favorite-sessions": domain.StringList(legacy + ".sessions.missing"),
			},
		})

		result := newRunner(t, store, false).Run(context.Background())
		require.NoError(t, result.Err)
		assert.Equal(t, migrate.StateCommitted, result.State)
		assert.Equal(t, migrate.SourceNone, result.Probe.Source)
		assert.True(t, result.FoundSettings)
		assert.Len(t, result.Warnings(), 1)
	})
}

func TestRunnerFavoritesNamingPrimaryDomain(t *testing.T) {
	store := seeded(t, domain.Snapshot{
		legacy: {
			"prefs-version":     domain.Int(5),
			"favorite-formats":  domain.StringList(legacy),
			"favorite-sessions": domain.StringList(legacy + ".sessions.1"),
		},
		legacy + ".sessions.1": {"server-host": domain.String("example.com")},
	})

	result := newRunner(t, store, false).Run(context.Background())
	require.NoError(t, result.Err)
	assert.Equal(t, migrate.StateCommitted, result.State)
	assert.Len(t, result.Warnings(), 1)

	snap := snapshot(t, store)
	assert.NotContains(t, snap, legacy)
	assert.NotContains(t, snap, legacy+".sessions.1")
	assert.True(t, domain.String("example.com").Equal(snap[current+".sessions.1"]["server-host"]))
	assert.True(t, domain.StringList(current+".sessions.1").Equal(snap[current]["favorite-sessions"]))
	assert.True(t, domain.Int(8).Equal(snap[current]["prefs-version"]))
}

func TestRunnerHistory(t *testing.T) {
	ctx := context.Background()
	content := legacySettings(t, 6)
	// version 6 lives in the current domain
	content[current] = content[legacy]
	delete(content, legacy)
	content[current]["favorite-sessions"] = domain.StringList(current+".sessions.1", current+".sessions.gone")
	content[current+".sessions.1"] = content[legacy+".sessions.1"]
	delete(content, legacy+".sessions.1")
	store := seeded(t, content)

	result := newRunner(t, store, true).Run(ctx)
	require.NoError(t, result.Err)
	assert.Equal(t, migrate.StateCommitted, result.State)

	items, err := migrate.NewHistoryStore(store, history).List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for i, item := range items {
		assert.Equal(t, 7+i, item.Version)
		assert.Equal(t, result.RunID, item.RunID)
		assert.Equal(t, 6, item.FromVersion)
		assert.True(t, item.Successful)
		assert.Empty(t, item.Error)
		assert.False(t, item.StartedAt.IsZero())
		assert.False(t, item.CompletedAt.Before(item.StartedAt))
	}
	assert.Equal(t, "remove_capture_file_keys", items[0].Identifier)
	assert.Equal(t, "convert_capture_alias_to_bookmark", items[1].Identifier)
}

func TestRunnerWarnings(t *testing.T) {
	store := seeded(t, domain.Snapshot{
		legacy: {
			"prefs-version":     domain.Int(5),
			"favorite-sessions": domain.StringList(legacy + ".sessions.missing"),
		},
	})

	result := newRunner(t, store, true).Run(context.Background())
	require.NoError(t, result.Err)
	assert.Equal(t, migrate.StateCommitted, result.State)
	assert.Len(t, result.Warnings(), 1)

	item, err := migrate.NewHistoryStore(store, history).Get(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, result.Warnings(), item.Warnings)
}
