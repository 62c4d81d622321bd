package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macterm/prefs-converter/converter/internal/config"
)

func TestManager(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		manager := config.NewManager()
		require.NoError(t, manager.Load())

		cfg := manager.Config()
		assert.Equal(t, "com.mactelnet.MacTelnet", cfg.LegacyDomain)
		assert.Equal(t, "net.macterm.MacTerm", cfg.CurrentDomain)
		assert.Equal(t, config.StorageTypeFile, cfg.StorageType)
		assert.Equal(t, config.OutputFormatText, cfg.Report.Output)
		assert.False(t, cfg.Report.PromptRestartOnSuccess)
	})

	t.Run("struct source overrides defaults", func(t *testing.T) {
		user := config.Config{
			StorageType: config.StorageTypeSQLite,
			SQLite:      config.SQLite{Path: "/tmp/prefs.db"},
			Report:      config.Report{SilentOnSuccess: true},
		}

		manager := config.NewManager(structSource(t, user))
		require.NoError(t, manager.Load())
		assert.Equal(t, defaultWithOverrides(t, user), manager.Config())
	})

	t.Run("json file source", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"storage_type": "etcd",
			"etcd": {"endpoints": ["http://10.0.0.1:2379"], "max_txn_ops": 64}
		}`), 0o644))

		manager := config.NewManager(config.NewJsonFileSource(path))
		require.NoError(t, manager.Load())

		cfg := manager.Config()
		assert.Equal(t, config.StorageTypeEtcd, cfg.StorageType)
		assert.Equal(t, []string{"http://10.0.0.1:2379"}, cfg.Etcd.Endpoints)
		assert.Equal(t, 64, cfg.Etcd.MaxTxnOps)
		// unset values keep their defaults
		assert.Equal(t, "prefs-converter", cfg.Etcd.KeyRoot)
	})

	t.Run("env var source", func(t *testing.T) {
		t.Setenv("PREFSCONV_STORAGE_TYPE", "sqlite")
		t.Setenv("PREFSCONV_REPORT__SILENT_ON_SUCCESS", "true")
		t.Setenv("PREFSCONV_LOGGING__LEVEL", "debug")

		manager := config.NewManager(config.NewEnvVarSource())
		require.NoError(t, manager.Load())

		cfg := manager.Config()
		assert.Equal(t, config.StorageTypeSQLite, cfg.StorageType)
		assert.True(t, cfg.Report.SilentOnSuccess)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("pflag source only applies changed flags", func(t *testing.T) {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("storage-type", "", "")
		flags.String("report.output", "", "")
		require.NoError(t, flags.Parse([]string{"--report.output", "json"}))

		manager := config.NewManager(config.NewPFlagSource(flags))
		require.NoError(t, manager.Load())

		cfg := manager.Config()
		assert.Equal(t, config.OutputFormatJSON, cfg.Report.Output)
		assert.Equal(t, config.StorageTypeFile, cfg.StorageType)
	})

	t.Run("invalid user-specified config", func(t *testing.T) {
		user := config.Config{
			LegacyDomain:  "same",
			CurrentDomain: "same",
			StorageType:   "floppy",
		}

		manager := config.NewManager(structSource(t, user))
		err := manager.Load()
		assert.ErrorContains(t, err, "must differ")
		assert.ErrorContains(t, err, `storage_type: unsupported storage type "floppy"`)
	})

	t.Run("history domain collides with a primary domain", func(t *testing.T) {
		user := config.Config{HistoryDomain: "net.macterm.MacTerm"}

		manager := config.NewManager(structSource(t, user))
		assert.ErrorContains(t, manager.Load(), "history_domain")
	})
}

func TestRestartEnvSource(t *testing.T) {
	for _, tc := range []struct {
		value    string
		expected bool
	}{
		{value: "1", expected: true},
		{value: "0", expected: false},
		{value: "yes", expected: false},
	} {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv(config.RestartEnvVar, tc.value)

			manager := config.NewManager(config.NewRestartEnvSource())
			require.NoError(t, manager.Load())
			assert.Equal(t, tc.expected, manager.Config().Report.PromptRestartOnSuccess)
		})
	}
}

func structSource(t *testing.T, cfg config.Config) *config.Source {
	t.Helper()

	source, err := config.NewStructSource(cfg)
	require.NoError(t, err)

	return source
}

func defaultWithOverrides(t *testing.T, overrides config.Config) config.Config {
	t.Helper()

	defaults, err := config.DefaultConfig()
	require.NoError(t, err)

	k := koanf.New(".")
	require.NoError(t, config.LoadStruct(k, defaults))
	require.NoError(t, config.LoadStruct(k, overrides))

	var merged config.Config
	require.NoError(t, k.Unmarshal("", &merged))

	return merged
}
