package cmd

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/macterm/prefs-converter/converter/internal/config"
	"github.com/macterm/prefs-converter/converter/internal/logging"
	"github.com/macterm/prefs-converter/converter/internal/migrate"
	"github.com/macterm/prefs-converter/converter/internal/report"
	"github.com/macterm/prefs-converter/converter/internal/store"
)

var (
	configPath string
	// logger is replaced by the configured logger once the config loads.
	logger = log.Logger
	// exitCode is set by commands that report an outcome to the host process.
	exitCode = report.ExitOK
)

// invalidUsageError marks errors in the invocation itself, such as a bad flag
// or configuration value.
type invalidUsageError struct {
	err error
}

func (e *invalidUsageError) Error() string { return e.err.Error() }

func (e *invalidUsageError) Unwrap() error { return e.err }

func newRootCmd(i *do.Injector) *cobra.Command {
	return &cobra.Command{
		Use:   "prefs-converter",
		Short: "Upgrade stored MacTerm preferences to the current format",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			// Source order determines precedence. The last source loaded will
			// override any previous values.
			var sources []*config.Source
			if configPath != "" {
				sources = append(sources, config.NewJsonFileSource(configPath))
			}
			sources = append(sources,
				config.NewRestartEnvSource(),
				config.NewEnvVarSource(),
				config.NewPFlagSource(cmd.Flags()),
			)

			config.Provide(i, sources...)
			logging.Provide(i)
			store.Provide(i)
			migrate.Provide(i)
			report.Provide(i)

			if _, err := do.Invoke[config.Config](i); err != nil {
				return &invalidUsageError{err: fmt.Errorf("failed to load config: %w", err)}
			}

			var err error
			logger, err = do.Invoke[zerolog.Logger](i)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			return nil
		},
	}
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	i := do.New()
	rootCmd := newRootCmd(i)
	rootCmd.SilenceErrors = true
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &invalidUsageError{err: err}
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config-path", "c", "", "Path to a JSON config file.")
	flags.StringP("logging.level", "l", "", "The logging level, e.g. 'debug', 'info', 'error', etc.")
	flags.BoolP("logging.pretty", "p", false, "Use pretty logging instead of JSON logging.")
	flags.String("legacy-domain", "", "Name of the legacy primary settings domain.")
	flags.String("current-domain", "", "Name of the current primary settings domain.")
	flags.String("history-domain", "", "Domain that records the result of each step.")
	flags.String("storage-type", "", "Settings backend: 'file', 'sqlite' or 'etcd'.")
	flags.String("file.dir", "", "Directory of the file backend.")
	flags.String("sqlite.path", "", "Database path of the sqlite backend.")
	flags.StringSlice("etcd.endpoints", nil, "Client endpoints of the etcd backend.")
	flags.String("etcd.key-root", "", "Key prefix of the etcd backend.")
	flags.StringP("report.output", "o", "", "Report format: 'text' or 'json'.")
	flags.Bool("report.silent-on-success", false, "Don't confirm a successful conversion.")
	flags.Bool("report.prompt-restart-on-success", false, "Ask the user to restart MacTerm after a successful conversion.")

	// run is also the default command
	runCmd := newRunCommand(i)
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())

	rootCmd.AddCommand(
		runCmd,
		newProbeCommand(i),
		newExportCommand(i),
		newVersionCommand(i),
	)

	err := rootCmd.Execute()
	if err == nil {
		return exitCode
	}

	logger.Error().Err(err).Msg("command failed")

	var usageErr *invalidUsageError
	if errors.As(err, &usageErr) {
		return report.ExitInvalidUsage
	}
	return report.ExitFailed
}
