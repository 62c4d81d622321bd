package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/macterm/prefs-converter/converter/internal/app"
)

func newRunCommand(i *do.Injector) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Convert stored preferences to the current version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.NewApp(i)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			if dryRun {
				exitCode, err = a.DryRun(ctx)
			} else {
				exitCode, err = a.Run(ctx)
			}
			return a.Shutdown(err)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Convert a copy in memory and report the changes instead of saving them.")

	return cmd
}
