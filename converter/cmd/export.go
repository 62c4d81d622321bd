package cmd

import (
	"context"
	"fmt"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/macterm/prefs-converter/converter/internal/app"
)

func newExportCommand(i *do.Injector) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the stored preferences as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.NewApp(i)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			ctx := context.Background()
			if !summary {
				return a.Shutdown(a.Export(ctx, cmd.OutOrStdout()))
			}
			summaries, err := a.Summarize(ctx)
			if err != nil {
				return a.Shutdown(err)
			}
			return a.Shutdown(app.PrintSummary(cmd.OutOrStdout(), summaries))
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "List domains with their key counts and sizes instead.")

	return cmd
}
