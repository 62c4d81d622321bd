package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/macterm/prefs-converter/converter/internal/app"
)

func newProbeCommand(i *do.Injector) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Show the version of the stored preferences and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.NewApp(i)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			probe, err := a.Probe(context.Background())
			if err != nil {
				return a.Shutdown(err)
			}
			raw, err := json.MarshalIndent(probe, "", "  ")
			if err != nil {
				return a.Shutdown(fmt.Errorf("failed to marshal probe: %w", err))
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(raw))

			return a.Shutdown(nil)
		},
	}
}
