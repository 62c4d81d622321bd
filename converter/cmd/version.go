package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/macterm/prefs-converter/converter/internal/version"
)

func newVersionCommand(_ *do.Injector) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information and exit",
		// The version doesn't depend on the configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			info, err := version.GetInfo()
			if err != nil {
				return fmt.Errorf("failed to read version info: %w", err)
			}
			raw, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal version info: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(raw))

			return nil
		},
	}
}
