package app

import (
	"context"
	"fmt"

	"github.com/macterm/prefs-converter/converter/internal/domain"
	"github.com/macterm/prefs-converter/converter/internal/migrate"
	"github.com/macterm/prefs-converter/converter/internal/report"
)

// DryRun converts a copy of the stored settings in memory and prints a report
// that carries a JSON Patch of the changes. The real store is only read.
func (a *App) DryRun(ctx context.Context) (int, error) {
	s, err := a.store()
	if err != nil {
		return report.ExitFailed, err
	}
	before, err := domain.TakeSnapshot(ctx, s)
	if err != nil {
		return report.ExitFailed, fmt.Errorf("failed to read settings: %w", err)
	}
	scratch := domain.NewMemoryStore()
	if err := domain.Restore(ctx, scratch, before); err != nil {
		return report.ExitFailed, err
	}

	all, err := migrate.AllSteps()
	if err != nil {
		return report.ExitFailed, err
	}
	runner, err := migrate.NewRunner(scratch, a.cfg.Names(), nil, a.logger, all)
	if err != nil {
		return report.ExitFailed, err
	}
	result := runner.Run(ctx)

	after, err := domain.TakeSnapshot(ctx, scratch)
	if err != nil {
		return report.ExitFailed, fmt.Errorf("failed to read converted settings: %w", err)
	}
	patch, err := domain.Diff(before, after)
	if err != nil {
		return report.ExitFailed, err
	}
	a.logger.Info().
		Int("changes", len(patch)).
		Msg("dry run complete, settings were not modified")

	r, err := a.newReport(result)
	if err != nil {
		return report.ExitFailed, err
	}
	return a.print(r.AsDryRun(patch))
}
