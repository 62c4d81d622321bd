package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/do"

	"github.com/macterm/prefs-converter/converter/internal/config"
	"github.com/macterm/prefs-converter/converter/internal/domain"
	"github.com/macterm/prefs-converter/converter/internal/migrate"
	"github.com/macterm/prefs-converter/converter/internal/report"
	"github.com/macterm/prefs-converter/converter/internal/store"
)

// App runs the converter's commands against the configured store.
type App struct {
	i       *do.Injector
	cfg     config.Config
	logger  zerolog.Logger
	backend *store.Backend
}

func NewApp(i *do.Injector) (*App, error) {
	cfg, err := do.Invoke[config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	logger, err := do.Invoke[zerolog.Logger](i)
	if err != nil {
		return nil, fmt.Errorf("failed to get logger: %w", err)
	}
	return &App{
		i:   i,
		cfg: cfg,
		logger: logger.With().
			Str("component", "app").
			Logger(),
	}, nil
}

func (a *App) store() (domain.Store, error) {
	if a.backend == nil {
		backend, err := do.Invoke[*store.Backend](a.i)
		if err != nil {
			return nil, fmt.Errorf("failed to open settings store: %w", err)
		}
		a.backend = backend
	}
	return a.backend.Store, nil
}

// Run performs one conversion pass, prints the report and returns the exit
// code for the host process.
func (a *App) Run(ctx context.Context) (int, error) {
	if _, err := a.store(); err != nil {
		// an unreachable store is reported like any other failed conversion
		return a.report(&migrate.Result{
			State: migrate.StateFailed,
			Err:   err,
		})
	}
	runner, err := do.Invoke[*migrate.Runner](a.i)
	if err != nil {
		return report.ExitFailed, fmt.Errorf("failed to initialize migration runner: %w", err)
	}

	result := runner.Run(ctx)
	return a.report(result)
}

func (a *App) report(result *migrate.Result) (int, error) {
	r, err := a.newReport(result)
	if err != nil {
		return report.ExitFailed, err
	}
	return a.print(r)
}

func (a *App) newReport(result *migrate.Result) (*report.Report, error) {
	opts, err := do.Invoke[report.Options](a.i)
	if err != nil {
		return nil, err
	}
	return report.New(result, opts), nil
}

func (a *App) print(r *report.Report) (int, error) {
	printer, err := do.Invoke[*report.Printer](a.i)
	if err != nil {
		return report.ExitFailed, err
	}
	a.logger.Info().
		Str("outcome", string(r.Outcome)).
		Bool("restart_requested", r.RestartRequested).
		Bool("dry_run", r.DryRun).
		Msg("conversion finished")
	if err := printer.Print(r); err != nil {
		return report.ExitFailed, err
	}
	return r.ExitCode(), nil
}

// Probe reports the schema version of the stored settings without changing
// anything.
func (a *App) Probe(ctx context.Context) (migrate.Probe, error) {
	s, err := a.store()
	if err != nil {
		return migrate.Probe{}, err
	}
	return migrate.ProbeVersion(ctx, s, a.cfg.Names(), a.logger)
}

// Shutdown releases the store. reason is joined into the returned error.
func (a *App) Shutdown(reason error) error {
	errs := []error{reason}
	if a.backend != nil {
		a.logger.Debug().Msg("closing settings store")
		errs = append(errs, a.backend.Shutdown())
	}
	return errors.Join(errs...)
}
