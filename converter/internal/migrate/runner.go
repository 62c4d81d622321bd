package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/macterm/prefs-converter/converter/internal/domain"
	"github.com/macterm/prefs-converter/converter/internal/migrate/steps"
	"github.com/macterm/prefs-converter/converter/internal/version"
)

// Runner performs a single conversion pass over a store.
type Runner struct {
	store       domain.Store
	names       domain.Names
	history     *HistoryStore
	logger      zerolog.Logger
	steps       []Step
	versionInfo *version.Info
}

// NewRunner creates a new runner. history may be nil to skip recording step
// results.
func NewRunner(
	store domain.Store,
	names domain.Names,
	history *HistoryStore,
	logger zerolog.Logger,
	all []Step,
) (*Runner, error) {
	if err := ValidateSteps(all); err != nil {
		return nil, err
	}
	// failure to get version info is non-fatal
	versionInfo, _ := version.GetInfo()

	return &Runner{
		store:   store,
		names:   names,
		history: history,
		logger: logger.With().
			Str("component", "migration_runner").
			Logger(),
		steps:       all,
		versionInfo: versionInfo,
	}, nil
}

// Target is the schema version a successful pass produces.
func (r *Runner) Target() int {
	return r.steps[len(r.steps)-1].Version()
}

// Run probes the settings version and converts the store to the target
// version. It never returns a nil result.
func (r *Runner) Run(ctx context.Context) *Result {
	result := &Result{
		RunID:  uuid.NewString(),
		State:  StateNotStarted,
		Target: r.Target(),
	}
	logger := r.logger.With().Str("run_id", result.RunID).Logger()

	result.State = StateProbing
	probe, err := ProbeVersion(ctx, r.store, r.names, logger)
	if err != nil {
		result.State = StateFailed
		result.Err = fmt.Errorf("failed to probe settings version: %w", err)
		logger.Err(result.Err).Msg("conversion failed")
		return result
	}
	result.Probe = probe
	logger = logger.With().
		Int("disk_version", probe.Version).
		Int("target_version", result.Target).
		Logger()

	switch {
	case probe.Version == result.Target:
		result.State = StateUpToDate
		logger.Info().Msg("settings are up to date, no conversion needed")
		return result
	case probe.Version > result.Target:
		result.State = StateNewerOnDisk
		result.Err = fmt.Errorf("%w: found version %d, expected at most %d",
			ErrVersionRegression, probe.Version, result.Target)
		logger.Warn().Msg("settings were written by a newer release, leaving them alone")
		return result
	}

	found, err := r.foundSettings(ctx)
	if err != nil {
		result.State = StateFailed
		result.Err = fmt.Errorf("failed to list settings domains: %w", err)
		logger.Err(result.Err).Msg("conversion failed")
		return result
	}
	result.FoundSettings = found

	result.State = StateConverting
	logger.Info().Str("source", string(probe.Source)).Msg("converting settings")

	var errs []error
	for _, step := range r.steps {
		if step.Version() <= probe.Version {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("conversion interrupted before prefs-version %d: %w", step.Version(), err))
			break
		}
		stepResult, err := r.runStep(ctx, logger, step)
		result.Steps = append(result.Steps, stepResult)
		r.recordHistory(ctx, logger, result, stepResult)
		if err != nil {
			errs = append(errs, fmt.Errorf("prefs-version %d: %w", step.Version(), err))
		}
	}
	if len(errs) > 0 {
		result.State = StateFailed
		result.Err = errors.Join(errs...)
		logger.Err(result.Err).Msg("conversion failed, settings version was not advanced")
		return result
	}

	err = r.store.Write(ctx, r.names.Current, domain.VersionKey, domain.Int(int64(result.Target)))
	if err != nil {
		result.State = StateFailed
		result.Err = fmt.Errorf("failed to write settings version: %w", err)
		logger.Err(result.Err).Msg("conversion failed")
		return result
	}
	result.State = StateCommitted
	logger.Info().Msg("conversion complete")
	return result
}

// foundSettings reports whether the store holds any domain besides the step
// history.
func (r *Runner) foundSettings(ctx context.Context) (bool, error) {
	names, err := r.store.ListDomains(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if r.history == nil || name != r.history.Domain() {
			return true, nil
		}
	}
	return false, nil
}

func (r *Runner) runStep(ctx context.Context, logger zerolog.Logger, step Step) (StepResult, error) {
	logger = logger.With().
		Int("version", step.Version()).
		Str("step", step.Identifier()).
		Logger()
	logger.Info().Msgf("migrating settings to prefs-version %d", step.Version())

	env := &steps.Env{
		Store:  r.store,
		Names:  r.names,
		Logger: logger,
	}
	stepResult := StepResult{
		Version:    step.Version(),
		Identifier: step.Identifier(),
		StartedAt:  time.Now(),
	}
	err := step.Run(ctx, env)
	stepResult.CompletedAt = time.Now()
	stepResult.Warnings = env.Warnings()
	if err != nil {
		stepResult.Error = err.Error()
		logger.Err(err).Msg("step failed")
	} else {
		stepResult.Successful = true
	}
	return stepResult, err
}

// recordHistory stores a step result. The outcome of the pass does not depend
// on it.
func (r *Runner) recordHistory(ctx context.Context, logger zerolog.Logger, result *Result, stepResult StepResult) {
	if r.history == nil {
		return
	}
	err := r.history.Put(ctx, &StoredResult{
		RunID:        result.RunID,
		FromVersion:  result.Probe.Version,
		RunByVersion: r.versionInfo.String(),
		StepResult:   stepResult,
	})
	if err != nil {
		logger.Warn().
			Err(err).
			Int("version", stepResult.Version).
			Msg("failed to record step result")
	}
}
