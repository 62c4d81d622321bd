package report

import (
	"github.com/wI2L/jsondiff"

	"github.com/macterm/prefs-converter/converter/internal/migrate"
)

// Outcome is the user-facing classification of a conversion pass.
type Outcome string

const (
	OutcomeNoOp                  Outcome = "no-op"
	OutcomeConverted             Outcome = "converted-successfully"
	OutcomeConvertedWithWarnings Outcome = "converted-with-warnings"
	OutcomeRefusedNewer          Outcome = "refused-newer-disk-version"
	OutcomeFailed                Outcome = "failed"
)

// Exit codes reported to the host process.
const (
	ExitOK               = 0
	ExitFailed           = 1
	ExitRestartRequested = 2
	ExitInvalidUsage     = 3
)

// OutcomeOf classifies a runner result. A pass that found no settings at all
// is a no-op even though it records the current version. Unversioned settings
// that were converted are not.
func OutcomeOf(result *migrate.Result) Outcome {
	switch result.State {
	case migrate.StateUpToDate:
		return OutcomeNoOp
	case migrate.StateNewerOnDisk:
		return OutcomeRefusedNewer
	case migrate.StateCommitted:
		switch {
		case !result.FoundSettings:
			return OutcomeNoOp
		case len(result.Warnings()) > 0:
			return OutcomeConvertedWithWarnings
		default:
			return OutcomeConverted
		}
	default:
		return OutcomeFailed
	}
}

// Options are the behavior switches that affect what the user is told.
type Options struct {
	SilentOnSuccess        bool
	PromptRestartOnSuccess bool
}

// Report is everything the host process learns about a pass.
type Report struct {
	RunID            string   `json:"run_id"`
	Outcome          Outcome  `json:"outcome"`
	DiskVersion      int      `json:"disk_version"`
	TargetVersion    int      `json:"target_version"`
	Notice           Notice   `json:"notice"`
	RestartRequested bool     `json:"restart_requested"`
	Warnings         []string `json:"warnings,omitempty"`
	Error            string   `json:"error,omitempty"`
	// DryRun is set when nothing was saved. Changes then holds what a real
	// pass would have written.
	DryRun  bool           `json:"dry_run,omitempty"`
	Changes jsondiff.Patch `json:"changes,omitempty"`
}

func New(result *migrate.Result, opts Options) *Report {
	r := &Report{
		RunID:         result.RunID,
		Outcome:       OutcomeOf(result),
		DiskVersion:   result.Probe.Version,
		TargetVersion: result.Target,
		Warnings:      result.Warnings(),
	}
	switch r.Outcome {
	case OutcomeFailed:
		r.Notice = failureNotice
		if result.Err != nil {
			r.Error = result.Err.Error()
		}
	case OutcomeConverted, OutcomeConvertedWithWarnings:
		switch {
		case opts.PromptRestartOnSuccess:
			r.Notice = restartNotice
			r.RestartRequested = true
		case opts.SilentOnSuccess:
			r.Notice = silentNotice
		default:
			r.Notice = successNotice
		}
	default:
		r.Notice = silentNotice
	}
	return r
}

// AsDryRun marks the report as describing a simulated pass. The notice no
// longer claims that anything was saved and no restart is requested.
func (r *Report) AsDryRun(changes jsondiff.Patch) *Report {
	r.DryRun = true
	r.Changes = changes
	r.RestartRequested = false
	switch r.Outcome {
	case OutcomeFailed:
		r.Notice = dryRunFailureNotice
	case OutcomeConverted, OutcomeConvertedWithWarnings:
		r.Notice = dryRunNotice
	default:
		r.Notice = silentNotice
	}
	return r
}

func (r *Report) ExitCode() int {
	switch {
	case r.Outcome == OutcomeFailed:
		return ExitFailed
	case r.RestartRequested:
		return ExitRestartRequested
	default:
		return ExitOK
	}
}
