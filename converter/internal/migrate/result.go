package migrate

import "time"

// State is the runner's position in a conversion pass.
type State string

const (
	StateNotStarted  State = "not_started"
	StateProbing     State = "probing"
	StateUpToDate    State = "up_to_date"
	StateNewerOnDisk State = "newer_on_disk"
	StateConverting  State = "converting"
	StateCommitted   State = "committed"
	StateFailed      State = "failed"
)

// StepResult is the outcome of a single step.
type StepResult struct {
	Version     int       `json:"version"`
	Identifier  string    `json:"identifier"`
	Successful  bool      `json:"successful"`
	Warnings    []string  `json:"warnings,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Result is the outcome of a conversion pass. State is one of the terminal
// states: UpToDate, NewerOnDisk, Committed or Failed.
type Result struct {
	RunID  string `json:"run_id"`
	State  State  `json:"state"`
	Probe  Probe  `json:"probe"`
	Target int    `json:"target"`
	// FoundSettings reports whether any settings domain existed before the
	// conversion started.
	FoundSettings bool         `json:"found_settings"`
	Steps         []StepResult `json:"steps,omitempty"`
	// Err is set for NewerOnDisk and Failed.
	Err error `json:"-"`
}

// Warnings returns the warnings of every step in order.
func (r *Result) Warnings() []string {
	var out []string
	for _, s := range r.Steps {
		out = append(out, s.Warnings...)
	}
	return out
}
