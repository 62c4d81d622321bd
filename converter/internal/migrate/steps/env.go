package steps

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/macterm/prefs-converter/converter/internal/domain"
)

// Env is what a step operates on.
type Env struct {
	Store    domain.Store
	Names    domain.Names
	Logger   zerolog.Logger
	warnings []string
}

// Warn records a problem that doesn't fail the step.
func (e *Env) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.Logger.Warn().Msg(msg)
	e.warnings = append(e.warnings, msg)
}

// Warnings returns the warnings recorded so far.
func (e *Env) Warnings() []string {
	return e.warnings
}
