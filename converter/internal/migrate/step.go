package migrate

import (
	"context"

	"github.com/macterm/prefs-converter/converter/internal/migrate/steps"
)

// Step defines the interface for settings migrations.
type Step interface {
	// Version returns the schema version this step produces.
	Version() int
	// Identifier returns a unique semantic name for this step.
	Identifier() string
	// Run performs the changes from the preceding version to Version. It
	// should report entry-level problems through the returned error without
	// stopping at the first one.
	Run(ctx context.Context, env *steps.Env) error
}
