package migrate

import (
	"fmt"

	"github.com/macterm/prefs-converter/converter/internal/migrate/steps"
)

// allSteps returns the ordered list of steps.
// Order matters - steps are executed in slice order.
// Add new steps to the end of this list with the next version number.
func allSteps() []Step {
	return []Step{
		&steps.SkipResourceForkPreferences{},
		&steps.SkipExperimentalVersion{},
		&steps.RemoveFavoriteMacrosAndStyles{},
		&steps.RemoveMenuAndMacroEditorKeys{},
		&steps.RemoveObsoleteWindowKeys{},
		&steps.MigrateToCurrentDomain{},
		&steps.RemoveCaptureFileKeys{},
		&steps.ConvertCaptureAliasToBookmark{},
	}
}

// AllSteps returns every registered step after checking their order.
func AllSteps() ([]Step, error) {
	all := allSteps()
	if err := ValidateSteps(all); err != nil {
		return nil, err
	}
	return all, nil
}

// ValidateSteps checks that versions are positive and strictly increasing.
func ValidateSteps(all []Step) error {
	if len(all) == 0 {
		return fmt.Errorf("%w: no steps registered", ErrInvalidStepOrder)
	}
	identifiers := map[string]bool{}
	previous := 0
	for _, step := range all {
		v := step.Version()
		if v <= 0 {
			return fmt.Errorf("%w: step %q has non-positive version %d", ErrInvalidStepOrder, step.Identifier(), v)
		}
		if v <= previous {
			return fmt.Errorf("%w: step %q has version %d, which does not follow %d", ErrInvalidStepOrder, step.Identifier(), v, previous)
		}
		if identifiers[step.Identifier()] {
			return fmt.Errorf("%w: duplicate identifier %q", ErrInvalidStepOrder, step.Identifier())
		}
		identifiers[step.Identifier()] = true
		previous = v
	}
	return nil
}
