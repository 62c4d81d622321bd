// Package steps contains the individual settings migrations. Each step
// performs only the changes from the preceding schema version to its own.
// IMPORTANT: a step must never change once it has shipped, because settings
// written by every earlier release are upgraded by running the whole chain.
// Steps must also be safe to re-run after a partial failure: always write the
// new data before deleting the old.
package steps
