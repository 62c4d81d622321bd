// Package migrate upgrades stored settings to the schema version this release
// reads. It probes the version on disk, runs every step newer than it in
// order, and records the new version only when all of them succeeded.
// IMPORTANT: steps _must_ be safe to re-run, because a failed conversion is
// retried from the same version the next time the converter starts.
package migrate
