package testutils

import (
	"testing"

	"github.com/rs/zerolog"
)

// Logger writes to the test log in verbose mode and discards otherwise.
func Logger(t testing.TB) zerolog.Logger {
	t.Helper()

	if testing.Verbose() {
		return zerolog.New(zerolog.NewTestWriter(t))
	}

	return zerolog.Nop()
}
