package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macterm/prefs-converter/converter/internal/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	snap := domain.Snapshot{
		"app": {
			"a": domain.Int(1),
			"b": domain.StringList("x", "y"),
		},
		"app.sessions.1": {
			"blob": domain.Data([]byte{1, 2, 3}),
		},
	}

	s := domain.NewMemoryStore()
	require.NoError(t, domain.Restore(ctx, s, snap))

	actual, err := domain.TakeSnapshot(ctx, s)
	require.NoError(t, err)
	assert.True(t, snap.Equal(actual))
	assert.False(t, snap.Equal(actual.Without("app")))
}

func TestDiff(t *testing.T) {
	before := domain.Snapshot{
		"app": {
			"old": domain.Bool(true),
		},
	}
	after := domain.Snapshot{
		"app": {
			"new": domain.Bool(true),
		},
	}

	patch, err := domain.Diff(before, after)
	require.NoError(t, err)
	require.Len(t, patch, 2)

	var ops []string
	for _, op := range patch {
		ops = append(ops, op.Type+" "+op.Path)
	}
	assert.ElementsMatch(t, []string{"remove /app/old", "add /app/new"}, ops)

	patch, err = domain.Diff(before, before)
	require.NoError(t, err)
	assert.Empty(t, patch)
}
