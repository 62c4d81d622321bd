package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macterm/prefs-converter/converter/internal/domain"
	"github.com/macterm/prefs-converter/converter/internal/domain/domaintest"
)

func TestMemoryStore(t *testing.T) {
	domaintest.RunStoreTests(t, func(t *testing.T) domain.Store {
		return domain.NewMemoryStore()
	})

	t.Run("rejected writes leave the store unchanged", func(t *testing.T) {
		ctx := context.Background()
		s := domain.NewMemoryStore()
		require.NoError(t, s.Write(ctx, "app", "a", domain.Bool(true)))

		s.FailWrites = func(op, d, k string) error {
			return errors.New("disk full")
		}

		assert.ErrorContains(t, s.Write(ctx, "app", "b", domain.Bool(true)), "disk full")
		assert.ErrorContains(t, s.Delete(ctx, "app", "a"), "disk full")
		assert.ErrorContains(t, s.CopyDomain(ctx, "app", "other"), "disk full")
		assert.ErrorContains(t, s.DeleteDomain(ctx, "app"), "disk full")

		s.FailWrites = nil
		snap, err := domain.TakeSnapshot(ctx, s)
		require.NoError(t, err)
		assert.True(t, domain.Snapshot{"app": {"a": domain.Bool(true)}}.Equal(snap))
	})
}
