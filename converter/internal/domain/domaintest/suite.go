// Package domaintest contains a conformance suite for domain.Store
// implementations.
package domaintest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macterm/prefs-converter/converter/internal/domain"
)

// RunStoreTests exercises the domain.Store contract. newStore must return an
// empty store that is independent of every store it returned before.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) domain.Store) {
	t.Helper()

	t.Run("read missing key", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Read(context.Background(), "app", "missing")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("write and read every kind", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		values := map[string]domain.Value{
			"bool":   domain.Bool(true),
			"int":    domain.Int(-42),
			"string": domain.String("hello"),
			"list":   domain.StringList("a", "b"),
			"data":   domain.Data([]byte{0x00, 0xff, 0x10}),
			"record": domain.Record(map[string]domain.Value{
				"nested": domain.String("value"),
				"count":  domain.Int(3),
			}),
		}
		for k, v := range values {
			require.NoError(t, s.Write(ctx, "app", k, v))
		}
		for k, expected := range values {
			actual, err := s.Read(ctx, "app", k)
			require.NoError(t, err)
			assert.True(t, expected.Equal(actual), "%s: expected %s, got %s", k, expected, actual)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Write(ctx, "app", "key", domain.String("old")))
		require.NoError(t, s.Write(ctx, "app", "key", domain.Int(7)))

		v, err := s.Read(ctx, "app", "key")
		require.NoError(t, err)
		assert.True(t, domain.Int(7).Equal(v))
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Write(ctx, "app", "a", domain.Bool(true)))
		require.NoError(t, s.Write(ctx, "app", "b", domain.Bool(false)))
		require.NoError(t, s.Delete(ctx, "app", "a"))

		_, err := s.Read(ctx, "app", "a")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)

		keys, err := s.ListKeys(ctx, "app")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, keys)
	})

	t.Run("delete missing key", func(t *testing.T) {
		s := newStore(t)

		assert.NoError(t, s.Delete(context.Background(), "nowhere", "missing"))
	})

	t.Run("list keys sorted", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for _, k := range []string{"zeta", "alpha", "mu"} {
			require.NoError(t, s.Write(ctx, "app", k, domain.Bool(true)))
		}
		keys, err := s.ListKeys(ctx, "app")
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "mu", "zeta"}, keys)
	})

	t.Run("list keys of missing domain", func(t *testing.T) {
		s := newStore(t)

		keys, err := s.ListKeys(context.Background(), "missing")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("domains do not leak into each other", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		// "app.sessions.1" shares a prefix with "app" and must stay separate.
		require.NoError(t, s.Write(ctx, "app", "a", domain.Bool(true)))
		require.NoError(t, s.Write(ctx, "app.sessions.1", "b", domain.Bool(true)))

		keys, err := s.ListKeys(ctx, "app")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, keys)

		domains, err := s.ListDomains(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"app", "app.sessions.1"}, domains)

		require.NoError(t, s.DeleteDomain(ctx, "app"))
		exists, err := s.Exists(ctx, "app.sessions.1")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("exists", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		exists, err := s.Exists(ctx, "app")
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, s.Write(ctx, "app", "a", domain.Bool(true)))
		exists, err = s.Exists(ctx, "app")
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, s.Delete(ctx, "app", "a"))
		exists, err = s.Exists(ctx, "app")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("copy domain replaces destination", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Write(ctx, "src", "a", domain.String("from src")))
		require.NoError(t, s.Write(ctx, "src", "b", domain.Data([]byte("blob"))))
		require.NoError(t, s.Write(ctx, "dst", "a", domain.String("stale")))
		require.NoError(t, s.Write(ctx, "dst", "stale", domain.Bool(true)))

		require.NoError(t, s.CopyDomain(ctx, "src", "dst"))

		expected := domain.Snapshot{
			"src": {
				"a": domain.String("from src"),
				"b": domain.Data([]byte("blob")),
			},
			"dst": {
				"a": domain.String("from src"),
				"b": domain.Data([]byte("blob")),
			},
		}
		actual, err := domain.TakeSnapshot(ctx, s)
		require.NoError(t, err)
		assert.True(t, expected.Equal(actual), "unexpected store content: %v", actual)
	})

	t.Run("copy missing domain", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		err := s.CopyDomain(ctx, "missing", "dst")
		assert.ErrorIs(t, err, domain.ErrDomainNotFound)

		exists, err := s.Exists(ctx, "dst")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete domain", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Write(ctx, "app", "a", domain.Bool(true)))
		require.NoError(t, s.Write(ctx, "app", "b", domain.Bool(true)))
		require.NoError(t, s.DeleteDomain(ctx, "app"))

		exists, err := s.Exists(ctx, "app")
		require.NoError(t, err)
		assert.False(t, exists)

		// deleting again is a no-op
		assert.NoError(t, s.DeleteDomain(ctx, "app"))
	})

	t.Run("invalid domain names", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for _, name := range []string{"", "a/b", ".."} {
			err := s.Write(ctx, name, "key", domain.Bool(true))
			assert.ErrorIs(t, err, domain.ErrInvalidDomainName, "name %q", name)
		}
	})
}
