package etcdstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macterm/prefs-converter/converter/internal/domain"
	"github.com/macterm/prefs-converter/converter/internal/domain/domaintest"
	"github.com/macterm/prefs-converter/converter/internal/domain/etcdstore"
	"github.com/macterm/prefs-converter/converter/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	client := server.Client(t)

	domaintest.RunStoreTests(t, func(t *testing.T) domain.Store {
		return etcdstore.NewStore(client, uuid.NewString(), storagetest.MaxTxnOps)
	})
}

func TestStoreKeys(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	client := server.Client(t)
	ctx := context.Background()

	t.Run("keys that look like paths", func(t *testing.T) {
		s := etcdstore.NewStore(client, uuid.NewString(), storagetest.MaxTxnOps)

		for _, key := range []string{"a/b", "..", "a//b", "with space"} {
			require.NoError(t, s.Write(ctx, "app", key, domain.String(key)))
		}
		keys, err := s.ListKeys(ctx, "app")
		require.NoError(t, err)
		assert.Equal(t, []string{"..", "a//b", "a/b", "with space"}, keys)

		domains, err := s.ListDomains(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"app"}, domains)

		v, err := s.Read(ctx, "app", "a/b")
		require.NoError(t, err)
		assert.True(t, domain.String("a/b").Equal(v))
	})

	t.Run("key layout", func(t *testing.T) {
		s := etcdstore.NewStore(client, "converter", 0)

		assert.Equal(t, "/converter/domains/", s.DomainsPrefix())
		assert.Equal(t, "/converter/domains/net.macterm.MacTerm/", s.DomainPrefix("net.macterm.MacTerm"))
		assert.Equal(t, "/converter/domains/app/a%2Fb", s.Key("app", "a/b"))
	})
}

func TestCopyDomainLargerThanOneTransaction(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	client := server.Client(t)
	ctx := context.Background()

	const maxTxnOps = 8
	s := etcdstore.NewStore(client, uuid.NewString(), maxTxnOps)

	for i := range 3*maxTxnOps + 1 {
		require.NoError(t, s.Write(ctx, "src", fmt.Sprintf("key-%02d", i), domain.Int(int64(i))))
	}
	for i := range maxTxnOps {
		require.NoError(t, s.Write(ctx, "dst", fmt.Sprintf("stale-%02d", i), domain.Bool(true)))
	}

	require.NoError(t, s.CopyDomain(ctx, "src", "dst"))

	snap, err := domain.TakeSnapshot(ctx, s)
	require.NoError(t, err)
	assert.True(t, snap["src"]["key-00"].Equal(snap["dst"]["key-00"]))
	assert.Len(t, snap["dst"], 3*maxTxnOps+1)
	assert.NotContains(t, snap["dst"], "stale-00")
}
