package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macterm/prefs-converter/converter/internal/storage"
	"github.com/macterm/prefs-converter/converter/internal/storage/storagetest"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "/root/domains/app", storage.Key("root", "domains", "app"))
	assert.Equal(t, "/root/domains/app", storage.Key("/root/", "domains", "app"))
	assert.Equal(t, "/root/domains/", storage.Prefix("root", "domains"))
}

func TestGetOp(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	client := server.Client(t)

	t.Run("key exists", func(t *testing.T) {
		ctx := context.Background()
		err := storage.NewPutOp(client, "/get/foo", &TestValue{SomeField: "foo"}).Exec(ctx)
		require.NoError(t, err)

		val, err := storage.NewGetOp[*TestValue](client, "/get/foo").Exec(ctx)

		expected := &TestValue{SomeField: "foo"}
		expected.SetVersion(1)

		assert.NoError(t, err)
		assert.Equal(t, expected, val)
	})

	t.Run("key does not exist", func(t *testing.T) {
		ctx := context.Background()
		val, err := storage.NewGetOp[*TestValue](client, "/get/bar").Exec(ctx)

		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.Nil(t, val)
	})

	t.Run("large values are compressed transparently", func(t *testing.T) {
		ctx := context.Background()
		large := strings.Repeat("x", 10_000)
		err := storage.NewPutOp(client, "/get/large", &TestValue{SomeField: large}).Exec(ctx)
		require.NoError(t, err)

		val, err := storage.NewGetOp[*TestValue](client, "/get/large").Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, large, val.SomeField)
	})
}

func TestPrefixOps(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	client := server.Client(t)
	ctx := context.Background()

	for _, key := range []string{"/p/app/b", "/p/app/a", "/p/app.sessions.1/c"} {
		require.NoError(t, storage.NewPutOp(client, key, &TestValue{SomeField: key}).Exec(ctx))
	}

	t.Run("get prefix", func(t *testing.T) {
		vals, err := storage.NewGetPrefixOp[*TestValue](client, "/p/app").Exec(ctx)
		require.NoError(t, err)
		require.Len(t, vals, 2)
		assert.Equal(t, "/p/app/a", vals[0].SomeField)
		assert.Equal(t, "/p/app/b", vals[1].SomeField)
	})

	t.Run("keys", func(t *testing.T) {
		keys, err := storage.NewKeysOp(client, "/p/").Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"/p/app.sessions.1/c", "/p/app/a", "/p/app/b"}, keys)
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := storage.NewExistsPrefixOp(client, "/p/app.sessions.1").Exec(ctx)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = storage.NewExistsPrefixOp(client, "/p/missing").Exec(ctx)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete prefix", func(t *testing.T) {
		deleted, err := storage.NewDeletePrefixOp(client, "/p/app").Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		keys, err := storage.NewKeysOp(client, "/p").Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"/p/app.sessions.1/c"}, keys)
	})

	t.Run("delete missing key", func(t *testing.T) {
		deleted, err := storage.NewDeleteKeyOp(client, "/p/nothing").Exec(ctx)
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}

func TestTxn(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	client := server.Client(t)

	t.Run("puts and deletes together", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, storage.NewPutOp(client, "/t/old", &TestValue{SomeField: "old"}).Exec(ctx))

		txn := storage.NewTxn(client,
			storage.NewPutOp(client, "/t/foo", &TestValue{SomeField: "foo"}),
			storage.NewPutOp(client, "/t/bar", &TestValue{SomeField: "bar"}),
		)
		txn.AddOps(storage.NewDeleteKeyOp(client, "/t/old"))
		assert.Equal(t, 3, txn.Len())
		require.NoError(t, txn.Commit(ctx))

		vals, err := storage.NewGetPrefixOp[*TestValue](client, "/t").Exec(ctx)
		require.NoError(t, err)

		expected := []*TestValue{
			{SomeField: "bar"},
			{SomeField: "foo"},
		}
		for _, e := range expected {
			e.SetVersion(1)
		}
		assert.Equal(t, expected, vals)
	})

	t.Run("duplicate keys", func(t *testing.T) {
		ctx := context.Background()
		err := storage.NewTxn(client,
			storage.NewPutOp(client, "a", &TestValue{SomeField: "a"}),
			storage.NewDeleteKeyOp(client, "a"),
		).Commit(ctx)

		assert.ErrorIs(t, err, storage.ErrDuplicateKeysInTransaction)
		assert.ErrorContains(t, err, "put a")
		assert.ErrorContains(t, err, "delete a")

		exists, err := storage.NewExistsPrefixOp(client, "a").Exec(ctx)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
