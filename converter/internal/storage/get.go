package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

type getOp[V Value] struct {
	client  EtcdClient
	key     string
	options []clientv3.OpOption
}

// NewGetOp returns an operation that returns a single value by key.
func NewGetOp[V Value](client EtcdClient, key string, options ...clientv3.OpOption) GetOp[V] {
	return &getOp[V]{
		client:  client,
		key:     key,
		options: options,
	}
}

func (o *getOp[V]) Exec(ctx context.Context) (V, error) {
	var zero V
	resp, err := o.client.Get(ctx, o.key, o.options...)
	if err != nil {
		return zero, fmt.Errorf("failed to get %q: %w", o.key, err)
	}
	vals, err := decodeKVs[V](resp.Kvs)
	if err != nil {
		return zero, err
	}
	if len(vals) < 1 {
		return zero, fmt.Errorf("%q: %w", o.key, ErrNotFound)
	}

	return vals[0], nil
}

type getPrefixOp[V Value] struct {
	client  EtcdClient
	prefix  string
	options []clientv3.OpOption
}

// NewGetPrefixOp returns an operation that returns multiple values by prefix,
// sorted by key.
func NewGetPrefixOp[V Value](client EtcdClient, prefix string, options ...clientv3.OpOption) GetMultipleOp[V] {
	return &getPrefixOp[V]{
		client:  client,
		prefix:  ensureTrailingSlash(prefix),
		options: options,
	}
}

func (o *getPrefixOp[V]) Exec(ctx context.Context) ([]V, error) {
	options := []clientv3.OpOption{clientv3.WithPrefix()}
	options = append(options, o.options...)
	resp, err := o.client.Get(ctx, o.prefix, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to get prefix %q: %w", o.prefix, err)
	}
	return decodeKVs[V](resp.Kvs)
}

type keysOp struct {
	client EtcdClient
	prefix string
}

// NewKeysOp returns an operation that lists the keys under a prefix in
// ascending order without fetching their values.
func NewKeysOp(client EtcdClient, prefix string) KeysOp {
	return &keysOp{
		client: client,
		prefix: ensureTrailingSlash(prefix),
	}
}

func (o *keysOp) Exec(ctx context.Context) ([]string, error) {
	resp, err := o.client.Get(ctx, o.prefix,
		clientv3.WithPrefix(),
		clientv3.WithKeysOnly(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys under %q: %w", o.prefix, err)
	}
	keys := make([]string, len(resp.Kvs))
	for idx, kv := range resp.Kvs {
		keys[idx] = string(kv.Key)
	}

	return keys, nil
}

type existsOp struct {
	client  EtcdClient
	key     string
	options []clientv3.OpOption
}

// NewExistsPrefixOp returns an operation that returns true if at least one key
// exists under the prefix.
func NewExistsPrefixOp(client EtcdClient, prefix string) ExistsOp {
	return &existsOp{
		client:  client,
		key:     ensureTrailingSlash(prefix),
		options: []clientv3.OpOption{clientv3.WithPrefix(), clientv3.WithLimit(1)},
	}
}

func (o *existsOp) Exec(ctx context.Context) (bool, error) {
	options := []clientv3.OpOption{clientv3.WithCountOnly()}
	options = append(options, o.options...)
	resp, err := o.client.Get(ctx, o.key, options...)
	if err != nil {
		return false, fmt.Errorf("failed get operation: %w", err)
	}

	return resp.Count > 0, nil
}

func decodeKVs[V Value](kvs []*mvccpb.KeyValue) ([]V, error) {
	vals := make([]V, len(kvs))
	for idx, kv := range kvs {
		v, err := decodeKV[V](kv)
		if err != nil {
			return nil, err
		}
		vals[idx] = v
	}

	return vals, nil
}

func decodeKV[V Value](kv *mvccpb.KeyValue) (V, error) {
	var zero V
	key := string(kv.Key)
	raw, err := decompress(kv.Value)
	if err != nil {
		return zero, fmt.Errorf("failed to decompress %q: %w", key, err)
	}
	val, err := decodeJSON[V](raw)
	if err != nil {
		return zero, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	val.SetVersion(kv.Version)
	return val, nil
}

func decodeJSON[V any](val []byte) (V, error) {
	var out V
	if err := json.Unmarshal(val, &out); err != nil {
		return out, err
	}
	return out, nil
}

// gzipMagic can never start a JSON document, so it marks compressed values.
var gzipMagic = []byte{0x1f, 0x8b}

func decompress(in []byte) ([]byte, error) {
	if !bytes.HasPrefix(in, gzipMagic) {
		return in, nil
	}
	gr, err := gzip.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}
