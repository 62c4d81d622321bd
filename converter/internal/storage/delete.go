package storage

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
)

type deleteKeyOp struct {
	client  EtcdClient
	key     string
	options []clientv3.OpOption
}

// NewDeleteKeyOp returns an operation that deletes a single value by key.
func NewDeleteKeyOp(client EtcdClient, key string, options ...clientv3.OpOption) DeleteOp {
	return &deleteKeyOp{
		client:  client,
		key:     key,
		options: options,
	}
}

func (o *deleteKeyOp) Ops(ctx context.Context) ([]clientv3.Op, error) {
	return []clientv3.Op{clientv3.OpDelete(o.key, o.options...)}, nil
}

// Exec returns the number of records deleted.
func (o *deleteKeyOp) Exec(ctx context.Context) (int64, error) {
	resp, err := o.client.Delete(ctx, o.key, o.options...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete key %q: %w", o.key, err)
	}

	return resp.Deleted, nil
}

type deletePrefixOp struct {
	client  EtcdClient
	prefix  string
	options []clientv3.OpOption
}

// NewDeletePrefixOp returns an operation that deletes every value under a
// prefix.
func NewDeletePrefixOp(client EtcdClient, prefix string, options ...clientv3.OpOption) DeleteOp {
	return &deletePrefixOp{
		client:  client,
		prefix:  ensureTrailingSlash(prefix),
		options: options,
	}
}

func (o *deletePrefixOp) Ops(ctx context.Context) ([]clientv3.Op, error) {
	options := []clientv3.OpOption{clientv3.WithPrefix()}
	options = append(options, o.options...)
	return []clientv3.Op{clientv3.OpDelete(o.prefix, options...)}, nil
}

// Exec returns the number of values that were deleted.
func (o *deletePrefixOp) Exec(ctx context.Context) (int64, error) {
	options := []clientv3.OpOption{clientv3.WithPrefix()}
	options = append(options, o.options...)
	resp, err := o.client.Delete(ctx, o.prefix, options...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete prefix %q: %w", o.prefix, err)
	}

	return resp.Deleted, nil
}
