package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
)

type putOp[V Value] struct {
	client  EtcdClient
	key     string
	val     V
	options []clientv3.OpOption
}

// NewPutOp returns an operation that stores a value under key, replacing any
// previous value.
func NewPutOp[V Value](client EtcdClient, key string, val V, options ...clientv3.OpOption) PutOp[V] {
	return &putOp[V]{
		client:  client,
		key:     key,
		val:     val,
		options: options,
	}
}

func (o *putOp[V]) Ops(ctx context.Context) ([]clientv3.Op, error) {
	return putOps(o.key, o.val, o.options...)
}

func (o *putOp[V]) Exec(ctx context.Context) error {
	ops, err := o.Ops(ctx)
	if err != nil {
		return err
	}
	_, err = o.client.Do(ctx, ops[0])
	if err != nil {
		return fmt.Errorf("failed to put %q: %w", o.key, err)
	}

	return nil
}

func encodeJSON(val any) (string, error) {
	raw, err := json.Marshal(val)
	if err != nil {
		return "", err
	}
	com, err := compress(raw)
	if err != nil {
		return "", err
	}

	return string(com), nil
}

const compressionThreshold = 2048 // 2KiB

func compress(in []byte) ([]byte, error) {
	if len(in) < compressionThreshold {
		// Don't compress if the data is below our threshold.
		return in, nil
	}
	var b bytes.Buffer
	gw := gzip.NewWriter(&b)
	if _, err := gw.Write(in); err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return b.Bytes(), nil
}

func putOps[V Value](key string, val V, options ...clientv3.OpOption) ([]clientv3.Op, error) {
	encoded, err := encodeJSON(val)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value for %q: %w", key, err)
	}

	return []clientv3.Op{clientv3.OpPut(key, encoded, options...)}, nil
}
