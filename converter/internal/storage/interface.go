package storage

import (
	"context"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdClient is the subset of *clientv3.Client used by the operations in this
// package.
type EtcdClient interface {
	clientv3.KV
}

// TxnOperation is an operation that can be included in a Txn.
type TxnOperation interface {
	Ops(ctx context.Context) ([]clientv3.Op, error)
}

type GetOp[V Value] interface {
	Exec(ctx context.Context) (V, error)
}

type GetMultipleOp[V Value] interface {
	Exec(ctx context.Context) ([]V, error)
}

type KeysOp interface {
	Exec(ctx context.Context) ([]string, error)
}

type ExistsOp interface {
	Exec(ctx context.Context) (bool, error)
}

type PutOp[V Value] interface {
	TxnOperation
	Exec(ctx context.Context) error
}

type DeleteOp interface {
	TxnOperation
	// Exec returns the number of deleted keys.
	Exec(ctx context.Context) (int64, error)
}

type Txn interface {
	AddOps(ops ...TxnOperation)
	Len() int
	Commit(ctx context.Context) error
}
