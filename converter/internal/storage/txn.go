package storage

import (
	"context"
	"errors"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
)

type txn struct {
	client EtcdClient
	ops    []TxnOperation
}

// NewTxn returns a transaction that applies every operation's puts and deletes
// atomically.
func NewTxn(client EtcdClient, ops ...TxnOperation) Txn {
	return &txn{
		client: client,
		ops:    ops,
	}
}

func (t *txn) AddOps(ops ...TxnOperation) {
	t.ops = append(t.ops, ops...)
}

func (t *txn) Len() int {
	return len(t.ops)
}

func (t *txn) Commit(ctx context.Context) error {
	var ops []clientv3.Op
	for _, o := range t.ops {
		oOps, err := o.Ops(ctx)
		if err != nil {
			return err
		}
		ops = append(ops, oOps...)
	}
	if err := checkDuplicateKeys(ops); err != nil {
		return err
	}
	if _, err := t.client.Txn(ctx).Then(ops...).Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction of %d operations: %w", len(ops), err)
	}

	return nil
}

// etcd rejects transactions that modify the same key twice. Checking here
// gives a more useful error message.
func checkDuplicateKeys(ops []clientv3.Op) error {
	seen := map[string]string{}
	var errs []error
	for _, op := range ops {
		key := string(op.KeyBytes())
		desc := describeOp(op)
		if prev, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("%s conflicts with %s", desc, prev))
			continue
		}
		seen[key] = desc
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrDuplicateKeysInTransaction, errors.Join(errs...))
	}

	return nil
}

func describeOp(op clientv3.Op) string {
	key := string(op.KeyBytes())
	switch {
	case op.IsPut():
		return "put " + key
	case op.IsDelete():
		return "delete " + key
	default:
		return "get " + key
	}
}
