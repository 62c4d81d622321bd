// Package etcdstore implements domain.Store on top of etcd.
//
// Every setting is stored under /<root>/domains/<domain>/<escaped key> as a
// JSON document that carries the domain, the key and the tagged value.
package etcdstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/macterm/prefs-converter/converter/internal/domain"
	"github.com/macterm/prefs-converter/converter/internal/storage"
)

// DefaultMaxTxnOps matches etcd's default --max-txn-ops.
const DefaultMaxTxnOps = 128

var _ domain.Store = (*Store)(nil)

type storedSetting struct {
	storage.StoredValue
	Domain string       `json:"domain"`
	Key    string       `json:"key"`
	Value  domain.Value `json:"value"`
}

type Store struct {
	client    storage.EtcdClient
	root      string
	maxTxnOps int
}

// NewStore returns a store rooted at root. Transactions issued by CopyDomain
// contain at most maxTxnOps operations.
func NewStore(client storage.EtcdClient, root string, maxTxnOps int) *Store {
	if maxTxnOps <= 0 {
		maxTxnOps = DefaultMaxTxnOps
	}
	return &Store{
		client:    client,
		root:      root,
		maxTxnOps: maxTxnOps,
	}
}

func (s *Store) DomainsPrefix() string {
	return storage.Prefix(s.root, "domains")
}

func (s *Store) DomainPrefix(name string) string {
	return storage.Prefix(s.root, "domains", name)
}

// Key does not use storage.Key because path cleaning would alter keys such as
// "a//b" or "..".
func (s *Store) Key(name, key string) string {
	return s.DomainPrefix(name) + url.PathEscape(key)
}

func (s *Store) Read(ctx context.Context, name, key string) (domain.Value, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.Value{}, err
	}
	setting, err := storage.NewGetOp[*storedSetting](s.client, s.Key(name, key)).Exec(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Value{}, fmt.Errorf("%s/%s: %w", name, key, domain.ErrKeyNotFound)
	}
	if err != nil {
		return domain.Value{}, err
	}
	return setting.Value, nil
}

func (s *Store) Write(ctx context.Context, name, key string, value domain.Value) error {
	if err := domain.ValidateWrite(name, key, value); err != nil {
		return err
	}
	return s.put(name, key, value).Exec(ctx)
}

func (s *Store) put(name, key string, value domain.Value) storage.PutOp[*storedSetting] {
	return storage.NewPutOp(s.client, s.Key(name, key), &storedSetting{
		Domain: name,
		Key:    key,
		Value:  value,
	})
}

func (s *Store) Delete(ctx context.Context, name, key string) error {
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	_, err := storage.NewDeleteKeyOp(s.client, s.Key(name, key)).Exec(ctx)
	return err
}

func (s *Store) ListKeys(ctx context.Context, name string) ([]string, error) {
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	prefix := s.DomainPrefix(name)
	raw, err := storage.NewKeysOp(s.client, prefix).Exec(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		key, err := url.PathUnescape(strings.TrimPrefix(k, prefix))
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", k, err)
		}
		keys = append(keys, key)
	}
	// escaping can change the relative order of keys
	slices.Sort(keys)
	return keys, nil
}

func (s *Store) ListDomains(ctx context.Context) ([]string, error) {
	prefix := s.DomainsPrefix()
	raw, err := storage.NewKeysOp(s.client, prefix).Exec(ctx)
	if err != nil {
		return nil, err
	}
	var domains []string
	seen := map[string]bool{}
	for _, k := range raw {
		name, _, ok := strings.Cut(strings.TrimPrefix(k, prefix), "/")
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		domains = append(domains, name)
	}
	slices.Sort(domains)
	return domains, nil
}

func (s *Store) CopyDomain(ctx context.Context, src, dst string) error {
	if err := domain.ValidateName(src); err != nil {
		return err
	}
	if err := domain.ValidateName(dst); err != nil {
		return err
	}
	settings, err := storage.NewGetPrefixOp[*storedSetting](s.client, s.DomainPrefix(src)).Exec(ctx)
	if err != nil {
		return err
	}
	if len(settings) == 0 {
		return fmt.Errorf("%q: %w", src, domain.ErrDomainNotFound)
	}
	if src == dst {
		return nil
	}
	existing, err := s.ListKeys(ctx, dst)
	if err != nil {
		return err
	}

	var ops []storage.TxnOperation
	copied := make(map[string]bool, len(settings))
	for _, setting := range settings {
		copied[setting.Key] = true
		ops = append(ops, s.put(dst, setting.Key, setting.Value))
	}
	// Stale keys are deleted one by one because etcd rejects transactions
	// where a put overlaps a range delete.
	for _, key := range existing {
		if !copied[key] {
			ops = append(ops, storage.NewDeleteKeyOp(s.client, s.Key(dst, key)))
		}
	}
	for start := 0; start < len(ops); start += s.maxTxnOps {
		end := min(start+s.maxTxnOps, len(ops))
		if err := storage.NewTxn(s.client, ops[start:end]...).Commit(ctx); err != nil {
			return fmt.Errorf("failed to copy %q to %q: %w", src, dst, err)
		}
	}
	return nil
}

func (s *Store) DeleteDomain(ctx context.Context, name string) error {
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	_, err := storage.NewDeletePrefixOp(s.client, s.DomainPrefix(name)).Exec(ctx)
	return err
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := domain.ValidateName(name); err != nil {
		return false, err
	}
	return storage.NewExistsPrefixOp(s.client, s.DomainPrefix(name)).Exec(ctx)
}
