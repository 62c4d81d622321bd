package domain

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store. It backs dry runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	domains map[string]map[string]Value
	// FailWrites, when set, is consulted before every mutation. Returning a
	// non-nil error rejects the mutation. Tests use it to simulate a store
	// that refuses writes.
	FailWrites func(op, domain, key string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		domains: map[string]map[string]Value{},
	}
}

func (m *MemoryStore) Read(_ context.Context, domain, key string) (Value, error) {
	if err := ValidateName(domain); err != nil {
		return Value{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.domains[domain][key]
	if !ok {
		return Value{}, fmt.Errorf("%s/%s: %w", domain, key, ErrKeyNotFound)
	}
	return v, nil
}

func (m *MemoryStore) Write(_ context.Context, domain, key string, value Value) error {
	if err := ValidateWrite(domain, key, value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("write", domain, key); err != nil {
		return err
	}
	d, ok := m.domains[domain]
	if !ok {
		d = map[string]Value{}
		m.domains[domain] = d
	}
	d[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, domain, key string) error {
	if err := ValidateName(domain); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("delete", domain, key); err != nil {
		return err
	}
	d, ok := m.domains[domain]
	if !ok {
		return nil
	}
	delete(d, key)
	if len(d) == 0 {
		delete(m.domains, domain)
	}
	return nil
}

func (m *MemoryStore) ListKeys(_ context.Context, domain string) ([]string, error) {
	if err := ValidateName(domain); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.domains[domain])), nil
}

func (m *MemoryStore) ListDomains(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.domains)), nil
}

func (m *MemoryStore) CopyDomain(_ context.Context, src, dst string) error {
	if err := ValidateName(src); err != nil {
		return err
	}
	if err := ValidateName(dst); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	source, ok := m.domains[src]
	if !ok {
		return fmt.Errorf("%s: %w", src, ErrDomainNotFound)
	}
	if err := m.check("copy", dst, ""); err != nil {
		return err
	}
	if src == dst {
		return nil
	}
	m.domains[dst] = maps.Clone(source)
	return nil
}

func (m *MemoryStore) DeleteDomain(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.domains[name]; !ok {
		return nil
	}
	if err := m.check("delete_domain", name, ""); err != nil {
		return err
	}
	delete(m.domains, name)
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.domains[name]
	return ok, nil
}

func (m *MemoryStore) check(op, domain, key string) error {
	if m.FailWrites == nil {
		return nil
	}
	if err := m.FailWrites(op, domain, key); err != nil {
		return fmt.Errorf("failed to %s %s/%s: %w", op, domain, key, err)
	}
	return nil
}
