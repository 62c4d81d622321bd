package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wI2L/jsondiff"
)

// Snapshot is the full content of a store: domain name to key to value.
type Snapshot map[string]map[string]Value

// TakeSnapshot reads every domain in the store.
func TakeSnapshot(ctx context.Context, s Store) (Snapshot, error) {
	domains, err := s.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	snap := make(Snapshot, len(domains))
	for _, d := range domains {
		keys, err := s.ListKeys(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("failed to list keys in %q: %w", d, err)
		}
		entries := make(map[string]Value, len(keys))
		for _, k := range keys {
			v, err := s.Read(ctx, d, k)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s/%s: %w", d, k, err)
			}
			entries[k] = v
		}
		snap[d] = entries
	}
	return snap, nil
}

// Restore writes every entry in the snapshot to the store. Existing entries
// that aren't in the snapshot are left alone.
func Restore(ctx context.Context, s Store, snap Snapshot) error {
	for d, entries := range snap {
		for k, v := range entries {
			if err := s.Write(ctx, d, k, v); err != nil {
				return fmt.Errorf("failed to restore %s/%s: %w", d, k, err)
			}
		}
	}
	return nil
}

// Without returns a copy of the snapshot that omits the named domains.
func (s Snapshot) Without(names ...string) Snapshot {
	out := make(Snapshot, len(s))
	for d, entries := range s {
		out[d] = entries
	}
	for _, n := range names {
		delete(out, n)
	}
	return out
}

// Equal reports whether both snapshots hold identical domains and values.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for d, entries := range s {
		o, ok := other[d]
		if !ok || len(o) != len(entries) {
			return false
		}
		for k, v := range entries {
			ov, ok := o[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
	}
	return true
}

// Diff returns a JSON Patch (RFC 6902) that transforms before into after.
func Diff(before, after Snapshot) (jsondiff.Patch, error) {
	b, err := json.Marshal(before)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	a, err := json.Marshal(after)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	patch, err := jsondiff.CompareJSON(b, a)
	if err != nil {
		return nil, fmt.Errorf("failed to compare snapshots: %w", err)
	}
	return patch, nil
}
