// Package filestore implements domain.Store as one JSON document per domain.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/macterm/prefs-converter/converter/internal/domain"
)

const fileExtension = ".json"

var _ domain.Store = (*Store)(nil)

// Store keeps each domain in <dir>/<domain>.json. Every mutation rewrites the
// domain's file through a temporary file and a rename, so a crash leaves
// either the old or the new document on disk.
type Store struct {
	mu  sync.Mutex
	fs  afero.Fs
	dir string
}

func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{
		fs:  fs,
		dir: dir,
	}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+fileExtension)
}

func (s *Store) load(name string) (map[string]domain.Value, error) {
	raw, err := afero.ReadFile(s.fs, s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]domain.Value{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read domain %q: %w", name, err)
	}
	entries := map[string]domain.Value{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode domain %q: %w", name, err)
	}
	return entries, nil
}

func (s *Store) save(name string, entries map[string]domain.Value) error {
	if len(entries) == 0 {
		err := s.fs.Remove(s.path(name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove domain %q: %w", name, err)
		}
		return nil
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode domain %q: %w", name, err)
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %q: %w", name, err)
	}
	_, err = tmp.Write(raw)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to write domain %q: %w", name, err)
	}
	if err := s.fs.Rename(tmp.Name(), s.path(name)); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to replace domain %q: %w", name, err)
	}
	return nil
}

func (s *Store) Read(_ context.Context, name, key string) (domain.Value, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.Value{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(name)
	if err != nil {
		return domain.Value{}, err
	}
	v, ok := entries[key]
	if !ok {
		return domain.Value{}, fmt.Errorf("%s/%s: %w", name, key, domain.ErrKeyNotFound)
	}
	return v, nil
}

func (s *Store) Write(_ context.Context, name, key string, value domain.Value) error {
	if err := domain.ValidateWrite(name, key, value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(name)
	if err != nil {
		return err
	}
	entries[key] = value
	return s.save(name, entries)
}

func (s *Store) Delete(_ context.Context, name, key string) error {
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(name)
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return s.save(name, entries)
}

func (s *Store) ListKeys(_ context.Context, name string) ([]string, error) {
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(name)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(entries)), nil
}

func (s *Store) ListDomains(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list settings directory: %w", err)
	}
	var domains []string
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), fileExtension) {
			continue
		}
		domains = append(domains, strings.TrimSuffix(info.Name(), fileExtension))
	}
	slices.Sort(domains)
	return domains, nil
}

func (s *Store) CopyDomain(_ context.Context, src, dst string) error {
	if err := domain.ValidateName(src); err != nil {
		return err
	}
	if err := domain.ValidateName(dst); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(src)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%q: %w", src, domain.ErrDomainNotFound)
	}
	if src == dst {
		return nil
	}
	return s.save(dst, entries)
}

func (s *Store) DeleteDomain(_ context.Context, name string) error {
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(name, nil)
}

func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	if err := domain.ValidateName(name); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(name)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
