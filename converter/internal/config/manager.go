package config

import (
	"fmt"

	"github.com/knadh/koanf/v2"
)

type Manager struct {
	sources []*Source
	config  Config
}

func NewManager(sources ...*Source) *Manager {
	return &Manager{
		sources: sources,
	}
}

func (m *Manager) Config() Config {
	return m.config
}

func (m *Manager) Load() error {
	defaults, err := DefaultConfig()
	if err != nil {
		return err
	}

	userK, err := m.loadUserConfig()
	if err != nil {
		return err
	}

	// User-specified config takes precedence over the defaults.
	combinedK := koanf.New(".")
	if err := LoadStruct(combinedK, defaults); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := combinedK.Merge(userK); err != nil {
		return fmt.Errorf("failed to merge user config: %w", err)
	}

	var combined Config
	if err := combinedK.Unmarshal("", &combined); err != nil {
		return fmt.Errorf("failed to unmarshal combined config: %w", err)
	}

	if err := combined.Validate(); err != nil {
		return err
	}

	m.config = combined

	return nil
}

func (m *Manager) loadUserConfig() (*koanf.Koanf, error) {
	k := koanf.New(".")
	for _, source := range m.sources {
		err := k.Load(source.Provider(k), source.Parser, source.Options...)
		if err != nil {
			return nil, fmt.Errorf("failed to load user-specified config: %w", err)
		}
	}

	return k, nil
}
