package store

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/spf13/afero"

	"github.com/macterm/prefs-converter/converter/internal/config"
	"github.com/macterm/prefs-converter/converter/internal/domain"
)

func Provide(i *do.Injector) {
	provideFs(i)
	provideBackend(i)
	provideStore(i)
}

func provideFs(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (afero.Fs, error) {
		return afero.NewOsFs(), nil
	})
}

func provideBackend(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Backend, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}
		fs, err := do.Invoke[afero.Fs](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		return Open(context.Background(), cfg, fs, logger)
	})
}

func provideStore(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (domain.Store, error) {
		backend, err := do.Invoke[*Backend](i)
		if err != nil {
			return nil, err
		}
		return backend.Store, nil
	})
}
