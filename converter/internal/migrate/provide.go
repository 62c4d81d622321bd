package migrate

import (
	"github.com/rs/zerolog"
	"github.com/samber/do"

	"github.com/macterm/prefs-converter/converter/internal/config"
	"github.com/macterm/prefs-converter/converter/internal/domain"
)

// Provide registers migration dependencies with the injector.
func Provide(i *do.Injector) {
	provideRunner(i)
}

func provideRunner(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Runner, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}
		store, err := do.Invoke[domain.Store](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		all, err := AllSteps()
		if err != nil {
			return nil, err
		}

		var history *HistoryStore
		if cfg.HistoryDomain != "" {
			history = NewHistoryStore(store, cfg.HistoryDomain)
		}
		return NewRunner(store, cfg.Names(), history, logger, all)
	})
}
