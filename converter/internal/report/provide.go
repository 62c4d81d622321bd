package report

import (
	"os"

	"github.com/samber/do"

	"github.com/macterm/prefs-converter/converter/internal/config"
)

func Provide(i *do.Injector) {
	provideOptions(i)
	providePrinter(i)
}

func provideOptions(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (Options, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return Options{}, err
		}
		return OptionsFromConfig(cfg.Report), nil
	})
}

func providePrinter(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Printer, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}
		return NewPrinter(os.Stdout, FormatFromConfig(cfg.Report.Output)), nil
	})
}

// OptionsFromConfig maps the configured behavior switches.
func OptionsFromConfig(cfg config.Report) Options {
	return Options{
		SilentOnSuccess:        cfg.SilentOnSuccess,
		PromptRestartOnSuccess: cfg.PromptRestartOnSuccess,
	}
}

func FormatFromConfig(f config.OutputFormat) Format {
	if f == config.OutputFormatJSON {
		return FormatJSON
	}
	return FormatText
}
