package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/macterm/prefs-converter/converter/internal/domain"
)

type Logging struct {
	Level  string `koanf:"level" json:"level,omitempty"`
	Pretty bool   `koanf:"pretty" json:"pretty,omitempty"`
}

func (l Logging) validate() []error {
	var errs []error
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		errs = append(errs, fmt.Errorf("level: invalid log level %q: %w", l.Level, err))
	}
	return errs
}

var loggingDefault = Logging{
	Level: "info",
}

type File struct {
	Dir string `koanf:"dir" json:"dir,omitempty"`
}

func (f File) validate() []error {
	var errs []error
	if f.Dir == "" {
		errs = append(errs, errors.New("dir: cannot be empty"))
	}
	return errs
}

type SQLite struct {
	Path string `koanf:"path" json:"path,omitempty"`
}

func (s SQLite) validate() []error {
	var errs []error
	if s.Path == "" {
		errs = append(errs, errors.New("path: cannot be empty"))
	}
	return errs
}

type Etcd struct {
	Endpoints          []string `koanf:"endpoints" json:"endpoints,omitempty"`
	KeyRoot            string   `koanf:"key_root" json:"key_root,omitempty"`
	Username           string   `koanf:"username" json:"username,omitempty"`
	Password           string   `koanf:"password" json:"password,omitempty"`
	LogLevel           string   `koanf:"log_level" json:"log_level,omitempty"`
	DialTimeoutSeconds int      `koanf:"dial_timeout_seconds" json:"dial_timeout_seconds,omitempty"`
	MaxTxnOps          int      `koanf:"max_txn_ops" json:"max_txn_ops,omitempty"`
}

func (e Etcd) validate() []error {
	var errs []error
	if len(e.Endpoints) == 0 {
		errs = append(errs, errors.New("endpoints: cannot be empty"))
	}
	if e.KeyRoot == "" {
		errs = append(errs, errors.New("key_root: cannot be empty"))
	}
	if _, err := zerolog.ParseLevel(e.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: invalid log level %q: %w", e.LogLevel, err))
	}
	if e.DialTimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("dial_timeout_seconds: must be positive, got %d", e.DialTimeoutSeconds))
	}
	if e.MaxTxnOps < 1 {
		errs = append(errs, fmt.Errorf("max_txn_ops: must be positive, got %d", e.MaxTxnOps))
	}
	return errs
}

var etcdDefault = Etcd{
	Endpoints:          []string{"http://127.0.0.1:2379"},
	KeyRoot:            "prefs-converter",
	LogLevel:           "fatal",
	DialTimeoutSeconds: 5,
	MaxTxnOps:          128,
}

type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

type Report struct {
	SilentOnSuccess        bool         `koanf:"silent_on_success" json:"silent_on_success,omitempty"`
	PromptRestartOnSuccess bool         `koanf:"prompt_restart_on_success" json:"prompt_restart_on_success,omitempty"`
	Output                 OutputFormat `koanf:"output" json:"output,omitempty"`
}

func (r Report) validate() []error {
	var errs []error
	switch r.Output {
	case OutputFormatText, OutputFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("output: unsupported output format %q", r.Output))
	}
	return errs
}

var reportDefault = Report{
	Output: OutputFormatText,
}

type StorageType string

const (
	StorageTypeFile   StorageType = "file"
	StorageTypeSQLite StorageType = "sqlite"
	StorageTypeEtcd   StorageType = "etcd"
)

type Config struct {
	LegacyDomain  string      `koanf:"legacy_domain" json:"legacy_domain,omitempty"`
	CurrentDomain string      `koanf:"current_domain" json:"current_domain,omitempty"`
	HistoryDomain string      `koanf:"history_domain" json:"history_domain,omitempty"`
	StorageType   StorageType `koanf:"storage_type" json:"storage_type,omitempty"`
	File          File        `koanf:"file" json:"file,omitzero"`
	SQLite        SQLite      `koanf:"sqlite" json:"sqlite,omitzero"`
	Etcd          Etcd        `koanf:"etcd" json:"etcd,omitzero"`
	Logging       Logging     `koanf:"logging" json:"logging,omitzero"`
	Report        Report      `koanf:"report" json:"report,omitzero"`
}

// Names returns the configured primary domain names.
func (c Config) Names() domain.Names {
	return domain.Names{
		Legacy:  c.LegacyDomain,
		Current: c.CurrentDomain,
	}
}

func (c Config) Validate() error {
	var errs []error
	if err := c.Names().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.HistoryDomain != "" {
		if err := domain.ValidateName(c.HistoryDomain); err != nil {
			errs = append(errs, fmt.Errorf("history_domain: %w", err))
		} else if c.HistoryDomain == c.LegacyDomain || c.HistoryDomain == c.CurrentDomain {
			errs = append(errs, fmt.Errorf("history_domain: %q is already used as a primary domain", c.HistoryDomain))
		}
	}
	for _, err := range c.Logging.validate() {
		errs = append(errs, fmt.Errorf("logging.%w", err))
	}
	for _, err := range c.Report.validate() {
		errs = append(errs, fmt.Errorf("report.%w", err))
	}
	switch c.StorageType {
	case StorageTypeFile:
		for _, err := range c.File.validate() {
			errs = append(errs, fmt.Errorf("file.%w", err))
		}
	case StorageTypeSQLite:
		for _, err := range c.SQLite.validate() {
			errs = append(errs, fmt.Errorf("sqlite.%w", err))
		}
	case StorageTypeEtcd:
		for _, err := range c.Etcd.validate() {
			errs = append(errs, fmt.Errorf("etcd.%w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("storage_type: unsupported storage type %q", c.StorageType))
	}
	return errors.Join(errs...)
}

// DefaultHistoryDomain holds the per-step results of each conversion.
const DefaultHistoryDomain = "net.macterm.PrefsConverter"

func DefaultConfig() (Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Config{}, fmt.Errorf("failed to determine default settings directory: %w", err)
	}
	dataDir := filepath.Join(configDir, "MacTerm")
	return Config{
		LegacyDomain:  domain.DefaultLegacyDomain,
		CurrentDomain: domain.DefaultCurrentDomain,
		HistoryDomain: DefaultHistoryDomain,
		StorageType:   StorageTypeFile,
		File: File{
			Dir: filepath.Join(dataDir, "Preferences"),
		},
		SQLite: SQLite{
			Path: filepath.Join(dataDir, "preferences.db"),
		},
		Etcd:    etcdDefault,
		Logging: loggingDefault,
		Report:  reportDefault,
	}, nil
}
