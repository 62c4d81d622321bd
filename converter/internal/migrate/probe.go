package migrate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/macterm/prefs-converter/converter/internal/domain"
)

// Source says where the schema version was found.
type Source string

const (
	SourceNone    Source = "none"
	SourceLegacy  Source = "legacy"
	SourceCurrent Source = "current"
)

// The legacy domain was abandoned by version 6.
const lastLegacyVersion = 5

// Probe is the schema version of the settings on disk.
type Probe struct {
	Version int    `json:"version"`
	Source  Source `json:"source"`
}

// ProbeVersion reads the schema version from the current domain, then from the
// legacy domain. Missing settings are version 0. Only store failures are
// returned as errors.
func ProbeVersion(ctx context.Context, store domain.Store, names domain.Names, logger zerolog.Logger) (Probe, error) {
	logger = logger.With().Str("component", "version_probe").Logger()

	v, ok, err := readVersion(ctx, store, names.Current, logger)
	if err != nil {
		return Probe{}, err
	}
	if ok {
		if v <= lastLegacyVersion {
			logger.Warn().
				Int("version", v).
				Msg("current domain holds a version that predates it, an earlier conversion was probably interrupted")
		}
		return Probe{Version: v, Source: SourceCurrent}, nil
	}

	v, ok, err = readVersion(ctx, store, names.Legacy, logger)
	if err != nil {
		return Probe{}, err
	}
	if ok {
		if v > lastLegacyVersion {
			logger.Warn().
				Int("version", v).
				Msg("legacy domain holds a version that should only appear in the current domain")
		}
		return Probe{Version: v, Source: SourceLegacy}, nil
	}

	return Probe{Version: 0, Source: SourceNone}, nil
}

func readVersion(ctx context.Context, store domain.Store, name string, logger zerolog.Logger) (int, bool, error) {
	value, ok, err := domain.ReadOptional(ctx, store, name, domain.VersionKey)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read version from %q: %w", name, err)
	}
	if !ok {
		return 0, false, nil
	}
	v, err := value.AsInt()
	if err != nil {
		logger.Warn().Err(err).Str("domain", name).Msg("ignoring version of the wrong kind")
		return 0, false, nil
	}
	if v < 0 {
		logger.Warn().Int64("version", v).Str("domain", name).Msg("ignoring negative version")
		return 0, false, nil
	}
	return int(v), true, nil
}
