package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"

	"github.com/macterm/prefs-converter/converter/internal/domain"
)

// Export writes every stored setting to out as YAML. Data values are base64
// encoded.
func (a *App) Export(ctx context.Context, out io.Writer) error {
	s, err := a.store()
	if err != nil {
		return err
	}
	snap, err := domain.TakeSnapshot(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	doc := make(map[string]map[string]any, len(snap))
	for d, entries := range snap {
		values := make(map[string]any, len(entries))
		for k, v := range entries {
			values[k] = exportable(v.Plain())
		}
		doc[d] = values
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if _, err := out.Write(raw); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

func exportable(v any) any {
	switch v := v.(type) {
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	case map[string]any:
		for k, inner := range v {
			v[k] = exportable(inner)
		}
		return v
	default:
		return v
	}
}

// DomainSummary describes the size of one domain.
type DomainSummary struct {
	Domain string
	Keys   int
	Bytes  uint64
}

// Summarize returns a summary of every domain in sorted order.
func (a *App) Summarize(ctx context.Context) ([]DomainSummary, error) {
	s, err := a.store()
	if err != nil {
		return nil, err
	}
	domains, err := s.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	out := make([]DomainSummary, 0, len(domains))
	for _, d := range domains {
		keys, err := s.ListKeys(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("failed to list keys in %q: %w", d, err)
		}
		summary := DomainSummary{Domain: d, Keys: len(keys)}
		for _, k := range keys {
			v, err := s.Read(ctx, d, k)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s/%s: %w", d, k, err)
			}
			summary.Bytes += uint64(v.Size())
		}
		out = append(out, summary)
	}
	return out, nil
}

// PrintSummary writes summaries as an aligned table.
func PrintSummary(out io.Writer, summaries []DomainSummary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOMAIN\tKEYS\tSIZE")
	var keys int
	var size uint64
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%s\n", s.Domain, s.Keys, humanize.Bytes(s.Bytes))
		keys += s.Keys
		size += s.Bytes
	}
	fmt.Fprintf(w, "total\t%d\t%s\n", keys, humanize.Bytes(size))
	return w.Flush()
}
