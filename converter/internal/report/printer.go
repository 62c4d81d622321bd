package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Format selects how reports are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Printer writes reports for the host process.
type Printer struct {
	out      io.Writer
	format   Format
	critical *color.Color
	info     *color.Color
	warning  *color.Color
	button   *color.Color
}

func NewPrinter(out io.Writer, format Format) *Printer {
	return &Printer{
		out:      out,
		format:   format,
		critical: color.New(color.FgRed, color.Bold),
		info:     color.New(color.FgGreen),
		warning:  color.New(color.FgYellow),
		button:   color.New(color.FgCyan),
	}
}

// DisableColor turns off escape sequences regardless of the terminal.
func (p *Printer) DisableColor() {
	for _, c := range []*color.Color{p.critical, p.info, p.warning, p.button} {
		c.DisableColor()
	}
}

func (p *Printer) Print(r *Report) error {
	if p.format == FormatJSON {
		return p.printJSON(r)
	}
	return p.printText(r)
}

func (p *Printer) printJSON(r *Report) error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := fmt.Fprintln(p.out, string(raw)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (p *Printer) printText(r *Report) error {
	var b strings.Builder
	for _, w := range r.Warnings {
		p.warning.Fprintf(&b, "warning: %s\n", w)
	}
	switch r.Notice.Severity {
	case SeverityCritical:
		p.critical.Fprintln(&b, r.Notice.Message)
	case SeverityInfo:
		p.info.Fprintln(&b, r.Notice.Message)
	}
	if r.Notice.Severity != SeveritySilent {
		fmt.Fprintln(&b, r.Notice.Informative)
		p.button.Fprintf(&b, "[%s]\n", r.Notice.Button)
	}
	if len(r.Changes) > 0 {
		fmt.Fprintf(&b, "changes (%d):\n", len(r.Changes))
		for _, op := range r.Changes {
			fmt.Fprintf(&b, "  %s %s\n", op.Type, op.Path)
		}
	}
	if r.Error != "" {
		for i, line := range strings.Split(r.Error, "\n") {
			if i == 0 {
				p.critical.Fprintf(&b, "error: %s\n", line)
			} else {
				p.critical.Fprintf(&b, "  %s\n", line)
			}
		}
	}
	if _, err := io.WriteString(p.out, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
