package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/helmcode/desktop-doctor/pkg/model"
	"gopkg.in/yaml.v3"
)

const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists the accepted values of the output flag.
var Formats = []string{FormatHuman, FormatJSON, FormatYAML}

func ValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// DisplayReport writes the report to w. Any write error is returned.
func DisplayReport(w io.Writer, report *model.Report, format string) error {
	switch format {
	case FormatJSON:
		return displayJSON(w, report)
	case FormatYAML:
		return displayYAML(w, report)
	case FormatHuman, "":
		return displayHuman(w, report)
	}
	return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

func displayJSON(w io.Writer, report *model.Report) error {
	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func displayYAML(w io.Writer, report *model.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

// printer remembers the first write error so rendering code can stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(c *color.Color, format string, args ...any) {
	if p.err != nil {
		return
	}
	if c != nil {
		_, p.err = c.Fprintf(p.w, format, args...)
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func displayHuman(w io.Writer, report *model.Report) error {
	p := &printer{w: w}

	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	white := color.New(color.FgWhite, color.Bold)

	p.printf(nil, "\n")

	if len(report.Checks) > 0 {
		p.printf(cyan, "🔍 CHECKS (%s):\n", report.Platform)
		width := 0
		for _, c := range report.Checks {
			width = max(width, len(c.Name))
		}
		for _, c := range report.Checks {
			p.printf(statusColor(c.Status), "   %s ", statusIcon(c.Status))
			p.printf(nil, "%-*s  %s", width, c.Name, c.Title)
			if c.Detail != "" {
				p.printf(nil, " - %s", color.HiBlackString(c.Detail))
			}
			p.printf(nil, "\n")
		}
		p.printf(nil, "\n")
	}

	if len(report.Findings) > 0 {
		p.printf(yellow, "⚠️  FINDINGS:\n")
		for i, f := range report.Findings {
			cause := f.Cause
			if !f.Classified {
				cause = "unclassified issue"
			}
			p.printf(nil, "   %d. %s %s (%s)\n", i+1, findingIcon(f), cause, f.Source)
			if f.Symptom != "" {
				p.printf(nil, "      Symptom: %s\n", color.YellowString(f.Symptom))
			}
			for _, step := range f.Remediation {
				p.printf(nil, "      Fix: %s\n", color.GreenString(step))
			}
			p.printf(nil, "\n")
		}
	} else if p.err == nil {
		p.printf(color.New(color.FgGreen, color.Bold), "✓ No problems found\n\n")
	}

	s := report.Summary
	p.printf(white, "📊 SUMMARY: ")
	p.printf(nil, "%d passed, %d failed, %d unknown, %d unclassified\n", s.Passed, s.Failed, s.Unknown, s.Unclassified)

	p.printf(nil, "%s\n", strings.Repeat("─", 80))
	p.printf(nil, "💡 %s\n", color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
	return p.err
}

func statusColor(s model.Status) *color.Color {
	switch s {
	case model.StatusPass:
		return color.New(color.FgGreen)
	case model.StatusFail:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow)
	}
}

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusPass:
		return "✓"
	case model.StatusFail:
		return "✗"
	default:
		return "?"
	}
}

func findingIcon(f model.Finding) string {
	if !f.Classified {
		return "⚪"
	}
	if f.Source == model.InputSource {
		return "🔹"
	}
	return "🔴"
}
