package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ramkansal/tagscout/pkg/plugin"
)

// TextWriter writes a discovery result to a plain text file, grouped by
// consent category, mirroring the terminal output without colors.
type TextWriter struct {
	path   string
	target string
}

// NewTextWriter creates a new plain-text output writer. target is the URL or
// file that was scanned and is only used for the header.
func NewTextWriter(path, target string) *TextWriter {
	return &TextWriter{path: path, target: target}
}

func (w *TextWriter) Name() string { return "text" }

func (w *TextWriter) Write(result *plugin.DiscoveryResult) error {
	return os.WriteFile(w.path, []byte(RenderText(result, w.target)), 0644)
}

// RenderText formats result as human-readable text.
func RenderText(result *plugin.DiscoveryResult, target string) string {
	var b strings.Builder

	b.WriteString("\n  TAGSCOUT\n")
	b.WriteString("  Third-party script discovery\n")
	b.WriteString("  " + strings.Repeat("-", 58) + "\n\n")

	if target != "" {
		b.WriteString(fmt.Sprintf("  Target:  %s\n", target))
	}
	b.WriteString(fmt.Sprintf("  Fetched: %s\n\n", result.FetchedAt.Format(time.RFC1123)))

	buckets := result.ByCategory()
	for _, cat := range plugin.Categories() {
		scripts := buckets[cat]
		if len(scripts) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  [%s]\n", cat))
		for _, s := range scripts {
			b.WriteString(fmt.Sprintf("      +-- %s (%s)\n", s.Name, s.ID))
			b.WriteString(indent(s.ScriptCode, "          "))
			if s.BodyCode != "" {
				b.WriteString("          body:\n")
				b.WriteString(indent(s.BodyCode, "          "))
			}
		}
		b.WriteString("\n")
	}

	for _, warn := range result.Warnings {
		b.WriteString("  ! " + warn + "\n")
	}

	b.WriteString("\n  " + strings.Repeat("-", 50) + "\n")
	b.WriteString(fmt.Sprintf("  %d script(s), %d warning(s)\n", len(result.Scripts), len(result.Warnings)))
	if summary := categoryCounts(result); summary != "" {
		b.WriteString("    Categories: " + summary + "\n")
	}
	b.WriteString("\n")

	return b.String()
}

// ---------- helpers ----------

func categoryCounts(result *plugin.DiscoveryResult) string {
	buckets := result.ByCategory()
	var parts []string
	for _, cat := range plugin.Categories() {
		if n := len(buckets[cat]); n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", cat, n))
		}
	}
	return strings.Join(parts, ", ")
}

func indent(s, prefix string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		b.WriteString(prefix + line + "\n")
	}
	return b.String()
}
