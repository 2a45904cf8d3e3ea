package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/seedbloom/internal/metrics"
	"github.com/raphaelgruber/seedbloom/internal/models"
)

// Theme holds the color scheme for command output.
type Theme struct {
	ID      lipgloss.Color
	Tag     lipgloss.Color
	Score   lipgloss.Color
	Hint    lipgloss.Color
	Heading lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	ID:      lipgloss.Color("#5FAFD7"), // light blue
	Tag:     lipgloss.Color("#FFFFFF"), // white
	Score:   lipgloss.Color("#00D787"), // green
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Heading: lipgloss.Color("#D7AF5F"), // amber
}

func (t Theme) idStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.ID)
}

func (t Theme) tagStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Tag).Bold(true)
}

func (t Theme) scoreStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Score)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) headingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Heading).Bold(true).Underline(true)
}

const barWidth = 10

// scoreBar draws a [0,1] value as a fixed-width bar.
func scoreBar(v float64) string {
	n := int(v*barWidth + 0.5)
	n = max(0, min(barWidth, n))
	return strings.Repeat("█", n) + strings.Repeat("░", barWidth-n)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHits(w io.Writer, t Theme, hits []models.Hit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No seeds stored.")
		return
	}
	fmt.Fprintf(w, "Found %d seeds:\n\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(w, "%d. %s %s %s  %s\n", i+1,
			t.scoreStyle().Render(scoreBar(h.Score)),
			t.scoreStyle().Render(fmt.Sprintf("%.3f", h.Score)),
			t.idStyle().Render(models.ShortID(h.ID)),
			t.tagStyle().Render(h.Tag))
	}
}

func printSeed(w io.Writer, t Theme, s models.Seed, hint string) {
	fmt.Fprintln(w, t.headingStyle().Render(s.Tag))
	fmt.Fprintf(w, "ID:       %s\n", t.idStyle().Render(s.ID))
	fmt.Fprintf(w, "Weight:   %s %.3f\n", t.scoreStyle().Render(scoreBar(s.Weight)), s.Weight)
	fmt.Fprintf(w, "Accessed: %d times, last %s\n", s.AccessCount, s.LastAccessedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Created:  %s\n", s.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Hint:     %s\n", t.hintStyle().Render(hint))

	parts := make([]string, len(s.Vector))
	for i, v := range s.Vector {
		parts[i] = fmt.Sprintf("%+.3f", v)
	}
	fmt.Fprintf(w, "Vector:   [%s]\n", strings.Join(parts, " "))
}

func printSeedList(w io.Writer, t Theme, seeds []models.Seed) {
	if len(seeds) == 0 {
		fmt.Fprintln(w, "No seeds stored.")
		return
	}
	for _, s := range seeds {
		fmt.Fprintf(w, "%s  %s %.2f  %s\n",
			t.idStyle().Render(models.ShortID(s.ID)),
			t.scoreStyle().Render(scoreBar(s.Weight)),
			s.Weight,
			t.tagStyle().Render(s.Tag))
	}
}

// printBloom renders the bloom as a tree under its root, then the summary.
func printBloom(w io.Writer, t Theme, res models.BloomResult) {
	fmt.Fprintf(w, "%s %s\n", t.idStyle().Render(models.ShortID(res.RootID)), t.tagStyle().Render(res.RootTag))

	children := make(map[string][]models.BloomNode)
	for _, n := range res.Nodes {
		children[n.Parent] = append(children[n.Parent], n)
	}

	var walk func(parent string)
	walk = func(parent string) {
		for _, n := range children[parent] {
			indent := strings.Repeat("  ", n.Level)
			fmt.Fprintf(w, "%s└─ %s %s %s\n", indent,
				t.scoreStyle().Render(fmt.Sprintf("%.3f", n.Score)),
				t.idStyle().Render(models.ShortID(n.ID)),
				n.Tag)
			walk(n.ID)
		}
	}
	walk(res.RootID)

	if len(res.Nodes) == 0 {
		fmt.Fprintln(w, t.hintStyle().Render("  (no related seeds)"))
	}
	fmt.Fprintf(w, "\nSummary: %s\n", res.Summary)
	fmt.Fprintln(w, t.hintStyle().Render(fmt.Sprintf("depth %d, %d related, %d comparisons", res.Depth, len(res.Related), res.Scans)))
}

// printStats displays memory size and runtime statistics.
func printStats(w io.Writer, t Theme, seeds []models.Seed, capacity int, snap metrics.Snapshot) {
	var total float64
	for _, s := range seeds {
		total += s.Weight
	}
	avg := 0.0
	if len(seeds) > 0 {
		avg = total / float64(len(seeds))
	}

	fmt.Fprintln(w, t.headingStyle().Render("Memory"))
	fmt.Fprintf(w, "Seeds: %d / %d\n", len(seeds), capacity)
	fmt.Fprintf(w, "Weight: avg %.3f, total %.3f\n", avg, total)

	fmt.Fprintln(w)
	fmt.Fprintln(w, t.headingStyle().Render("Runtime (this process)"))
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", snap.UptimeSeconds)
	for _, op := range snap.Operations {
		fmt.Fprintf(w, "\n%s:\n", op.Name)
		printOpStats(w, op)
	}
	if len(snap.Counters) > 0 {
		fmt.Fprintln(w)
		for _, name := range sortedCounterNames(snap.Counters) {
			fmt.Fprintf(w, "%-18s %d\n", name+":", snap.Counters[name])
		}
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Errors: %d, Total: %dµs\n", op.Count, op.Errors, op.TotalTimeUs)
	fmt.Fprintf(w, "  Time: avg %.1fµs, min %dµs, max %dµs\n", op.AvgTimeUs, op.MinTimeUs, op.MaxTimeUs)
}

func sortedCounterNames(m map[string]int64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
