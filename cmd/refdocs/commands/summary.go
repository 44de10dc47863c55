package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"git.home.luguber.info/inful/refdocs/internal/generate"
	"git.home.luguber.info/inful/refdocs/internal/manifest"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#DDDDDD"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	statusColors = map[manifest.Status]lipgloss.Color{
		manifest.StatusSuccess: lipgloss.Color("#5FB85F"),
		manifest.StatusPartial: lipgloss.Color("#E5C07B"),
		manifest.StatusFailed:  lipgloss.Color("#FF6B6B"),
	}
)

// Summary renders the outcome of a run as a bordered block.
func Summary(r *generate.Result) string {
	status := lipgloss.NewStyle().Bold(true).Foreground(statusColors[r.Status]).Render(string(r.Status))

	lines := []string{row("status", status)}
	if r.RunID != "" {
		lines = append(lines, row("run", r.RunID))
	}
	if w := r.Write; w != nil {
		lines = append(lines,
			row("pages", fmt.Sprint(len(w.PagesWritten))),
			row("failed", fmt.Sprint(len(w.Failed))),
			row("collisions", fmt.Sprint(len(w.Collisions))),
			row("purged", fmt.Sprint(len(w.PurgedDirs))),
		)
	}
	if len(r.BrokenLinks) > 0 {
		lines = append(lines, row("broken links", fmt.Sprint(len(r.BrokenLinks))))
	}
	if r.ManifestPath != "" {
		lines = append(lines, row("manifest", r.ManifestPath))
	}
	if r.ReportPath != "" {
		lines = append(lines, row("report", r.ReportPath))
	}
	lines = append(lines, row("duration", r.Duration.Round(time.Millisecond).String()))

	if w := r.Write; w != nil {
		for _, f := range w.Failed {
			lines = append(lines, "  "+f.Path+": "+f.Message)
		}
		for _, c := range w.Collisions {
			lines = append(lines, "  "+c.Error())
		}
	}
	for _, l := range r.BrokenLinks {
		lines = append(lines, "  "+l.String())
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}
