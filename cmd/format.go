package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"rfamscan/internal/batch"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#60F281"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4473"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// printSummary writes the end-of-batch report. Failed pairs are listed
// individually; successful ones only counted.
func printSummary(w io.Writer, s *batch.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Batch"), s.RunID)
	fmt.Fprintln(w, dimStyle.Render("─────────────────────────────────────────────────"))
	fmt.Fprintf(w, "%s via %s, %d models, %d pairs in %s\n",
		s.Method, s.Backend, s.Models, s.Pairs, formatDuration(s.Duration()))

	verb := "completed"
	if s.Backend == "cluster" {
		verb = "submitted"
	}
	fmt.Fprintf(w, "%s  %s\n",
		okStyle.Render(fmt.Sprintf("%d %s", s.Succeeded(), verb)),
		failStyle.Render(fmt.Sprintf("%d failed", s.Failed)))

	if s.Interrupted {
		fmt.Fprintf(w, "%s after %d of %d pairs\n", failStyle.Render("Interrupted"), s.Dispatched, s.Pairs)
	}

	if s.Failed == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  PAIR\tEXIT\tERROR")
	for _, r := range s.Results {
		if !r.Failed() {
			continue
		}
		fmt.Fprintf(tw, "  %s\t%d\t%s\n", r.PairID, r.ExitCode, truncate(r.Error, 60))
	}
	tw.Flush()
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if minutes > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dh", hours)
}

// shortID returns the first block of a run id
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
