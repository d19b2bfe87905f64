package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/simsaas/simsaas/cmd/console/api"
)

var (
	queueColumnTitles  = []string{"Queue ID", "State", "Mesh", "Retried", "Created", "Last Error"}
	queueColumnWeights = []int{3, 2, 1, 1, 2, 4}
	jobColumnTitles    = []string{"Job", "Status", "Mesh", "Started", "Duration", "Result"}
	jobColumnWeights   = []int{2, 2, 1, 2, 2, 4}
)

func entriesToRows(entries []api.QueueEntry) []table.Row {
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		mesh := "-"
		if e.MeshID != nil {
			mesh = strconv.FormatInt(*e.MeshID, 10)
		}
		lastErr := e.LastError
		if lastErr == "" {
			lastErr = "-"
		}
		rows[i] = table.Row{
			e.QueueID,
			formatQueueState(e.State),
			mesh,
			strconv.Itoa(e.Retried),
			relativeTime(e.Created()),
			lastErr,
		}
	}
	return rows
}

func jobsToRows(jobs []api.Job) []table.Row {
	rows := make([]table.Row, len(jobs))
	for i, j := range jobs {
		started := "-"
		if j.StartedAt != nil {
			started = relativeTime(*j.StartedAt)
		}
		result := "-"
		if j.Result != nil {
			result = j.Result.FileURL
		}
		rows[i] = table.Row{
			j.ID,
			formatJobStatus(j.Status),
			strconv.FormatInt(j.MeshID, 10),
			started,
			formatJobDuration(j),
			result,
		}
	}
	return rows
}

func formatJobStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SUCCESS":
		return "✓ Success"
	case "FAILED":
		return "✗ Failed"
	case "RUNNING":
		return "● Running"
	case "PENDING":
		return "○ Pending"
	default:
		return status
	}
}

func formatQueueState(state string) string {
	switch state {
	case "completed":
		return "✓ completed"
	case "failed":
		return "✗ failed"
	case "active":
		return "● active"
	default:
		return state
	}
}

func formatJobDuration(j api.Job) string {
	if j.StartedAt == nil {
		return "-"
	}
	if j.FinishedAt != nil {
		return formatDuration(j.FinishedAt.Sub(*j.StartedAt))
	}
	if strings.EqualFold(j.Status, "RUNNING") {
		return formatDuration(time.Since(*j.StartedAt))
	}
	return "-"
}

func formatDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "-"
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func createTable(titles []string, widths []int, focused bool) table.Model {
	tbl := table.New(
		table.WithColumns(buildColumns(titles, widths)),
		table.WithHeight(10),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true)

	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("63")).
		Bold(false)

	tbl.SetStyles(styles)
	if focused {
		tbl.Focus()
	}
	return tbl
}

func buildColumns(titles []string, widths []int) []table.Column {
	columns := make([]table.Column, len(titles))
	for i, title := range titles {
		width := 12
		if i < len(widths) && widths[i] > 0 {
			width = widths[i]
		}
		columns[i] = table.Column{Title: title, Width: width}
	}

	return columns
}

func distributeWidths(total int, weights []int) []int {
	if len(weights) == 0 {
		return nil
	}

	if total <= 0 {
		total = len(weights) * 12
	}

	// one character separates adjacent columns
	contentTotal := total - (len(weights) - 1)
	if contentTotal < len(weights)*8 {
		contentTotal = len(weights) * 8
	}

	sum := 0
	for _, w := range weights {
		sum += w
	}

	minWidth := 8
	widths := make([]int, len(weights))
	remaining := contentTotal

	for i, weight := range weights {
		if i == len(weights)-1 {
			widths[i] = max(remaining, minWidth)
			break
		}

		portion := max(weight*contentTotal/sum, minWidth)
		minRemaining := minWidth * (len(weights) - i - 1)
		if remaining-portion < minRemaining {
			portion = max(remaining-minRemaining, minWidth)
		}

		widths[i] = portion
		remaining -= portion
	}

	return widths
}

func renderLogLines(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%4d  %s\n", i+1, line)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
