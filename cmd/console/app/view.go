package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var sectionNames = map[section]string{
	sectionQueue: "Queue",
	sectionJobs:  "Jobs",
}

// View renders the interface.
func (m Model) View() string {
	tabs := renderTabsBar(m.active, m.viewportWidth)
	footer := barStyle.Render("[1/2] switch  [tab] cycle  [l] logs  [r] reload  [t] " + m.themeLabel() + "  [q] quit")

	var body string

	switch m.state {
	case statusLoading:
		body = centerText(fmt.Sprintf("%s Loading data…", m.spinner.View()))
	case statusError:
		body = boxStyle.Render("Failed to load data: " + m.err.Error())
	case statusReady:
		switch m.active {
		case sectionJobs:
			body = m.renderTablePane(m.jobs, jobColumnTitles, jobColumnWeights)
		default:
			body = m.renderTablePane(m.queue, queueColumnTitles, queueColumnWeights)
		}
	}

	screen := lipgloss.JoinVertical(lipgloss.Left, tabs, body, footer)
	if m.showLogsModal {
		return m.renderLogsModal(screen)
	}
	return screen
}

func (m Model) renderTablePane(tbl table.Model, titles []string, weights []int) string {
	available := m.viewportWidth
	if available <= 0 {
		available = 80
	}
	available = max(20, available-2)

	innerWidth := max(available-activeBox.GetHorizontalFrameSize(), 20)
	tbl.SetColumns(buildColumns(titles, distributeWidths(innerWidth, weights)))
	tbl.SetWidth(innerWidth)

	if len(tbl.Rows()) == 0 {
		return activeBox.Width(innerWidth).Render(tbl.View() + "\n" + placeholder.Render("Nothing here yet."))
	}

	return activeBox.Width(innerWidth).Render(tbl.View())
}

func renderTabs(active section) string {
	sections := []section{sectionQueue, sectionJobs}
	tabs := make([]string, len(sections))
	for i, sec := range sections {
		label := fmt.Sprintf("%d %s", i+1, sectionNames[sec])
		if sec == active {
			tabs[i] = tabActive.Render(label)
		} else {
			tabs[i] = tabInactive.Render(label)
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func renderTabsBar(active section, totalWidth int) string {
	tabs := renderTabs(active)
	logo := logoStyle.Render("┌────┐\n│ Ss │\n└────┘")
	if totalWidth <= 0 {
		return lipgloss.JoinHorizontal(lipgloss.Top, tabs, logo)
	}

	logoWidth := lipgloss.Width(logo)
	leftWidth := max(totalWidth-logoWidth, 0)
	left := lipgloss.NewStyle().Width(leftWidth).MaxWidth(leftWidth).Render(tabs)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, logo)
}

func centerText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return lipgloss.NewStyle().Align(lipgloss.Center).Render(value)
}

func (m Model) renderLogsModal(background string) string {
	width := m.viewportWidth
	height := m.viewportHeight
	if width <= 0 {
		width = lipgloss.Width(background)
	}
	if height <= 0 {
		height = lipgloss.Height(background)
	}

	modalWidth := min(max(40, width-10), max(width-4, 20))
	modalHeight := min(max(12, height-6), max(height-2, 8))

	m.logsViewport.Width = max(modalWidth-4, 20)
	m.logsViewport.Height = max(modalHeight-6, 4)

	title := modalTitle.Render(fmt.Sprintf("Logs (%s)", m.logsQueueID))
	hint := modalHint.Render("[esc] close  [r] reload  [↑/↓] scroll")

	var body string
	switch {
	case m.logsErr != nil:
		body = boxStyle.Render(fmt.Sprintf("Error: %s", m.logsErr.Error()))
	case m.logsLoading:
		body = centerText(fmt.Sprintf("%s Loading logs…", m.spinner.View()))
	case strings.TrimSpace(m.logContent) == "":
		body = placeholder.Render("No log lines recorded for this entry.")
	default:
		body = m.logsViewport.View() + "\n" + modalHint.Render(fmt.Sprintf("%d lines", m.logCount))
	}

	modal := modalStyle.Width(modalWidth).Height(modalHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint),
	)

	return lipgloss.Place(width, height,
		lipgloss.Center, lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("235")))
}
