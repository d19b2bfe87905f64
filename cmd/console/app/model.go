package app

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/simsaas/simsaas/cmd/console/api"
)

type status int

type section int

const (
	statusLoading status = iota
	statusReady
	statusError
)

const (
	sectionQueue section = iota
	sectionJobs
)

const sectionCount = 2

const refreshInterval = time.Second

func (s section) next() section {
	return section((int(s) + 1) % sectionCount)
}

func (s section) prev() section {
	return section((int(s) + sectionCount - 1) % sectionCount)
}

// Model represents the Bubble Tea program state.
type Model struct {
	client  *api.Client
	spinner spinner.Model
	state   status
	err     error
	active  section

	queue   table.Model
	jobs    table.Model
	entries []api.QueueEntry
	records []api.Job

	showLogsModal bool
	logsQueueID   string
	logsLoading   bool
	logsErr       error
	logContent    string
	logCount      int64
	logsViewport  viewport.Model

	themeIndex int
	themeName  string

	viewportWidth  int
	viewportHeight int
}

// New creates the root model with dependency references.
func New(client *api.Client) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		client:       client,
		spinner:      sp,
		state:        statusLoading,
		active:       sectionQueue,
		queue:        createTable(queueColumnTitles, []int{14, 10, 10, 10, 20, 24}, true),
		jobs:         createTable(jobColumnTitles, []int{10, 10, 10, 20, 20, 30}, false),
		logsViewport: viewport.New(80, 20),
	}
	m.setTheme(0)
	return m
}

// Init bootstraps async fetch and spinner tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchData(m.client), scheduleRefresh())
}

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showLogsModal {
			return m.updateLogsModal(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.state = statusLoading
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, fetchData(m.client))
		case "1":
			m = m.activate(sectionQueue)
		case "2":
			m = m.activate(sectionJobs)
		case "tab":
			m = m.activate(m.active.next())
		case "shift+tab":
			m = m.activate(m.active.prev())
		case "t":
			m.cycleTheme()
			return m, nil
		case "l", "enter":
			if id := m.selectedQueueID(); id != "" && m.state == statusReady {
				m.showLogsModal = true
				m.logsQueueID = id
				m.logsLoading = true
				m.logsErr = nil
				m.logContent = ""
				return m, tea.Batch(m.spinner.Tick, fetchLogs(m.client, id))
			}
		}
	case tea.WindowSizeMsg:
		m.viewportWidth = msg.Width
		m.viewportHeight = msg.Height
		height := max(5, msg.Height-7)
		m.queue.SetHeight(height)
		m.jobs.SetHeight(height)
	case spinner.TickMsg:
		if m.state != statusLoading && !m.logsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case refreshMsg:
		return m, tea.Batch(fetchData(m.client), scheduleRefresh())
	case dataLoadedMsg:
		m.state = statusReady
		m.err = nil
		m.entries = msg.entries
		m.records = msg.jobs
		m.queue.SetRows(entriesToRows(msg.entries))
		m.jobs.SetRows(jobsToRows(msg.jobs))
		return m, nil
	case errMsg:
		m.state = statusError
		m.err = msg
		return m, nil
	case logsLoadedMsg:
		if msg.queueID != m.logsQueueID {
			return m, nil
		}
		m.logsLoading = false
		m.logsErr = nil
		m.logContent = renderLogLines(msg.page.Logs)
		m.logCount = msg.page.Count
		m.logsViewport.SetContent(m.logContent)
		m.logsViewport.GotoBottom()
		return m, nil
	case logsErrMsg:
		if msg.queueID != m.logsQueueID {
			return m, nil
		}
		m.logsLoading = false
		m.logsErr = msg.err
		return m, nil
	}

	if m.state != statusReady {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.active {
	case sectionQueue:
		m.queue, cmd = m.queue.Update(msg)
	case sectionJobs:
		m.jobs, cmd = m.jobs.Update(msg)
	}

	return m, cmd
}

func (m Model) updateLogsModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q", "l":
		m.showLogsModal = false
		m.logsQueueID = ""
		m.logsLoading = false
		return m, nil
	case "r":
		m.logsLoading = true
		return m, tea.Batch(m.spinner.Tick, fetchLogs(m.client, m.logsQueueID))
	}

	var cmd tea.Cmd
	m.logsViewport, cmd = m.logsViewport.Update(msg)
	return m, cmd
}

func (m Model) activate(sec section) Model {
	m.queue.Blur()
	m.jobs.Blur()
	switch sec {
	case sectionQueue:
		m.queue.Focus()
	case sectionJobs:
		m.jobs.Focus()
	}
	m.active = sec
	return m
}

// selectedQueueID resolves the queue entry behind the highlighted row.
// Job rows map onto their queue id.
func (m Model) selectedQueueID() string {
	switch m.active {
	case sectionQueue:
		idx := m.queue.Cursor()
		if idx >= 0 && idx < len(m.entries) {
			return m.entries[idx].QueueID
		}
	case sectionJobs:
		idx := m.jobs.Cursor()
		if idx >= 0 && idx < len(m.records) {
			return "job_" + m.records[idx].ID
		}
	}
	return ""
}
