package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/simsaas/simsaas/cmd/console/api"
)

const queueWindow = 49

func fetchData(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		start, end := 0, queueWindow
		entries, err := client.Monitor().List(ctx, api.ListOptions{Start: &start, End: &end})
		if err != nil {
			return errMsg(err)
		}

		jobs, err := client.Jobs().List(ctx)
		if err != nil {
			return errMsg(err)
		}

		return dataLoadedMsg{entries: entries, jobs: jobs}
	}
}

func fetchLogs(client *api.Client, queueID string) tea.Cmd {
	return func() tea.Msg {
		page, err := client.Monitor().Logs(context.Background(), queueID, 0, -1)
		if err != nil {
			return logsErrMsg{queueID: queueID, err: err}
		}
		return logsLoadedMsg{queueID: queueID, page: page}
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

type refreshMsg struct{}

type dataLoadedMsg struct {
	entries []api.QueueEntry
	jobs    []api.Job
}

type errMsg error

type logsLoadedMsg struct {
	queueID string
	page    *api.LogPage
}

type logsErrMsg struct {
	queueID string
	err     error
}
