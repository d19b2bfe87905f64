package monitor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/simsaas/simsaas/cmd/console/api"
	"github.com/simsaas/simsaas/cmd/output"
	"github.com/spf13/cobra"
)

// Cmd is the parent command for queue inspection.
var Cmd = &cobra.Command{
	Use:     "monitor",
	Aliases: []string{"queue", "q"},
	Short:   "Inspect the job queue",
}

var (
	states    []string
	start     int
	end       int
	ascending bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List queue entries",
	Example: "simsaas monitor list --states active,failed --end 49",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		opts := api.ListOptions{States: states, Ascending: ascending}
		if cmd.Flags().Changed("start") {
			opts.Start = &start
		}
		if cmd.Flags().Changed("end") {
			opts.End = &end
		}

		entries, err := client.Monitor().List(cmd.Context(), opts)
		if err != nil {
			return err
		}

		return output.Cmd(cmd, entries, tabular(entries))
	},
}

var (
	logStart int64
	logEnd   int64
)

var logsCmd = &cobra.Command{
	Use:     "logs QUEUE_ID",
	Short:   "Print the log lines of a queue entry",
	Example: "simsaas monitor logs job_42",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		page, err := client.Monitor().Logs(cmd.Context(), args[0], logStart, logEnd)
		if err != nil {
			return err
		}

		tab := output.Tabular{Headers: []string{"#", "Line"}}
		for i, line := range page.Logs {
			tab.Rows = append(tab.Rows, []string{strconv.FormatInt(logStart+int64(i)+1, 10), line})
		}

		return output.Cmd(cmd, page, tab)
	},
}

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "List worker processes attached to the queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		resp, err := client.Monitor().Workers(cmd.Context())
		if err != nil {
			return err
		}

		tab := output.Tabular{Headers: []string{"ID", "Host", "PID", "Status", "Active", "Started"}}
		for _, w := range resp.Workers {
			tab.Rows = append(tab.Rows, []string{
				w.ID,
				w.Host,
				strconv.Itoa(w.PID),
				w.Status,
				fmt.Sprintf("%d/%d", w.Active, w.Concurrency),
				w.Started.Local().Format(time.DateTime),
			})
		}

		return output.Cmd(cmd, resp, tab)
	},
}

func init() {
	listCmd.Flags().StringSliceVarP(&states, "states", "s", nil, "Queue states to include (default all)")
	listCmd.Flags().IntVar(&start, "start", 0, "First entry, 0-based")
	listCmd.Flags().IntVar(&end, "end", 19, "Last entry, inclusive; -1 for all")
	listCmd.Flags().BoolVar(&ascending, "asc", false, "Oldest first")

	logsCmd.Flags().Int64Var(&logStart, "start", 0, "First line, 0-based")
	logsCmd.Flags().Int64Var(&logEnd, "end", -1, "Last line, inclusive; negative counts from the end")

	for _, c := range []*cobra.Command{listCmd, logsCmd, workersCmd} {
		output.AddFlag(c)
		Cmd.AddCommand(c)
	}
}

func tabular(entries []api.QueueEntry) output.Tabular {
	tab := output.Tabular{Headers: []string{"Queue ID", "State", "Job", "Mesh", "Retried", "Created", "Last Error"}}
	for _, e := range entries {
		mesh := "-"
		if e.MeshID != nil {
			mesh = strconv.FormatInt(*e.MeshID, 10)
		}
		tab.Rows = append(tab.Rows, []string{
			e.QueueID,
			e.State,
			e.JobID,
			mesh,
			strconv.Itoa(e.Retried),
			e.Created().Local().Format(time.DateTime),
			e.LastError,
		})
	}
	return tab
}
