package job

import (
	"fmt"
	"strconv"
	"time"

	"github.com/simsaas/simsaas/cmd/console/api"
	"github.com/simsaas/simsaas/cmd/output"
	"github.com/simsaas/simsaas/pkg/ident"
	"github.com/simsaas/simsaas/pkg/jsonutil"
	"github.com/spf13/cobra"
)

// Cmd is the parent command for job operations.
var Cmd = &cobra.Command{
	Use:     "job",
	Aliases: []string{"jobs", "j"},
	Short:   "Submit mesh jobs and inspect their status",
}

var meshID string

var submitCmd = &cobra.Command{
	Use:     "submit [COUNT]",
	Short:   "Submit one or more jobs for a mesh",
	Example: "simsaas job submit -m 1 10",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mid, err := ident.Parse(meshID)
		if err != nil {
			return err
		}

		count := 1
		if len(args) == 1 {
			if count, err = strconv.Atoi(args[0]); err != nil || count < 1 {
				return fmt.Errorf("count must be a positive integer, got %q", args[0])
			}
		}

		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		subs := make([]api.Submission, 0, count)
		for range count {
			sub, err := client.Jobs().Submit(cmd.Context(), mid)
			if err != nil {
				if len(subs) > 0 {
					_ = output.Cmd(cmd, subs, submissions(subs))
				}
				return err
			}
			subs = append(subs, *sub)
		}

		return output.Cmd(cmd, subs, submissions(subs))
	},
}

var statusCmd = &cobra.Command{
	Use:     "status ID",
	Aliases: []string{"get"},
	Short:   "Show the stored status of a job",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		job, err := client.Jobs().Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return output.Cmd(cmd, job, jobs([]api.Job{*job}))
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the most recent jobs",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		list, err := client.Jobs().List(cmd.Context())
		if err != nil {
			return err
		}

		return output.Cmd(cmd, list, jobs(list))
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show success rate and durations across jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		st, err := client.Jobs().Stats(cmd.Context())
		if err != nil {
			return err
		}

		tab := output.Tabular{Headers: []string{"Metric", "Value"}}
		tab.Rows = append(tab.Rows,
			[]string{"total", strconv.FormatInt(st.Jobs.Total, 10)},
			[]string{"last 24h", strconv.FormatInt(st.Jobs.Recent, 10)},
			[]string{"success rate", fmt.Sprintf("%.1f%%", st.Jobs.SuccessRate*100)},
			[]string{"avg duration", fmt.Sprintf("%.2fs", st.Jobs.AvgDurationSeconds)},
		)
		for _, status := range []string{"PENDING", "RUNNING", "SUCCESS", "FAILED"} {
			tab.Rows = append(tab.Rows, []string{status, strconv.FormatInt(st.Jobs.ByStatus[status], 10)})
		}

		return output.Cmd(cmd, st, tab)
	},
}

func init() {
	submitCmd.Flags().StringVarP(&meshID, "mesh", "m", "", "Mesh ID")
	_ = submitCmd.MarkFlagRequired("mesh")

	for _, c := range []*cobra.Command{submitCmd, statusCmd, listCmd, statsCmd} {
		output.AddFlag(c)
		Cmd.AddCommand(c)
	}
}

func submissions(subs []api.Submission) output.Tabular {
	tab := output.Tabular{Headers: []string{"Job", "Queue ID", "Mesh", "Status"}}
	for _, s := range subs {
		tab.Rows = append(tab.Rows, []string{s.JobID, s.QueueID, strconv.FormatInt(s.MeshID, 10), s.CurrentStatus})
	}
	return tab
}

func jobs(list []api.Job) output.Tabular {
	tab := output.Tabular{Headers: []string{"Job", "Mesh", "Status", "Started", "Finished", "Result", "Metrics"}}
	for _, j := range list {
		result, metrics := "-", "-"
		if j.Result != nil {
			result = j.Result.FileURL
			metrics = jsonutil.Pairs(j.Result.Metrics)
		}
		tab.Rows = append(tab.Rows, []string{
			j.ID,
			strconv.FormatInt(j.MeshID, 10),
			j.Status,
			formatTime(j.StartedAt),
			formatTime(j.FinishedAt),
			result,
			metrics,
		})
	}
	return tab
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
