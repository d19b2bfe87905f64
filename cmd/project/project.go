package project

import (
	"strconv"

	"github.com/simsaas/simsaas/cmd/console/api"
	"github.com/simsaas/simsaas/cmd/output"
	"github.com/spf13/cobra"
)

// Cmd is the parent command for project operations.
var Cmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects", "p"},
	Short:   "Manage projects",
}

var createCmd = &cobra.Command{
	Use:     "create NAME",
	Short:   "Create a project",
	Example: "simsaas project create wing",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		p, err := client.Projects().Create(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return output.Cmd(cmd, p, Tabular([]api.Project{*p}))
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects with their geometry counts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		projects, err := client.Projects().List(cmd.Context())
		if err != nil {
			return err
		}

		return output.Cmd(cmd, projects, Tabular(projects))
	},
}

func init() {
	for _, c := range []*cobra.Command{createCmd, listCmd} {
		output.AddFlag(c)
		Cmd.AddCommand(c)
	}
}

// Tabular projects rows for table output.
func Tabular(projects []api.Project) output.Tabular {
	tab := output.Tabular{Headers: []string{"ID", "Name", "Geometries", "Created"}}
	for _, p := range projects {
		tab.Rows = append(tab.Rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			strconv.Itoa(len(p.Geometries)),
			p.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return tab
}
