package geometry

import (
	"strconv"

	"github.com/simsaas/simsaas/cmd/console/api"
	"github.com/simsaas/simsaas/cmd/output"
	"github.com/simsaas/simsaas/pkg/ident"
	"github.com/spf13/cobra"
)

// Cmd is the parent command for geometry operations.
var Cmd = &cobra.Command{
	Use:     "geometry",
	Aliases: []string{"geometries", "g"},
	Short:   "Manage geometries",
}

var projectID string

var createCmd = &cobra.Command{
	Use:     "create FILE_URL",
	Short:   "Register a geometry file under a project",
	Example: "simsaas geometry create -p 1 https://files.example.com/wing.step",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := ident.Parse(projectID)
		if err != nil {
			return err
		}

		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		g, err := client.Geometries().Create(cmd.Context(), pid, args[0])
		if err != nil {
			return err
		}

		return output.Cmd(cmd, g, tabular([]api.Geometry{*g}))
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the geometries of a project",
	Example: "simsaas geometry list -p 1",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := ident.Parse(projectID)
		if err != nil {
			return err
		}

		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		geometries, err := client.Geometries().ListByProject(cmd.Context(), pid)
		if err != nil {
			return err
		}

		return output.Cmd(cmd, geometries, tabular(geometries))
	},
}

var getCmd = &cobra.Command{
	Use:     "get ID",
	Aliases: []string{"view"},
	Short:   "Show a geometry and its meshes",
	Args:      cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ident.Parse(args[0])
		if err != nil {
			return err
		}

		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		g, err := client.Geometries().Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		return output.Cmd(cmd, g, tabular([]api.Geometry{*g}))
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "Delete a geometry with its meshes and jobs",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ident.Parse(args[0])
		if err != nil {
			return err
		}

		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		resp, err := client.Geometries().Delete(cmd.Context(), id)
		if err != nil {
			return err
		}

		return output.Cmd(cmd, resp, output.Tabular{
			Headers: []string{"ID", "Message"},
			Rows:    [][]string{{strconv.FormatInt(resp.ID, 10), resp.Message}},
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{createCmd, listCmd} {
		c.Flags().StringVarP(&projectID, "project", "p", "", "Project ID")
		_ = c.MarkFlagRequired("project")
	}

	for _, c := range []*cobra.Command{createCmd, listCmd, getCmd, deleteCmd} {
		output.AddFlag(c)
		Cmd.AddCommand(c)
	}
}

func tabular(geometries []api.Geometry) output.Tabular {
	tab := output.Tabular{Headers: []string{"ID", "Project", "File URL", "Meshes", "Created"}}
	for _, g := range geometries {
		tab.Rows = append(tab.Rows, []string{
			strconv.FormatInt(g.ID, 10),
			strconv.FormatInt(g.ProjectID, 10),
			g.FileURL,
			strconv.Itoa(len(g.Meshes)),
			g.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return tab
}
