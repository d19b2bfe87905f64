package mesh

import (
	"strconv"

	"github.com/simsaas/simsaas/cmd/console/api"
	"github.com/simsaas/simsaas/cmd/output"
	"github.com/simsaas/simsaas/pkg/ident"
	"github.com/spf13/cobra"
)

// Cmd is the parent command for mesh operations.
var Cmd = &cobra.Command{
	Use:     "mesh",
	Aliases: []string{"meshes", "m"},
	Short:   "Manage meshes",
}

var (
	geometryID string
	resolution int
)

var createCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a mesh of a geometry",
	Example: "simsaas mesh create -g 1 -r 5",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gid, err := ident.Parse(geometryID)
		if err != nil {
			return err
		}

		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		m, err := client.Meshes().Create(cmd.Context(), gid, resolution)
		if err != nil {
			return err
		}

		return output.Cmd(cmd, m, tabular([]api.Mesh{*m}))
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the meshes of a geometry",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gid, err := ident.Parse(geometryID)
		if err != nil {
			return err
		}

		client, err := api.FromEnv()
		if err != nil {
			return err
		}

		meshes, err := client.Meshes().ListByGeometry(cmd.Context(), gid)
		if err != nil {
			return err
		}

		return output.Cmd(cmd, meshes, tabular(meshes))
	},
}

var getCmd = &cobra.Command{
	Use:     "get ID",
	Aliases: []string{"view"},
	Short:   "Show a mesh",
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

		m, err := client.Meshes().Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		return output.Cmd(cmd, m, tabular([]api.Mesh{*m}))
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "Delete a mesh with its jobs",
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

		resp, err := client.Meshes().Delete(cmd.Context(), id)
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
		c.Flags().StringVarP(&geometryID, "geometry", "g", "", "Geometry ID")
		_ = c.MarkFlagRequired("geometry")
	}
	createCmd.Flags().IntVarP(&resolution, "resolution", "r", 5, "Mesh resolution (1-10)")

	for _, c := range []*cobra.Command{createCmd, listCmd, getCmd, deleteCmd} {
		output.AddFlag(c)
		Cmd.AddCommand(c)
	}
}

func tabular(meshes []api.Mesh) output.Tabular {
	tab := output.Tabular{Headers: []string{"ID", "Geometry", "Resolution", "Created"}}
	for _, m := range meshes {
		tab.Rows = append(tab.Rows, []string{
			strconv.FormatInt(m.ID, 10),
			strconv.FormatInt(m.GeometryID, 10),
			strconv.Itoa(m.Resolution),
			m.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return tab
}
