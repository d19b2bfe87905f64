package cmd

import (
	"github.com/simsaas/simsaas/cmd/console"
	"github.com/simsaas/simsaas/cmd/geometry"
	"github.com/simsaas/simsaas/cmd/job"
	"github.com/simsaas/simsaas/cmd/mesh"
	"github.com/simsaas/simsaas/cmd/monitor"
	"github.com/simsaas/simsaas/cmd/project"
	"github.com/simsaas/simsaas/cmd/start"
	"github.com/spf13/cobra"
)

var cmds = []*cobra.Command{
	start.Cmd,
	console.Cmd,
	project.Cmd,
	geometry.Cmd,
	mesh.Cmd,
	job.Cmd,
	monitor.Cmd,
}

// Execute builds the command tree and executes commands.
func Execute() error {
	command := &cobra.Command{
		Use:           "simsaas",
		Short:         "Mesh processing backend and client",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}

	for _, c := range cmds {
		command.AddCommand(c)
	}

	return command.Execute()
}
