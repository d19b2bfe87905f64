package console

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/simsaas/simsaas/cmd/console/api"
	"github.com/simsaas/simsaas/cmd/console/app"
	"github.com/simsaas/simsaas/cmd/console/config"
	"github.com/spf13/cobra"
)

const (
	usage   = "console"
	short   = "Open a live view of the job queue"
	long    = "This command starts the interactive simsaas console, refreshing queue entries and jobs every few seconds"
	example = "simsaas console"
)

// Cmd is the Cobra command entrypoint.
var Cmd = &cobra.Command{
	Use:        usage,
	Short:      short,
	Long:       long,
	Aliases:    []string{"c"},
	SuggestFor: []string{"tui", "terminal", "ui", "dashboard"},
	Example:    example,
	RunE:       run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client := api.New(cfg)
	if err := client.Ping(cmd.Context()); err != nil {
		return err
	}

	p := tea.NewProgram(app.New(client), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
