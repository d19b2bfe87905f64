// Package output renders client command results as a table, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/simsaas/simsaas/pkg/jsonutil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	Table Format = "table"
	JSON  Format = "json"
	YAML  Format = "yaml"
)

const flagName = "output"

// Tabular is the table projection of a result.
type Tabular struct {
	Headers []string
	Rows    [][]string
}

// AddFlag registers -o/--output on cmd.
func AddFlag(cmd *cobra.Command) {
	cmd.Flags().StringP(flagName, "o", string(Table), "Output format: table, json or yaml")
}

// FormatOf reads the output flag registered by AddFlag.
func FormatOf(cmd *cobra.Command) (Format, error) {
	raw, err := cmd.Flags().GetString(flagName)
	if err != nil {
		return "", err
	}
	return Parse(raw)
}

func Parse(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case Table, JSON, YAML:
		return f, nil
	case "":
		return Table, nil
	default:
		return "", fmt.Errorf("unknown output format %q", raw)
	}
}

// Write renders v in format. Table output uses tab instead of v.
func Write(w io.Writer, format Format, v any, tab Tabular) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		generic, err := jsonutil.Generic(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, render(tab))
		return err
	}
}

// Cmd renders v to the command's stdout in the format chosen by its flag.
func Cmd(cmd *cobra.Command, v any, tab Tabular) error {
	format, err := FormatOf(cmd)
	if err != nil {
		return err
	}
	return Write(cmd.OutOrStdout(), format, v, tab)
}

func render(tab Tabular) string {
	if len(tab.Rows) == 0 {
		return "No results."
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(tab.Headers...).
		Rows(tab.Rows...).
		String()
}
