package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/cli"
)

var modelsFlags struct {
	format string
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the gateway serves",
	Long: `List every model in the catalog together with the backend model it
resolves to and the upstream action flags it carries.

Examples:
  # Print the model table
  ganymede models

  # Print the catalog as JSON
  ganymede models --format json`,
	RunE: listModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringVar(&modelsFlags.format, "format", "text", "output format: text, json")
}

// modelRow is one catalog entry as printed by the models command.
type modelRow struct {
	ID           string   `json:"id"`
	BackendModel string   `json:"backend_model"`
	Actions      []string `json:"actions,omitempty"`
	DeferCards   bool     `json:"defer_cards,omitempty"`
	Default      bool     `json:"default,omitempty"`
}

func listModels(cmd *cobra.Command, args []string) error {
	cat, err := catalog.New("")
	if err != nil {
		return cli.NewCommandError("models", err)
	}

	rows := make([]modelRow, 0, cat.Size())
	for _, entry := range cat.List() {
		rows = append(rows, modelRow{
			ID:           entry.ID,
			BackendModel: entry.BackendModel,
			Actions:      entry.Actions,
			DeferCards:   entry.DeferCards,
			Default:      entry.ID == cat.DefaultID(),
		})
	}

	if modelsFlags.format == string(cli.FormatJSON) {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, rows)
	}

	fmt.Printf("%-28s %-16s %-16s %s\n", "MODEL", "BACKEND", "ACTIONS", "")
	for _, row := range rows {
		marker := ""
		if row.Default {
			marker = "(default)"
		}
		fmt.Printf("%-28s %-16s %-16s %s\n", row.ID, row.BackendModel, actionsWord(row.Actions), marker)
	}
	fmt.Printf("\n%d models\n", len(rows))
	return nil
}

func actionsWord(actions []string) string {
	if len(actions) == 0 {
		return "-"
	}
	return strings.Join(actions, ",")
}
