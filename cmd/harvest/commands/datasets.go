package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/harvest/snapshot"
)

// DatasetsCmd lists collectable datasets
var DatasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List collectable datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		data := pterm.TableData{{"NAME", "DATASET ID", "PRIMARY FIELD", "DEFAULT OUTPUT"}}
		for _, ds := range snapshot.Registry() {
			data = append(data, []string{ds.Name, ds.ID, ds.PrimaryField, ds.OutputFile})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}
