package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/harvest/cmd/harvest/commands"
	"github.com/teranos/harvest/logger"
)

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "harvest - Async dataset collection client",
	Long: `harvest - Trigger, poll, and persist remote dataset collections.

harvest drives long-running collection jobs against the datasets API:
it submits a batch of inputs, polls the job until it completes, fetches
the finished snapshot, and writes it to disk. Every run is recorded in
a local history database.

Available commands:
  collect  - Run a collection for a dataset
  datasets - List collectable datasets
  runs     - Inspect past collection runs
  config   - Manage harvest configuration
  version  - Show version information

Examples:
  harvest collect properties --inputs urls.json
  harvest collect discover --inputs filters.json --dated
  harvest runs ls
  harvest config set collector.poll_interval_seconds 10`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON instead of console output")

	rootCmd.AddCommand(commands.CollectCmd)
	rootCmd.AddCommand(commands.DatasetsCmd)
	rootCmd.AddCommand(commands.RunsCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
