package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/harvest/config"
	"github.com/teranos/harvest/db"
	"github.com/teranos/harvest/history"
	"github.com/teranos/harvest/logger"
)

// RunsCmd inspects past collection runs
var RunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect past collection runs",
	Long: `Inspect past collection runs recorded in the history database.

Examples:
  harvest runs ls                        # List recent runs
  harvest runs ls --dataset properties   # Runs for one dataset
  harvest runs show <run-id>             # Full details for one run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// RunsLsCmd lists recent runs
var RunsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recent collection runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		dataset, _ := cmd.Flags().GetString("dataset")
		return runRunsLs(dataset, limit)
	},
}

// RunsShowCmd shows full details for one run
var RunsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show details for a collection run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRunsShow(args[0])
	},
}

func init() {
	RunsLsCmd.Flags().Int("limit", 20, "Maximum number of runs to display")
	RunsLsCmd.Flags().String("dataset", "", "Filter by dataset name")

	RunsCmd.AddCommand(RunsLsCmd)
	RunsCmd.AddCommand(RunsShowCmd)
}

func openStore() (*history.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.OpenWithMigrations(cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return history.NewStore(database), func() { database.Close() }, nil
}

func runRunsLs(dataset string, limit int) error {
	store, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	var runs []*history.Run
	if dataset != "" {
		runs, err = store.ListRunsForDataset(dataset, limit)
	} else {
		runs, err = store.ListRuns(limit)
	}
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		pterm.Info.Println("No runs recorded")
		return nil
	}

	data := pterm.TableData{{"RUN ID", "DATASET", "STATUS", "RECORDS", "STARTED", "ELAPSED"}}
	for _, run := range runs {
		data = append(data, []string{
			shortID(run.ID),
			run.Dataset,
			run.Status,
			fmt.Sprintf("%d", run.Records),
			run.StartedAt.Format("2006-01-02 15:04"),
			(time.Duration(run.ElapsedMS) * time.Millisecond).Round(time.Second).String(),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	fmt.Printf("\nTotal: %d run(s)\n", len(runs))
	return nil
}

func runRunsShow(prefix string) error {
	store, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	run, err := findRun(store, prefix)
	if err != nil {
		return err
	}

	fmt.Printf("Run ID: %s\n", run.ID)
	fmt.Printf("  Dataset: %s\n", run.Dataset)
	fmt.Printf("  Snapshot: %s\n", run.SnapshotID)
	fmt.Printf("  Status: %s\n", run.Status)
	fmt.Printf("  Records: %d\n", run.Records)
	if run.OutputFile != "" {
		fmt.Printf("  Output: %s\n", run.OutputFile)
	}
	fmt.Printf("\n")
	fmt.Printf("Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Finished: %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Elapsed: %s\n", (time.Duration(run.ElapsedMS) * time.Millisecond).Round(time.Second))
	if run.Error != "" {
		fmt.Printf("\nError: %s\n", run.Error)
	}
	return nil
}

// findRun resolves a full run ID or a unique ID prefix
func findRun(store *history.Store, prefix string) (*history.Run, error) {
	run, err := store.GetRun(prefix)
	if err == nil {
		return run, nil
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var match *history.Run
	for _, r := range runs {
		if len(prefix) > 0 && len(r.ID) >= len(prefix) && r.ID[:len(prefix)] == prefix {
			if match != nil {
				return nil, fmt.Errorf("run ID prefix %q is ambiguous", prefix)
			}
			match = r
		}
	}
	if match == nil {
		return nil, fmt.Errorf("run not found: %s", prefix)
	}
	return match, nil
}
