package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/harvest/config"
	"github.com/teranos/harvest/db"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/history"
	"github.com/teranos/harvest/internal/httpclient"
	"github.com/teranos/harvest/logger"
	"github.com/teranos/harvest/sink"
	"github.com/teranos/harvest/snapshot"
)

// CollectCmd runs a collection for one dataset
var CollectCmd = &cobra.Command{
	Use:   "collect <dataset>",
	Short: "Run a collection for a dataset",
	Long: `Run a collection: submit inputs, poll until the job completes, fetch
the snapshot, and write it to disk. The run is recorded in the history
database either way.

The inputs file is a JSON array of records, e.g. for 'properties':
  [{"url": "https://www.zillow.com/homedetails/..."}]
and for 'discover':
  [{"location": "92027", "listingCategory": "Sold"}]

Large input sets can be split with --batch-size; each batch becomes an
independent run, and a failed batch does not stop the remaining ones.

Examples:
  harvest collect properties --inputs urls.json
  harvest collect discover --inputs filters.json --dated
  harvest collect price-history --inputs urls.json --batch-size 50`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputsPath, _ := cmd.Flags().GetString("inputs")
		outputFile, _ := cmd.Flags().GetString("output")
		dated, _ := cmd.Flags().GetBool("dated")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		watchConfig, _ := cmd.Flags().GetBool("watch-config")
		return runCollect(args[0], inputsPath, outputFile, dated, batchSize, watchConfig)
	},
}

func init() {
	CollectCmd.Flags().String("inputs", "", "Path to a JSON file with input records (required)")
	CollectCmd.Flags().String("output", "", "Output file (default: per-dataset filename)")
	CollectCmd.Flags().Bool("dated", false, "Append today's date to the default output filename")
	CollectCmd.Flags().Int("batch-size", 0, "Split inputs into batches of this size (0 = single run)")
	CollectCmd.Flags().Bool("watch-config", false, "Reload configuration when the config file changes")
	CollectCmd.MarkFlagRequired("inputs")
}

func runCollect(datasetName, inputsPath, outputFile string, dated bool, batchSize int, watchConfig bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ds, err := snapshot.ByName(datasetName)
	if err != nil {
		return err
	}

	inputs, err := readInputs(inputsPath)
	if err != nil {
		return err
	}

	log := logger.Named("collect")

	client, fileSink, err := buildCollector(cfg, log)
	if err != nil {
		return err
	}

	database, err := db.OpenWithMigrations(cfg.Database.Path, logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()
	store := history.NewStore(database)

	// Set by the watcher callback; checked between batches so a config
	// change takes effect mid-session.
	var configChanged atomic.Bool
	if watchConfig {
		if watcher, err := config.NewWatcher(config.UserConfigPath()); err != nil {
			log.Warnw("Config watcher unavailable", "error", err)
		} else {
			watcher.OnReload(func(*config.Config) error {
				configChanged.Store(true)
				log.Infow("Configuration reloaded; applying to subsequent batches")
				return nil
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	outputPath := resolveOutputPath(cfg, ds, outputFile, dated)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batches := splitBatches(inputs, batchSize)
	pterm.Info.Printf("Collecting %s: %d input(s) in %d batch(es)\n", ds.Name, len(inputs), len(batches))

	var results []*history.Run
	failures := 0
	for i, batch := range batches {
		if configChanged.Swap(false) {
			fresh, freshClient, freshSink, err := refreshCollector(log)
			if err != nil {
				log.Warnw("Reloaded config unusable, keeping previous settings", "error", err)
			} else {
				cfg, client, fileSink = fresh, freshClient, freshSink
				outputPath = resolveOutputPath(cfg, ds, outputFile, dated)
			}
		}

		batchOutput := outputPath
		if len(batches) > 1 {
			batchOutput = numberedOutputPath(outputPath, i+1)
		}

		res, runErr := client.Collect(ctx, ds, batch, fileSink, batchOutput)
		run := history.FromResult(res, runErr)
		if err := store.RecordRun(run); err != nil {
			log.Warnw("Failed to record run in history", "run_id", run.ID, "error", err)
		}
		results = append(results, run)

		if runErr != nil {
			failures++
			pterm.Warning.Printf("Batch %d/%d failed: %v\n", i+1, len(batches), runErr)
			if ctx.Err() != nil {
				pterm.Warning.Println("Interrupted; skipping remaining batches")
				break
			}
			continue
		}
		pterm.Success.Printf("Batch %d/%d: %d record(s) -> %s\n", i+1, len(batches), run.Records, run.OutputFile)
	}

	printRunSummary(results)

	if failures > 0 {
		return errors.Newf("%d of %d batch(es) failed", failures, len(batches))
	}
	return nil
}

// buildCollector constructs the collection client and sink from config
func buildCollector(cfg *config.Config, log *zap.SugaredLogger) (*snapshot.Client, *sink.FileSink, error) {
	client, err := snapshot.NewClient(snapshot.Config{
		APIToken:          cfg.API.Token,
		BaseURL:           cfg.API.BaseURL,
		HTTPClient:        httpclient.New(time.Duration(cfg.API.TimeoutSeconds) * time.Second),
		Logger:            log,
		PollInterval:      time.Duration(cfg.Collector.PollIntervalSeconds) * time.Second,
		SubmitRetries:     cfg.Collector.SubmitRetries,
		MaxCallsPerMinute: cfg.Collector.MaxCallsPerMinute,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, sink.New(cfg.Collector.Backup, logger.Named("sink")), nil
}

// refreshCollector reloads config and rebuilds the client and sink so a
// watched config change (poll interval, pacing, backup) applies to the
// batches that follow
func refreshCollector(log *zap.SugaredLogger) (*config.Config, *snapshot.Client, *sink.FileSink, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	client, fileSink, err := buildCollector(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, client, fileSink, nil
}

// readInputs loads a JSON array of string-to-string records
func readInputs(path string) ([]snapshot.Input, error) {
	if path == "" {
		return nil, errors.New("no inputs file provided")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read inputs file %s", path)
	}

	var inputs []snapshot.Input
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, errors.Wrapf(err, "inputs file %s is not a JSON array of records", path)
	}
	if len(inputs) == 0 {
		return nil, errors.Newf("inputs file %s is empty", path)
	}
	return inputs, nil
}

func resolveOutputPath(cfg *config.Config, ds snapshot.Dataset, override string, dated bool) string {
	if override != "" {
		return override
	}
	name := ds.OutputFile
	if dated || cfg.Output.Dated {
		name = ds.DatedOutputFile(time.Now())
	}
	if cfg.Output.Dir != "" {
		return filepath.Join(cfg.Output.Dir, name)
	}
	return name
}

// numberedOutputPath inserts the batch number before the extension,
// e.g. properties.json -> properties.part2.json
func numberedOutputPath(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s.part%d%s", path[:len(path)-len(ext)], n, ext)
}

func splitBatches(inputs []snapshot.Input, size int) [][]snapshot.Input {
	if size <= 0 || size >= len(inputs) {
		return [][]snapshot.Input{inputs}
	}
	var batches [][]snapshot.Input
	for start := 0; start < len(inputs); start += size {
		end := start + size
		if end > len(inputs) {
			end = len(inputs)
		}
		batches = append(batches, inputs[start:end])
	}
	return batches
}

func printRunSummary(runs []*history.Run) {
	if len(runs) == 0 {
		return
	}

	data := pterm.TableData{{"RUN ID", "SNAPSHOT", "STATUS", "RECORDS", "ELAPSED", "OUTPUT"}}
	for _, run := range runs {
		data = append(data, []string{
			shortID(run.ID),
			run.SnapshotID,
			run.Status,
			fmt.Sprintf("%d", run.Records),
			(time.Duration(run.ElapsedMS) * time.Millisecond).Round(time.Second).String(),
			run.OutputFile,
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
