package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/harvest/errors"
)

// Sink persists a fetched result set
type Sink interface {
	Persist(records []json.RawMessage, path string) error
}

// RunResult summarizes one collection run. Returned even on failure so the
// caller can record partial progress (for example a snapshot ID that was
// obtained but never fetched).
type RunResult struct {
	ID         string
	Dataset    string
	SnapshotID string
	Status     Status
	Records    int
	OutputFile string
	StartedAt  time.Time
	Elapsed    time.Duration
}

// Collect runs the full workflow for one dataset: trigger, poll to
// completion, fetch, persist. Each stage short-circuits the rest on failure.
// outputFile overrides the dataset default when non-empty.
func (c *Client) Collect(ctx context.Context, ds Dataset, inputs []Input, sink Sink, outputFile string) (*RunResult, error) {
	if outputFile == "" {
		outputFile = ds.OutputFile
	}

	res := &RunResult{
		ID:         uuid.New().String(),
		Dataset:    ds.Name,
		Status:     StatusUnknown,
		OutputFile: outputFile,
		StartedAt:  c.now(),
	}

	log := c.logger.With(
		"run_id", res.ID,
		"dataset", ds.Name)

	log.Infow("Starting collection run", "inputs", len(inputs))

	snapshotID, err := c.Trigger(ctx, ds, inputs)
	if err != nil {
		res.Elapsed = c.now().Sub(res.StartedAt)
		return res, errors.Wrap(err, "collection run")
	}
	res.SnapshotID = snapshotID

	status, err := c.WaitForReady(ctx, snapshotID, res.StartedAt)
	res.Status = status
	res.Elapsed = c.now().Sub(res.StartedAt)
	if err != nil {
		return res, errors.Wrap(err, "collection run")
	}

	records, err := c.FetchSnapshot(ctx, snapshotID)
	if err != nil {
		res.Elapsed = c.now().Sub(res.StartedAt)
		// The snapshot is still retrievable remotely by ID
		log.Errorw("Collection finished but fetch failed",
			"snapshot_id", snapshotID,
			"error", err)
		return res, errors.Wrap(err, "collection run")
	}
	res.Records = len(records)

	if err := sink.Persist(records, outputFile); err != nil {
		res.Elapsed = c.now().Sub(res.StartedAt)
		log.Errorw("Records fetched but not persisted",
			"snapshot_id", snapshotID,
			"records", res.Records,
			"output_file", outputFile,
			"error", err)
		return res, errors.Wrap(err, "collection run")
	}

	res.Elapsed = c.now().Sub(res.StartedAt)
	log.Infow("Collection run complete",
		"snapshot_id", snapshotID,
		"records", res.Records,
		"output_file", outputFile,
		"elapsed_s", int(res.Elapsed.Seconds()))
	return res, nil
}
