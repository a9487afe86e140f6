package snapshot

import (
	"context"
	"fmt"
	"time"
)

// heartbeatEvery bounds how long the poll loop stays silent while the
// remote status does not change
const heartbeatEvery = 30 * time.Second

// TerminalError reports a job that finished in a failure-terminal status
type TerminalError struct {
	SnapshotID string
	Status     Status
	Elapsed    time.Duration
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("collection %s ended with status %q after %s",
		e.SnapshotID, e.Status, e.Elapsed.Round(time.Second))
}

// WaitForReady polls the job until it reaches a terminal status. A failed
// status check degrades to StatusUnknown and polling continues; the loop only
// exits on a terminal status or context cancellation. Returns the terminal
// status, with a *TerminalError when the job failed remotely.
func (c *Client) WaitForReady(ctx context.Context, snapshotID string, startedAt time.Time) (Status, error) {
	var last Status
	sameCount := 0
	lastHeartbeat := c.now()

	for {
		status, err := c.CheckStatus(ctx, snapshotID)
		if err != nil {
			// Transient transport failure. The job may still be
			// progressing remotely, so keep polling.
			status = StatusUnknown
			c.logger.Debugw("Status check failed, will retry",
				"snapshot_id", snapshotID,
				"error", err)
		}

		elapsed := c.now().Sub(startedAt)

		if status != last {
			c.logger.Infow("Collection status changed",
				"snapshot_id", snapshotID,
				"status", status,
				"previous", last,
				"elapsed_s", int(elapsed.Seconds()))
			last = status
			sameCount = 1
			lastHeartbeat = c.now()
		} else {
			sameCount++
			if c.now().Sub(lastHeartbeat) >= heartbeatEvery {
				c.logger.Infow("Collection still in progress",
					"snapshot_id", snapshotID,
					"status", status,
					"checks", sameCount,
					"elapsed_s", int(elapsed.Seconds()))
				lastHeartbeat = c.now()
			}
		}

		if status == StatusReady {
			c.logger.Infow("Collection ready",
				"snapshot_id", snapshotID,
				"elapsed_s", int(elapsed.Seconds()))
			return status, nil
		}
		if status.Terminal() {
			return status, &TerminalError{
				SnapshotID: snapshotID,
				Status:     status,
				Elapsed:    elapsed,
			}
		}

		if err := c.sleep(ctx, c.backoff.PollInterval()); err != nil {
			return status, err
		}
	}
}
