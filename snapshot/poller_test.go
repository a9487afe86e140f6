package snapshot

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/harvest/errors"
)

// statusScript serves a fixed sequence of progress responses. An entry of
// "500" fails the status check instead.
func statusScript(t *testing.T, statuses ...string) http.Handler {
	t.Helper()
	i := 0
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if i >= len(statuses) {
			t.Errorf("poll after script exhausted (%d statuses served)", len(statuses))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		s := statuses[i]
		i++
		if s == "500" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"status": %q}`, s)
	})
}

func TestWaitForReady(t *testing.T) {
	client, _, delays := newTestClient(t, statusScript(t, "queued", "running", "running", "ready"))

	status, err := client.WaitForReady(context.Background(), "s_abc123", time.Now())
	if err != nil {
		t.Fatalf("WaitForReady failed: %v", err)
	}
	if status != StatusReady {
		t.Errorf("status = %q, want ready", status)
	}
	// One poll-interval sleep between each of the 4 checks
	if len(*delays) != 3 {
		t.Errorf("expected 3 poll sleeps, got %d", len(*delays))
	}
	for i, d := range *delays {
		if d != DefaultPollInterval {
			t.Errorf("sleep %d = %v, want %v", i, d, DefaultPollInterval)
		}
	}
}

func TestWaitForReadyTerminalFailure(t *testing.T) {
	client, _, _ := newTestClient(t, statusScript(t, "queued", "failed"))

	status, err := client.WaitForReady(context.Background(), "s_abc123", time.Now())
	if status != StatusFailed {
		t.Errorf("status = %q, want failed", status)
	}
	var termErr *TerminalError
	if !errors.As(err, &termErr) {
		t.Fatalf("expected *TerminalError, got %v", err)
	}
	if termErr.Status != StatusFailed || termErr.SnapshotID != "s_abc123" {
		t.Errorf("unexpected TerminalError: %+v", termErr)
	}
}

func TestWaitForReadySurvivesFailedChecks(t *testing.T) {
	// Two failed status checks degrade to unknown and polling continues
	client, _, _ := newTestClient(t, statusScript(t, "queued", "500", "500", "ready"))

	status, err := client.WaitForReady(context.Background(), "s_abc123", time.Now())
	if err != nil {
		t.Fatalf("WaitForReady failed: %v", err)
	}
	if status != StatusReady {
		t.Errorf("status = %q, want ready", status)
	}
}

func TestWaitForReadyHeartbeat(t *testing.T) {
	client, _, _ := newTestClient(t, statusScript(t, "running", "running", "running", "ready"))

	core, logs := observer.New(zap.InfoLevel)
	client.logger = zap.New(core).Sugar()

	// Virtual clock: each poll interval advances past the heartbeat window
	current := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	startedAt := current
	client.now = func() time.Time { return current }
	client.SetSleep(func(ctx context.Context, d time.Duration) error {
		current = current.Add(31 * time.Second)
		return ctx.Err()
	})

	status, err := client.WaitForReady(context.Background(), "s_abc123", startedAt)
	if err != nil {
		t.Fatalf("WaitForReady failed: %v", err)
	}
	if status != StatusReady {
		t.Errorf("status = %q, want ready", status)
	}

	// First running check logs a status change; the two repeat checks each
	// cross the 30s window and log a heartbeat with the same-status counter
	var heartbeats []observer.LoggedEntry
	for _, entry := range logs.All() {
		if entry.Message == "Collection still in progress" {
			heartbeats = append(heartbeats, entry)
		}
	}
	if len(heartbeats) != 2 {
		t.Fatalf("expected 2 heartbeats, got %d", len(heartbeats))
	}

	first := heartbeats[0].ContextMap()
	if fmt.Sprint(first["status"]) != "running" {
		t.Errorf("heartbeat status = %v, want running", first["status"])
	}
	if first["checks"] != int64(2) {
		t.Errorf("heartbeat checks = %v, want 2", first["checks"])
	}
	if second := heartbeats[1].ContextMap(); second["checks"] != int64(3) {
		t.Errorf("second heartbeat checks = %v, want 3", second["checks"])
	}
}

func TestWaitForReadyCancellation(t *testing.T) {
	client, _, _ := newTestClient(t, statusScript(t, "queued", "queued", "queued", "queued"))

	ctx, cancel := context.WithCancel(context.Background())
	polls := 0
	client.SetSleep(func(ctx context.Context, d time.Duration) error {
		polls++
		if polls == 2 {
			cancel()
		}
		return ctx.Err()
	})

	_, err := client.WaitForReady(ctx, "s_abc123", time.Now())
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
