package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/teranos/harvest/errors"
)

// recordingSink captures every Persist call
type recordingSink struct {
	calls   int
	records []json.RawMessage
	path    string
	err     error
}

func (s *recordingSink) Persist(records []json.RawMessage, path string) error {
	s.calls++
	s.records = records
	s.path = path
	return s.err
}

// collectionAPI stubs the full trigger/progress/snapshot surface
type collectionAPI struct {
	t          *testing.T
	snapshotID string
	statuses   []string
	result     string

	triggerCalls int
	statusCalls  int
	fetchCalls   int
}

func (a *collectionAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/trigger":
		a.triggerCalls++
		fmt.Fprintf(w, `{"snapshot_id": %q}`, a.snapshotID)
	case strings.HasPrefix(r.URL.Path, "/progress/"):
		if a.statusCalls >= len(a.statuses) {
			a.t.Errorf("status poll after sequence exhausted")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		status := a.statuses[a.statusCalls]
		a.statusCalls++
		fmt.Fprintf(w, `{"status": %q}`, status)
	case strings.HasPrefix(r.URL.Path, "/snapshot/"):
		a.fetchCalls++
		fmt.Fprint(w, a.result)
	default:
		a.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestCollectSuccess(t *testing.T) {
	api := &collectionAPI{
		t:          t,
		snapshotID: "abc123",
		statuses:   []string{"queued", "running", "running", "ready"},
		result:     `[{"zpid": 1}]`,
	}
	client, _, _ := newTestClient(t, api)
	sink := &recordingSink{}

	res, err := client.Collect(context.Background(), DiscoverByFilters(), []Input{{"location": "92027"}}, sink, "")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if res.Status != StatusReady {
		t.Errorf("status = %q, want ready", res.Status)
	}
	if res.SnapshotID != "abc123" {
		t.Errorf("snapshot ID = %q", res.SnapshotID)
	}
	if res.Records != 1 {
		t.Errorf("records = %d, want 1", res.Records)
	}
	if res.ID == "" {
		t.Error("expected a run ID")
	}
	if res.OutputFile != "discovered_properties.json" {
		t.Errorf("output file = %q, want dataset default", res.OutputFile)
	}

	if sink.calls != 1 {
		t.Fatalf("sink called %d times, want 1", sink.calls)
	}
	if len(sink.records) != 1 || string(sink.records[0]) != `{"zpid": 1}` {
		t.Errorf("sink received %v", sink.records)
	}
	if api.triggerCalls != 1 || api.fetchCalls != 1 {
		t.Errorf("trigger calls = %d, fetch calls = %d", api.triggerCalls, api.fetchCalls)
	}
}

func TestCollectRemoteFailureSkipsFetchAndSink(t *testing.T) {
	api := &collectionAPI{
		t:          t,
		snapshotID: "abc123",
		statuses:   []string{"queued", "failed"},
		result:     `[{"zpid": 1}]`,
	}
	client, _, _ := newTestClient(t, api)
	sink := &recordingSink{}

	res, err := client.Collect(context.Background(), Properties(), []Input{{"url": "https://example.com/1"}}, sink, "")
	if err == nil {
		t.Fatal("expected error for failed collection")
	}
	var termErr *TerminalError
	if !errors.As(err, &termErr) {
		t.Fatalf("expected *TerminalError, got %v", err)
	}

	if res.Status != StatusFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
	if api.fetchCalls != 0 {
		t.Errorf("fetch called %d times after remote failure", api.fetchCalls)
	}
	if sink.calls != 0 {
		t.Errorf("sink called %d times after remote failure", sink.calls)
	}
}

func TestCollectNoValidInputs(t *testing.T) {
	api := &collectionAPI{t: t, snapshotID: "abc123"}
	client, _, _ := newTestClient(t, api)
	sink := &recordingSink{}

	res, err := client.Collect(context.Background(), Properties(), []Input{{"url": "  "}}, sink, "")
	if !errors.Is(err, ErrNoValidInputs) {
		t.Fatalf("expected ErrNoValidInputs, got %v", err)
	}
	if res.SnapshotID != "" {
		t.Errorf("unexpected snapshot ID %q", res.SnapshotID)
	}
	if api.triggerCalls != 0 {
		t.Errorf("trigger called %d times", api.triggerCalls)
	}
	if sink.calls != 0 {
		t.Errorf("sink called %d times", sink.calls)
	}
}

func TestCollectSinkFailure(t *testing.T) {
	api := &collectionAPI{
		t:          t,
		snapshotID: "abc123",
		statuses:   []string{"ready"},
		result:     `[{"zpid": 1}]`,
	}
	client, _, _ := newTestClient(t, api)
	sink := &recordingSink{err: errors.New("disk full")}

	res, err := client.Collect(context.Background(), Properties(), []Input{{"url": "https://example.com/1"}}, sink, "")
	if err == nil {
		t.Fatal("expected error when sink fails")
	}
	// The run still reports what was achieved before persistence failed
	if res.Status != StatusReady || res.Records != 1 || res.SnapshotID != "abc123" {
		t.Errorf("unexpected partial result: %+v", res)
	}
}

func TestCollectHonorsOutputOverride(t *testing.T) {
	api := &collectionAPI{
		t:          t,
		snapshotID: "abc123",
		statuses:   []string{"ready"},
		result:     `[]`,
	}
	client, _, _ := newTestClient(t, api)
	sink := &recordingSink{}

	res, err := client.Collect(context.Background(), Properties(), []Input{{"url": "https://example.com/1"}}, sink, "custom.json")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if res.OutputFile != "custom.json" || sink.path != "custom.json" {
		t.Errorf("output override not honored: result %q, sink %q", res.OutputFile, sink.path)
	}
}
