package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teranos/harvest/config"
	"github.com/teranos/harvest/snapshot"
)

// chdir mirrors testing.T.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestReadInputs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inputs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"location": "92027", "HomeType": "Houses"}]`), 0o644))

	inputs, err := readInputs(path)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "92027", inputs[0]["location"])
}

func TestReadInputsRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := readInputs(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`[]`), 0o644))
	_, err = readInputs(empty)
	assert.Error(t, err)

	notArray := filepath.Join(dir, "object.json")
	require.NoError(t, os.WriteFile(notArray, []byte(`{"location": "92027"}`), 0o644))
	_, err = readInputs(notArray)
	assert.Error(t, err)
}

func TestSplitBatches(t *testing.T) {
	inputs := make([]snapshot.Input, 5)
	for i := range inputs {
		inputs[i] = snapshot.Input{"url": "https://example.com"}
	}

	assert.Len(t, splitBatches(inputs, 0), 1)
	assert.Len(t, splitBatches(inputs, 10), 1)

	batches := splitBatches(inputs, 2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[2], 1)
}

func TestRefreshCollectorAppliesChangedConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HARVEST_API_TOKEN", "test-token")
	chdir(t, t.TempDir()) // keep project config discovery out of the picture
	config.Reset()
	t.Cleanup(config.Reset)

	log := zap.NewNop().Sugar()

	cfg, client, fileSink, err := refreshCollector(log)
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.True(t, cfg.Collector.Backup, "backup defaults on")
	assert.True(t, fileSink.Backup)

	// A config edit resets the cached config, as the watcher reload does;
	// the next refresh must pick up the new value
	require.NoError(t, config.SetUserValue("collector.backup", false))

	cfg, client, fileSink, err = refreshCollector(log)
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.False(t, cfg.Collector.Backup)
	assert.False(t, fileSink.Backup)
}

func TestRefreshCollectorRequiresToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HARVEST_API_TOKEN", "")
	chdir(t, t.TempDir())
	config.Reset()
	t.Cleanup(config.Reset)

	_, _, _, err := refreshCollector(zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestNumberedOutputPath(t *testing.T) {
	assert.Equal(t, "properties.part2.json", numberedOutputPath("properties.json", 2))
	assert.Equal(t, "data/out.part1.json", numberedOutputPath("data/out.json", 1))
	assert.Equal(t, "noext.part3", numberedOutputPath("noext", 3))
}
