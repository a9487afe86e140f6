package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistWritesIndentedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	s := New(false, nil)
	records := []json.RawMessage{
		json.RawMessage(`{"zpid": 1}`),
		json.RawMessage(`{"zpid": 2}`),
	}
	require.NoError(t, s.Persist(records, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ", "output should be indented")

	var got []map[string]int
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0]["zpid"])
	assert.Equal(t, 2, got[1]["zpid"])
}

func TestPersistCreatesOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "out.json")

	s := New(false, nil)
	require.NoError(t, s.Persist([]json.RawMessage{json.RawMessage(`{}`)}, path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestPersistBacksUpPriorFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	s := New(true, nil)
	// Fixed clocks so the two backups get distinct names
	s.now = func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) }
	require.NoError(t, s.Persist([]json.RawMessage{json.RawMessage(`{"v": 1}`)}, path))

	s.now = func() time.Time { return time.Date(2026, 8, 29, 10, 0, 1, 0, time.UTC) }
	require.NoError(t, s.Persist([]json.RawMessage{json.RawMessage(`{"v": 2}`)}, path))

	backups, err := filepath.Glob(path + ".bak_*")
	require.NoError(t, err)
	require.Len(t, backups, 1)

	backupData, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Contains(t, string(backupData), `"v": 1`)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(current), `"v": 2`)
}

func TestPersistWithoutBackupOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	s := New(false, nil)
	require.NoError(t, s.Persist([]json.RawMessage{json.RawMessage(`{"v": 1}`)}, path))
	require.NoError(t, s.Persist([]json.RawMessage{json.RawMessage(`{"v": 2}`)}, path))

	backups, err := filepath.Glob(path + ".bak_*")
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestPersistEmptyResultSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	s := New(false, nil)
	require.NoError(t, s.Persist([]json.RawMessage{}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestPersistLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	s := New(false, nil)
	require.NoError(t, s.Persist([]json.RawMessage{json.RawMessage(`{}`)}, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.json", entries[0].Name())
}
