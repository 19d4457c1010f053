package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesBatchDir(t *testing.T) {
	dir := t.TempDir()
	store, err := New("batch-123", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "batches", "batch-123"), store.BaseDir)
	info, err := os.Stat(filepath.Join(store.BaseDir, "actions"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriteActionOutput(t *testing.T) {
	store, err := New("batch-456", t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteActionOutput("git", "out-data", "err-data"))

	stdout, err := os.ReadFile(filepath.Join(store.BaseDir, "actions", "git.stdout"))
	require.NoError(t, err)
	assert.Equal(t, "out-data", string(stdout))
	stderr, err := os.ReadFile(filepath.Join(store.BaseDir, "actions", "git.stderr"))
	require.NoError(t, err)
	assert.Equal(t, "err-data", string(stderr))
}

func TestWriteActionOutputSkipsEmptyStreams(t *testing.T) {
	store, err := New("batch-1", t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteActionOutput("quiet", "", ""))
	entries, err := os.ReadDir(filepath.Join(store.BaseDir, "actions"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteActionOutputSanitizesID(t *testing.T) {
	store, err := New("batch-2", t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteActionOutput(`Hide Desktop Icons/..\x`, "ok", ""))
	_, err = os.Stat(filepath.Join(store.BaseDir, "actions", "Hide_Desktop_Icons_.._x.stdout"))
	assert.NoError(t, err)
}

func TestWriteReport(t *testing.T) {
	store, err := New("batch-789", t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteReport(map[string][]string{"succeeded": {"a"}}))

	data, err := os.ReadFile(filepath.Join(store.BaseDir, "report.json"))
	require.NoError(t, err)
	var obj map[string][]string
	require.NoError(t, json.Unmarshal(data, &obj))
	assert.Equal(t, []string{"a"}, obj["succeeded"])
}

func TestRemove(t *testing.T) {
	store, err := New("batch-x", t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Remove())
	_, err = os.Stat(store.BaseDir)
	assert.True(t, os.IsNotExist(err))
}
