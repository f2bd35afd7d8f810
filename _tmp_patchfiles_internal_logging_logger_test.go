package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronousWriteCreatesDailyFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(&Config{Level: LevelInfo, Dir: dir})
	require.NoError(t, err)
	defer l.Close()

	l.Info("hello", "k", "v")
	l.Flush()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), time.Now().Format("2006_01_02"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello k=v")
	assert.Contains(t, string(data), "[info]")
}

func TestLevelBelowThresholdIsDropped(t *testing.T) {
	dir := t.TempDir()
	l, err := New(&Config{Level: LevelWarn, Dir: dir})
	require.NoError(t, err)
	defer l.Close()

	l.Debug("should not appear")
	l.Info("also should not appear")
	l.Warn("this one shows up")
	l.Flush()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should not appear")
	assert.Contains(t, string(data), "this one shows up")
}

func TestAsyncModeDrainsOnClose(t *testing.T) {
	dir := t.TempDir()
	l, err := New(&Config{Level: LevelInfo, Dir: dir, QueueSize: 4})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		l.Info("line")
	}
	require.NoError(t, l.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	count := 0
	for _, b := range data {
		if b == '\n' {
			count++
		}
	}
	assert.Equal(t, 20, count)
}

func TestSegmentRotatesAfterMaxLines(t *testing.T) {
	dir := t.TempDir()
	l, err := New(&Config{Level: LevelInfo, Dir: dir})
	require.NoError(t, err)
	defer l.Close()

	l.lines = maxLinesPerFile - 1
	l.Info("triggers rollover")
	l.Flush()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}


