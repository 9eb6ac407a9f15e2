package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID string `json:"id"`
}

func TestLogAppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "log.json")
	l := NewLog[entry](path, 10)

	assert.Empty(t, l.Load())

	require.NoError(t, l.Append(entry{ID: "a"}))
	require.NoError(t, l.Append(entry{ID: "b"}))

	got := l.Load()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, 2, l.Len())
}

func TestLogCapsAtCapacityDroppingOldest(t *testing.T) {
	l := NewLog[entry](filepath.Join(t.TempDir(), "log.json"), 3)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, l.Append(entry{ID: id}))
	}

	got := l.Load()
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "e", got[2].ID)
}

func TestLogTreatsCorruptFileAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	l := NewLog[entry](path, 10)
	assert.Empty(t, l.Load())

	// Appending over the corrupt file starts fresh.
	require.NoError(t, l.Append(entry{ID: "new"}))
	assert.Len(t, l.Load(), 1)
}

func TestLogRecentNewestFirst(t *testing.T) {
	l := NewLog[entry](filepath.Join(t.TempDir(), "log.json"), 10)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, l.Append(entry{ID: id}))
	}

	got := l.Recent(2)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	// n beyond the log size, or 0, returns everything.
	assert.Len(t, l.Recent(10), 3)
	assert.Len(t, l.Recent(0), 3)
	assert.Equal(t, "c", l.Recent(0)[0].ID)
}

func TestLogDefaultCap(t *testing.T) {
	l := NewLog[entry](filepath.Join(t.TempDir(), "log.json"), 0)
	assert.Equal(t, DefaultCap, l.cap)
}
