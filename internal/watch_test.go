package internal

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnoswap-labs/apigate/internal/types"
)

func TestStartStopWatching(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	engine := newTestEngine(t, nil)

	assert.NoError(t, engine.StopWatching(), "stopping an idle engine is a no-op")

	require.NoError(t, engine.StartWatching([]string{dir}, nil))
	assert.Error(t, engine.StartWatching([]string{dir}, nil))
	assert.NoError(t, engine.StopWatching())

	assert.Error(t, engine.StartWatching([]string{dir + "/missing"}, nil))
}

func TestWatchRechecksWrittenFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := writeSource(t, dir, "open.go", "package app\n")

	engine := newTestEngine(t, nil)
	_, err := engine.Run(filename)
	require.NoError(t, err)

	type report struct {
		filename string
		issues   []tt.Issue
	}
	reports := make(chan report, 8)
	require.NoError(t, engine.StartWatching([]string{dir}, func(filename string, issues []tt.Issue) {
		reports <- report{filename, issues}
	}))
	defer engine.StopWatching()

	writeSource(t, dir, "open.go", guardedSource)

	select {
	case r := <-reports:
		assert.Equal(t, filename, r.filename)
		assert.Len(t, r.issues, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("no report after writing the file")
	}
}

func TestIsGoWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "a.go", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "a.go", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "a.go", Op: fsnotify.Remove}, false},
		{fsnotify.Event{Name: "go.mod", Op: fsnotify.Write}, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, isGoWrite(tc.event), "%v", tc.event)
	}
}
