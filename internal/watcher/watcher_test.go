package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisframe/axis/internal/logging"
)

func TestFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter FileFilter
		path   string
		want   bool
	}{
		{"tsx source accepted", SourceFilter, "/p/components/Button.tsx", true},
		{"css not a source", SourceFilter, "/p/components/button.css", false},
		{"scss stylesheet accepted", StylesheetFilter, "/p/app/main.scss", true},
		{"project filter spans both", ProjectFilter, "/p/app/main.less", true},
		{"project filter rejects binaries", ProjectFilter, "/p/logo.png", false},
		{"test file rejected", NoTestFilter, "/p/components/Button.test.tsx", false},
		{"spec file rejected", NoTestFilter, "/p/components/Button.spec.ts", false},
		{"plain source passes test filter", NoTestFilter, "/p/components/Button.tsx", true},
		{"node_modules rejected", NoNodeModulesFilter, "/p/node_modules/react/index.js", false},
		{"git rejected", NoGitFilter, "/p/.git/HEAD", false},
		{"dotfile rejected", NoHiddenFilter, "/p/.env", false},
		{"normal file passes hidden filter", NoHiddenFilter, "/p/app/main.ts", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter(tt.path))
		})
	}
}

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := &Debouncer{
		delay:   30 * time.Millisecond,
		events:  make(chan ChangeEvent, 100),
		output:  make(chan []ChangeEvent, 10),
		pending: make([]ChangeEvent, 0),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.start(ctx)

	// A burst of writes to the same file within the window yields one
	// batch with one event.
	for i := 0; i < 5; i++ {
		d.events <- ChangeEvent{Type: EventTypeModified, Path: "/p/a.tsx"}
	}

	select {
	case batch := <-d.output:
		assert.Len(t, batch, 1)
		assert.Equal(t, "/p/a.tsx", batch[0].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never flushed")
	}
}

func TestDebouncer_DistinctPathsSurvive(t *testing.T) {
	d := &Debouncer{
		delay:   30 * time.Millisecond,
		events:  make(chan ChangeEvent, 100),
		output:  make(chan []ChangeEvent, 10),
		pending: make([]ChangeEvent, 0),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.start(ctx)

	d.events <- ChangeEvent{Type: EventTypeModified, Path: "/p/a.tsx"}
	d.events <- ChangeEvent{Type: EventTypeModified, Path: "/p/b.tsx"}

	select {
	case batch := <-d.output:
		assert.Len(t, batch, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never flushed")
	}
}

func TestFileWatcher_ReportsChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "components"), 0o755))

	fw, err := NewFileWatcher(root, 30*time.Millisecond, logging.Discard())
	require.NoError(t, err)
	defer fw.Stop()

	var mu sync.Mutex
	var seen []ChangeEvent
	fw.AddFilter(SourceFilter)
	fw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		seen = append(seen, events...)
		mu.Unlock()
		return nil
	})
	require.NoError(t, fw.AddRecursive(filepath.Join(root, "components")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	target := filepath.Join(root, "components", "Button.tsx")
	require.NoError(t, os.WriteFile(target, []byte("export default 1;"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range seen {
			if e.Path == target {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}

func TestFileWatcher_RejectsOutsideRoot(t *testing.T) {
	root := t.TempDir()
	fw, err := NewFileWatcher(root, DefaultDebounce, logging.Discard())
	require.NoError(t, err)
	defer fw.Stop()

	assert.Error(t, fw.AddRecursive("/"))
	assert.Error(t, fw.AddRecursive(filepath.Join(root, "..")))
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "created", EventTypeCreated.String())
	assert.Equal(t, "deleted", EventTypeDeleted.String())
}
