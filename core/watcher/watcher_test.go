package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tristendillon/widgetforge/core/models"
)

func newWatcher(t *testing.T, debounce time.Duration) (*FileWatcherImpl, models.BuildContext) {
	t.Helper()
	root := t.TempDir()
	bc, err := models.NewBuildContext(root, "apps", "modules", "build")
	require.NoError(t, err)
	for _, dir := range []string{
		filepath.Join(bc.AppsDir, "app", "widget"),
		filepath.Join(bc.AppsDir, "other"),
		bc.ModulesDir,
		bc.BuildDir,
	} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(bc.AppsDir, "README.md"), []byte("x"), 0o644))

	fw, err := NewFileWatcher(bc, debounce, []string{"**/*.tmp"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.FileWatcher.Watcher.Close() })
	return fw, bc
}

func TestWorkspaceFor(t *testing.T) {
	t.Parallel()

	fw, bc := newWatcher(t, 0)

	tests := []struct {
		name   string
		path   string
		wantID string
		wantOK bool
	}{
		{"widget file", filepath.Join(bc.AppsDir, "app", "widget", "Home.jsx"), "app", true},
		{"data file", filepath.Join(bc.AppsDir, "other", "data", "hello.txt"), "other", true},
		{"workspace dir", filepath.Join(bc.AppsDir, "other"), "other", true},
		{"module", filepath.Join(bc.ModulesDir, "ui", "button.jsx"), AllWorkspaces, true},
		{"file in apps root", filepath.Join(bc.AppsDir, "README.md"), "", false},
		{"apps dir itself", bc.AppsDir, "", false},
		{"modules dir itself", bc.ModulesDir, "", false},
		{"outside", filepath.Join(bc.ProjectRoot, "widgetforge.yaml"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := fw.WorkspaceFor(tt.path)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantID, id)
		})
	}
}

func TestShouldExcludePath(t *testing.T) {
	t.Parallel()

	fw, bc := newWatcher(t, 0)

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(bc.AppsDir, "app", "widget", "a.js"), false},
		{filepath.Join(bc.ModulesDir, "a.js"), false},
		{filepath.Join(bc.AppsDir, "app", "node_modules", "x", "index.js"), true},
		{filepath.Join(bc.AppsDir, "app", ".git", "HEAD"), true},
		{filepath.Join(bc.AppsDir, "app", "widget", ".a.js.swp"), true},
		{filepath.Join(bc.AppsDir, "app", "widget", "scratch.tmp"), true},
		{filepath.Join(bc.BuildDir, "app", "src", "a.js"), true},
		{filepath.Join(bc.ProjectRoot, "elsewhere", "a.js"), true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, fw.shouldExcludePath(tt.path), tt.path)
	}
}

func TestScheduleCoalescesWorkspaces(t *testing.T) {
	t.Parallel()

	fw, _ := newWatcher(t, 20*time.Millisecond)
	calls := make(chan []string, 4)
	fw.FileWatcher.AddOnChangeFunc(func(changed []string) error {
		calls <- changed
		return nil
	})

	ctx := context.Background()
	fw.schedule(ctx, "other")
	fw.schedule(ctx, "app")
	fw.schedule(ctx, "other")

	select {
	case got := <-calls:
		require.Equal(t, []string{"app", "other"}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("OnChange was not called")
	}

	fw.schedule(ctx, "app")
	fw.schedule(ctx, AllWorkspaces)

	select {
	case got := <-calls:
		require.Nil(t, got)
	case <-time.After(2 * time.Second):
		t.Fatal("OnChange was not called")
	}
}

func TestFireReschedulesWhileRunning(t *testing.T) {
	t.Parallel()

	fw, _ := newWatcher(t, 20*time.Millisecond)
	calls := make(chan []string, 4)
	fw.FileWatcher.AddOnChangeFunc(func(changed []string) error {
		calls <- changed
		return nil
	})

	fw.FileWatcher.Running.Store(true)
	fw.schedule(context.Background(), "app")
	time.Sleep(60 * time.Millisecond)
	require.Empty(t, calls)

	fw.FileWatcher.Running.Store(false)
	select {
	case got := <-calls:
		require.Equal(t, []string{"app"}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("pending rebuild was dropped")
	}
}

func TestWatchReportsChangedWorkspace(t *testing.T) {
	t.Parallel()

	fw, bc := newWatcher(t, 20*time.Millisecond)
	started := make(chan struct{})
	calls := make(chan []string, 8)
	fw.FileWatcher.AddOnStartFunc(func() error {
		close(started)
		return nil
	})
	fw.FileWatcher.AddOnChangeFunc(func(changed []string) error {
		calls <- changed
		return nil
	})
	fw.FileWatcher.AddOnCloseFunc(func() error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Watch(ctx) }()

	<-started
	require.NoError(t, os.WriteFile(filepath.Join(bc.AppsDir, "app", "widget", "Home.jsx"), []byte("x"), 0o644))

	select {
	case got := <-calls:
		require.Equal(t, []string{"app"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild for changed workspace")
	}

	cancel()
	require.NoError(t, <-done)
}
