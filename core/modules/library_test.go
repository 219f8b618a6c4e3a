package modules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestLibraryLookup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"module1.js":    "module1 content",
		"ui/button.jsx": "<button/>",
		"theme.dark.js": "dark",
		"ui/button.tsx": "shadowed",
	})

	lib, err := NewLibrary(dir, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"module1", "theme.dark", "ui/button"}, lib.Names())

	got, err := lib.Lookup("module1")
	require.NoError(t, err)
	require.Equal(t, "module1 content", got)

	got, err = lib.Lookup("ui/button")
	require.NoError(t, err)
	require.Equal(t, "<button/>", got)

	_, err = lib.Lookup("missing")
	require.ErrorIs(t, err, ErrModuleNotFound)
}

func TestLibraryMissingDir(t *testing.T) {
	t.Parallel()

	lib, err := NewLibrary(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	require.Empty(t, lib.Names())

	_, err = lib.Lookup("anything")
	require.ErrorIs(t, err, ErrModuleNotFound)
}

func TestLibraryReadsCurrentContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"m.js": "one"})

	lib, err := NewLibrary(dir, nil)
	require.NoError(t, err)

	got, err := lib.Lookup("m")
	require.NoError(t, err)
	require.Equal(t, "one", got)

	require.NoError(t, os.Remove(filepath.Join(dir, "m.js")))
	_, err = lib.Lookup("m")
	require.ErrorIs(t, err, os.ErrNotExist)
}
