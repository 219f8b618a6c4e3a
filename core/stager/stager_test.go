package stager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tristendillon/widgetforge/core/directive"
	"github.com/tristendillon/widgetforge/core/models"
	"github.com/tristendillon/widgetforge/core/modules"
)

func setup(t *testing.T, files map[string]string) (models.BuildContext, models.Workspace) {
	t.Helper()
	root := t.TempDir()
	bc, err := models.NewBuildContext(root, "apps", "modules", "build")
	require.NoError(t, err)
	ws := bc.Workspace("app")
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return bc, ws
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestStageCopiesThenTransforms(t *testing.T) {
	t.Parallel()

	testSrc := "return '/*__@replace:test__*/' + '/*__@creatorAccount__*/';"
	skipSrc := "/*__@skip__*/ return '/*__@replace:test__*/';"
	bc, ws := setup(t, map[string]string{
		"apps/app/widget/test.js": testSrc,
		"apps/app/widget/skip.js": skipSrc,
	})

	lib, err := modules.NewLibrary(bc.ModulesDir, nil)
	require.NoError(t, err)
	proc := directive.NewProcessor(map[string]string{"test": "testAlias"}, "testAccount", lib)

	tree, err := NewTreeStager(bc).Stage(context.Background(), ws, proc)
	require.NoError(t, err)
	require.Len(t, tree.Files, 2)
	require.Equal(t, filepath.Join(bc.BuildDir, "app", "src"), tree.Root)

	require.Equal(t, []string{"skip.js"}, tree.Files[0].RelPath)
	require.True(t, tree.Files[0].Skipped)
	require.Equal(t, []string{"test.js"}, tree.Files[1].RelPath)
	require.False(t, tree.Files[1].Skipped)
	require.Equal(t, 1, tree.Transformed())

	require.Equal(t, skipSrc, readFile(t, filepath.Join(tree.Root, "skip.js")))
	require.Equal(t, "return 'testAlias' + 'testAccount';", readFile(t, filepath.Join(tree.Root, "test.js")))

	// Sources are never touched.
	require.Equal(t, testSrc, readFile(t, filepath.Join(ws.Root, "widget", "test.js")))
}

func TestStagePreservesNestedStructure(t *testing.T) {
	t.Parallel()

	bc, ws := setup(t, map[string]string{
		"apps/app/widget/Layout/Modal/index.jsx": "<Modal/>",
		"modules/shared.js":                      "shared()",
		"apps/app/widget/Home.jsx":               "/*__@import:shared__*/",
	})
	lib, err := modules.NewLibrary(bc.ModulesDir, nil)
	require.NoError(t, err)

	tree, err := NewTreeStager(bc).Stage(context.Background(), ws, directive.NewProcessor(nil, "", lib))
	require.NoError(t, err)
	require.Len(t, tree.Files, 2)
	require.Equal(t, "Home.jsx", tree.Files[0].Key())
	require.Equal(t, "Layout/Modal/index.jsx", tree.Files[1].Key())
	require.Equal(t, "shared()", readFile(t, filepath.Join(tree.Root, "Home.jsx")))
	require.Equal(t, "<Modal/>", readFile(t, filepath.Join(tree.Root, "Layout", "Modal", "index.jsx")))
}

func TestStageIsNeverIncremental(t *testing.T) {
	t.Parallel()

	bc, ws := setup(t, map[string]string{"apps/app/widget/a.js": "a"})
	stale := filepath.Join(bc.StagingRoot(ws), "stale.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err := NewTreeStager(bc).Stage(context.Background(), ws, directive.NewProcessor(nil, "", nil))
	require.NoError(t, err)
	require.NoFileExists(t, stale)
	require.FileExists(t, filepath.Join(bc.StagingRoot(ws), "a.js"))
}

func TestStageMissingModuleFails(t *testing.T) {
	t.Parallel()

	bc, ws := setup(t, map[string]string{"apps/app/widget/a.js": "/*__@import:nope__*/"})
	lib, err := modules.NewLibrary(bc.ModulesDir, nil)
	require.NoError(t, err)

	_, err = NewTreeStager(bc).Stage(context.Background(), ws, directive.NewProcessor(nil, "", lib))
	require.ErrorIs(t, err, modules.ErrModuleNotFound)
}

func TestStageBinaryAndMissingWidgetDir(t *testing.T) {
	t.Parallel()

	bc, ws := setup(t, map[string]string{"apps/app/widget/logo.bin": "\x00\xffdata /*__@creatorAccount__*/"})
	tree, err := NewTreeStager(bc).Stage(context.Background(), ws, directive.NewProcessor(nil, "acct", nil))
	require.NoError(t, err)
	require.True(t, tree.Files[0].Binary)
	require.Equal(t, "\x00\xffdata /*__@creatorAccount__*/", readFile(t, tree.Files[0].AbsPath))

	empty := bc.Workspace("data-only")
	tree, err = NewTreeStager(bc).Stage(context.Background(), empty, directive.NewProcessor(nil, "", nil))
	require.NoError(t, err)
	require.Empty(t, tree.Files)
	require.DirExists(t, bc.StagingRoot(empty))
}

func TestStageHonoursCancellation(t *testing.T) {
	t.Parallel()

	bc, ws := setup(t, map[string]string{"apps/app/widget/a.js": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTreeStager(bc).Stage(ctx, ws, directive.NewProcessor(nil, "", nil))
	require.ErrorIs(t, err, context.Canceled)
}
