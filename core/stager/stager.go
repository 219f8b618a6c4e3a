// Package stager mirrors a workspace's widget sources into the build dir and
// rewrites the copies in place.
package stager

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tristendillon/widgetforge/core/directive"
	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/models"
	"github.com/tristendillon/widgetforge/core/shared"
	"golang.org/x/sync/errgroup"
)

type TreeStager struct {
	bc      models.BuildContext
	workers int
}

func NewTreeStager(bc models.BuildContext) *TreeStager {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	return &TreeStager{bc: bc, workers: workers}
}

// Stage rebuilds the staging tree for ws from scratch. Every file is copied
// before any file is transformed.
func (ts *TreeStager) Stage(ctx context.Context, ws models.Workspace, proc *directive.Processor) (*models.StagedTree, error) {
	root := ts.bc.StagingRoot(ws)
	tree := &models.StagedTree{Workspace: ws.ID, Root: root}

	if err := os.RemoveAll(root); err != nil {
		return nil, fmt.Errorf("failed to clear staging dir %s: %w", root, err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir %s: %w", root, err)
	}

	widgetDir := ts.bc.WidgetDir(ws)
	sources, err := listFiles(widgetDir)
	if err != nil {
		return nil, err
	}
	if sources == nil {
		logger.Warn("Workspace %s has no %s dir; nothing to stage", ws.ID, models.WidgetSourceDir)
		return tree, nil
	}

	tree.Files = make([]models.StagedFile, len(sources))
	for i, rel := range sources {
		tree.Files[i] = models.StagedFile{
			RelPath: shared.SplitPath(rel),
			AbsPath: filepath.Join(root, filepath.FromSlash(rel)),
		}
	}

	if err := ts.copyAll(ctx, widgetDir, sources, tree); err != nil {
		return nil, err
	}
	logger.Debug("Copied %d files for workspace %s into %s", len(sources), ws.ID, root)

	if err := ts.transformAll(ctx, tree, proc); err != nil {
		return nil, err
	}
	logger.Debug("Transformed %d of %d staged files for workspace %s", tree.Transformed(), len(tree.Files), ws.ID)

	return tree, nil
}

func (ts *TreeStager) copyAll(ctx context.Context, widgetDir string, sources []string, tree *models.StagedTree) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ts.workers)

	for i, rel := range sources {
		src := filepath.Join(widgetDir, filepath.FromSlash(rel))
		dst := tree.Files[i].AbsPath
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return copyFile(src, dst)
		})
	}

	return g.Wait()
}

func (ts *TreeStager) transformAll(ctx context.Context, tree *models.StagedTree, proc *directive.Processor) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ts.workers)

	for i := range tree.Files {
		file := &tree.Files[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return transformFile(file, proc)
		})
	}

	return g.Wait()
}

func transformFile(file *models.StagedFile, proc *directive.Processor) error {
	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return fmt.Errorf("failed to read staged file %s: %w", file.AbsPath, err)
	}

	if !IsText(content) {
		file.Binary = true
		logger.Debug("Leaving binary file untouched: %s", file.AbsPath)
		return nil
	}

	result, err := proc.Process(string(content))
	if err != nil {
		return fmt.Errorf("failed to process %s: %w", file.AbsPath, err)
	}
	if result.Skipped {
		file.Skipped = true
		logger.Debug("Skipping marked file: %s", file.AbsPath)
		return nil
	}

	if err := os.WriteFile(file.AbsPath, []byte(result.Text), 0644); err != nil {
		return fmt.Errorf("failed to write staged file %s: %w", file.AbsPath, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read source file %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create target directory for %s: %w", dst, err)
	}
	if err := os.WriteFile(dst, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// listFiles returns the slash paths of all regular files under dir, sorted.
// A missing dir returns nil.
func listFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**", doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("failed to list files in %s: %w", dir, err)
	}
	sort.Strings(matches)
	if matches == nil {
		matches = []string{}
	}
	return matches, nil
}

// IsText reports whether content looks like UTF-8 text.
func IsText(content []byte) bool {
	return utf8.Valid(content) && !bytes.ContainsRune(content, 0)
}
