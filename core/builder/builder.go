// Package builder runs the per-workspace pipeline: config, stage, aggregate.
package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/tristendillon/widgetforge/core/aggregator"
	"github.com/tristendillon/widgetforge/core/bundle"
	"github.com/tristendillon/widgetforge/core/cache"
	"github.com/tristendillon/widgetforge/core/config"
	"github.com/tristendillon/widgetforge/core/directive"
	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/models"
	"github.com/tristendillon/widgetforge/core/modules"
	"github.com/tristendillon/widgetforge/core/stager"
	"golang.org/x/sync/errgroup"
)

// Result is what one successful workspace build produced.
type Result struct {
	Workspace models.Workspace
	Config    *config.WorkspaceConfig
	Tree      *models.StagedTree
	Data      models.DataNode
}

type Builder struct {
	bc    models.BuildContext
	files *cache.FileCache
	locks sync.Map
}

func NewBuilder(bc models.BuildContext) *Builder {
	return &Builder{
		bc:    bc,
		files: cache.NewFileCache(nil),
	}
}

func (b *Builder) BuildContext() models.BuildContext {
	return b.bc
}

// Invalidate drops any cached module text for path.
func (b *Builder) Invalidate(path string) {
	b.files.InvalidateFile(path)
}

// Discover lists the workspaces under the apps dir in sorted order.
func (b *Builder) Discover() ([]models.Workspace, error) {
	entries, err := os.ReadDir(b.bc.AppsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read apps dir %s: %w", b.bc.AppsDir, err)
	}

	var workspaces []models.Workspace
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		workspaces = append(workspaces, b.bc.Workspace(entry.Name()))
	}
	return workspaces, nil
}

func (b *Builder) lock(id string) func() {
	mu, _ := b.locks.LoadOrStore(id, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// BuildWorkspace runs the pipeline for one workspace. Builds of the same
// workspace never overlap.
func (b *Builder) BuildWorkspace(ctx context.Context, id string) (*Result, error) {
	ws := b.bc.Workspace(id)
	if _, err := os.Stat(ws.Root); err != nil {
		return nil, fmt.Errorf("workspace %s: %w", id, err)
	}

	unlock := b.lock(id)
	defer unlock()

	logger.Debug("Building workspace %s", id)

	cfg, err := config.LoadWorkspace(ws)
	if err != nil {
		return nil, err
	}

	lib, err := modules.NewLibrary(b.bc.ModulesDir, b.files)
	if err != nil {
		return nil, err
	}
	proc := directive.NewProcessor(cfg.Aliases, cfg.CreatorAccount, lib)

	tree, err := stager.NewTreeStager(b.bc).Stage(ctx, ws, proc)
	if err != nil {
		return nil, fmt.Errorf("workspace %s: %w", id, err)
	}

	data, err := aggregator.NewDataAggregator(b.bc).Aggregate(ctx, ws, proc)
	if err != nil {
		return nil, err
	}

	logger.Info("Built %s: %d staged files, %d data entries", id, len(tree.Files), len(data))
	return &Result{Workspace: ws, Config: cfg, Tree: tree, Data: data}, nil
}

// IsFatal reports whether err must abort a whole build run.
func IsFatal(err error) bool {
	return errors.Is(err, modules.ErrModuleNotFound) || errors.Is(err, directive.ErrImportCycle)
}

// BuildAll builds ids concurrently, or every discovered workspace when ids is
// empty. A fatal error cancels the run and is returned alone. Other failures
// are logged and returned joined once every workspace has finished.
func (b *Builder) BuildAll(ctx context.Context, ids []string) ([]*Result, error) {
	ids, err := b.resolveIDs(ids)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(ids))
	var (
		mu     sync.Mutex
		failed []error
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			res, err := b.BuildWorkspace(gctx, id)
			if err == nil {
				results[i] = res
				return nil
			}
			if IsFatal(err) {
				return err
			}
			logger.Error("Build failed: %v", err)
			mu.Lock()
			failed = append(failed, err)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build aborted: %w", err)
	}

	built := make([]*Result, 0, len(results))
	for _, res := range results {
		if res != nil {
			built = append(built, res)
		}
	}

	logger.Debug("File cache holds %d entries", b.files.Len())
	return built, errors.Join(failed...)
}

// DevBundle assembles and merges the bundles of ids in order. A workspace is
// read under its build lock so a rebuild in flight is never observed.
func (b *Builder) DevBundle(ids []string) (*bundle.DevBundle, error) {
	ids, err := b.resolveIDs(ids)
	if err != nil {
		return nil, err
	}

	assembler := bundle.NewAssembler(b.bc)
	bundles := make([]*bundle.DevBundle, 0, len(ids))
	for _, id := range ids {
		bnd, err := b.assemble(assembler, id)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, bnd)
	}
	return bundle.Merge(bundles...), nil
}

func (b *Builder) assemble(assembler *bundle.Assembler, id string) (*bundle.DevBundle, error) {
	unlock := b.lock(id)
	defer unlock()

	ws := b.bc.Workspace(id)
	cfg, err := config.LoadWorkspace(ws)
	if err != nil {
		return nil, err
	}
	return assembler.Assemble(ws, cfg)
}

func (b *Builder) resolveIDs(ids []string) ([]string, error) {
	if len(ids) > 0 {
		return ids, nil
	}
	workspaces, err := b.Discover()
	if err != nil {
		return nil, err
	}
	ids = make([]string, len(workspaces))
	for i, ws := range workspaces {
		ids[i] = ws.ID
	}
	return ids, nil
}
