package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tristendillon/widgetforge/core/builder"
	"github.com/tristendillon/widgetforge/core/bundle"
	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/server"
	"github.com/tristendillon/widgetforge/core/watcher"
	"golang.org/x/sync/errgroup"
)

var (
	devHost string
	devPort int
	noWatch bool
)

// devCmd represents the dev command
var devCmd = &cobra.Command{
	Use:   "dev [workspace...]",
	Short: "Build, serve and rebuild workspaces on change",
	Long: `Builds the given workspaces (all when none are named), serves the merged dev
bundle at /api/loader and rebuilds whenever a workspace or module changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b := builder.NewBuilder(bc)
		srv := server.NewServer(cfg.Addr())

		rebuild := func(changed []string) error {
			if len(args) > 0 {
				changed = intersect(args, changed)
				if changed == nil {
					return nil
				}
			}
			if _, err := b.BuildAll(ctx, changed); err != nil {
				logger.Error("Rebuild failed: %v", err)
			}
			srv.Publish(assemble(b, args))
			return nil
		}

		if err := rebuild(args); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Run(gctx)
		})

		if !noWatch {
			fw, err := watcher.NewFileWatcher(bc, cfg.Watch.Debounce, nil)
			if err != nil {
				return err
			}
			fw.SetInvalidator(b.Invalidate)
			fw.FileWatcher.AddOnStartFunc(func() error {
				logger.Info("Watching %s and %s for changes", bc.AppsDir, bc.ModulesDir)
				return nil
			})
			fw.FileWatcher.AddOnChangeFunc(rebuild)
			fw.FileWatcher.AddOnCloseFunc(func() error {
				logger.Debug("Watcher closed")
				return nil
			})
			g.Go(func() error {
				return fw.Watch(gctx)
			})
		}

		return g.Wait()
	},
}

// assemble builds the served snapshot. A workspace that cannot be assembled
// is left out so the rest stay available.
func assemble(b *builder.Builder, ids []string) *bundle.DevBundle {
	if len(ids) == 0 {
		workspaces, err := b.Discover()
		if err != nil {
			logger.Error("%v", err)
			return bundle.Empty()
		}
		for _, ws := range workspaces {
			ids = append(ids, ws.ID)
		}
	}

	bundles := make([]*bundle.DevBundle, 0, len(ids))
	for _, id := range ids {
		bnd, err := b.DevBundle([]string{id})
		if err != nil {
			logger.Warn("Leaving %s out of the dev bundle: %v", id, err)
			continue
		}
		bundles = append(bundles, bnd)
	}
	return bundle.Merge(bundles...)
}

// intersect keeps the selected workspaces touched by changed. A nil changed
// means every workspace changed.
func intersect(selected, changed []string) []string {
	if changed == nil {
		return selected
	}
	var out []string
	for _, id := range changed {
		for _, s := range selected {
			if s == id {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(devCmd)

	devCmd.Flags().StringVar(&devHost, "host", "", "Address to bind (overrides server.host)")
	devCmd.Flags().IntVar(&devPort, "port", 0, "Port to serve on (overrides server.port)")
	devCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Build and serve once without watching")
}

