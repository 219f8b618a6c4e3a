// Package bundle assembles staged widget code and aggregated data into the
// document served to a live client.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tristendillon/widgetforge/core/aggregator"
	"github.com/tristendillon/widgetforge/core/config"
	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/models"
	"github.com/tristendillon/widgetforge/core/shared"
	"github.com/tristendillon/widgetforge/core/stager"
)

type Component struct {
	Code string `json:"code"`
}

// DevBundle is built fresh per request and never mutated once published.
type DevBundle struct {
	Components map[string]Component `json:"components"`
	Data       map[string]any       `json:"data"`
}

func Empty() *DevBundle {
	return &DevBundle{
		Components: map[string]Component{},
		Data:       map[string]any{},
	}
}

// WidgetKey derives "<account>/widget/<dotted path without extension>".
func WidgetKey(account string, relPath []string) string {
	segments := append([]string(nil), relPath...)
	if n := len(segments); n > 0 {
		segments[n-1] = shared.TrimExt(segments[n-1])
	}
	return account + "/widget/" + shared.JoinSegments(segments, ".")
}

type Assembler struct {
	bc models.BuildContext
}

func NewAssembler(bc models.BuildContext) *Assembler {
	return &Assembler{bc: bc}
}

// Assemble reads the staged tree and data artifact of an already built
// workspace. Without a creator account it returns an empty bundle.
func (a *Assembler) Assemble(ws models.Workspace, cfg *config.WorkspaceConfig) (*DevBundle, error) {
	b := Empty()
	if cfg == nil || !cfg.HasAccount() {
		logger.Warn("Workspace %s has no creatorAccount; serving an empty bundle for it", ws.ID)
		return b, nil
	}
	account := cfg.CreatorAccount

	doc, err := aggregator.LoadDocument(a.bc.DataPath(ws))
	if err != nil {
		return nil, fmt.Errorf("workspace %s: %w", ws.ID, err)
	}
	b.Data[account] = doc

	root := a.bc.StagingRoot(ws)
	files, err := doublestar.Glob(os.DirFS(root), "**", doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("workspace %s: failed to list staged files in %s: %w", ws.ID, root, err)
	}
	sort.Strings(files)

	for _, rel := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		content, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("workspace %s: failed to read staged file %s: %w", ws.ID, abs, err)
		}
		if !stager.IsText(content) {
			continue
		}
		key := WidgetKey(account, shared.SplitPath(rel))
		b.Components[key] = Component{Code: string(content)}
	}

	logger.Debug("Assembled %d components for %s", len(b.Components), account)
	return b, nil
}

// Merge combines bundles in order; later bundles win on key collisions.
func Merge(bundles ...*DevBundle) *DevBundle {
	out := Empty()
	for _, b := range bundles {
		if b == nil {
			continue
		}
		for k, v := range b.Components {
			out.Components[k] = v
		}
		for k, v := range b.Data {
			out.Data[k] = v
		}
	}
	return out
}

// Keys returns the sorted component keys.
func (b *DevBundle) Keys() []string {
	keys := make([]string, 0, len(b.Components))
	for k := range b.Components {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *DevBundle) String() string {
	accounts := make([]string, 0, len(b.Data))
	for k := range b.Data {
		accounts = append(accounts, k)
	}
	sort.Strings(accounts)
	return fmt.Sprintf("%d components, data for [%s]", len(b.Components), strings.Join(accounts, ", "))
}
