// Package aggregator merges a workspace's data files into one nested document.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tristendillon/widgetforge/core/directive"
	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/models"
	"github.com/tristendillon/widgetforge/core/shared"
)

const (
	StructuredExt = ".jsonc"
	TextExt       = ".txt"
)

// DataPattern selects data-bearing files relative to the workspace root.
var DataPattern = "**/*.{jsonc,txt}"

// DataAggregator holds no per-call state and may serve concurrent builds.
type DataAggregator struct {
	bc models.BuildContext
}

func NewDataAggregator(bc models.BuildContext) *DataAggregator {
	return &DataAggregator{bc: bc}
}

// Aggregate builds the data document for ws and writes it to the workspace's
// data artifact. Files are merged in sorted path order.
func (a *DataAggregator) Aggregate(ctx context.Context, ws models.Workspace, proc *directive.Processor) (models.DataNode, error) {
	files, err := doublestar.Glob(os.DirFS(ws.Root), DataPattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("failed to list data files in %s: %w", ws.Root, err)
	}
	sort.Strings(files)

	tree := models.NewDataTree()
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := addFile(tree, ws, rel, proc); err != nil {
			return nil, err
		}
	}

	if logger.IsVerbose() {
		logger.Debug("Data document for workspace %s:", ws.ID)
		tree.PrintTree(logger.DEBUG)
	}

	if err := a.persist(ws, tree); err != nil {
		return nil, err
	}
	return tree.Root, nil
}

func addFile(tree *models.DataTree, ws models.Workspace, rel string, proc *directive.Processor) error {
	abs := filepath.Join(ws.Root, filepath.FromSlash(rel))
	raw, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("failed to read data file %s: %w", abs, err)
	}
	content := string(raw)

	if directive.ShouldIgnore(content) {
		logger.Debug("Ignoring marked data file: %s", abs)
		return nil
	}

	var value any
	switch path.Ext(rel) {
	case StructuredExt:
		value, err = structuredValue(content, proc)
		if err != nil {
			return fmt.Errorf("workspace %s: data file %s: %w", ws.ID, abs, err)
		}
	case TextExt:
		value = content
	default:
		return nil
	}

	segments := shared.SplitPath(rel)
	segments[len(segments)-1] = shared.TrimExt(segments[len(segments)-1])
	if err := tree.Insert(segments, value); err != nil {
		return fmt.Errorf("failed to insert %s: %w", abs, err)
	}
	return nil
}

// structuredValue applies alias and account substitution, then either parses
// the comment-free text (noStringify) or compacts it to a string leaf.
func structuredValue(content string, proc *directive.Processor) (any, error) {
	parse := directive.ShouldParse(content)
	if proc != nil {
		content = proc.Substitute(content)
	}
	stripped := StripComments(content)

	if !parse {
		return Compact(stripped), nil
	}

	var value any
	if err := json.Unmarshal([]byte(stripped), &value); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return value, nil
}

func (a *DataAggregator) persist(ws models.Workspace, tree *models.DataTree) error {
	out := a.bc.DataPath(ws)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", filepath.Dir(out), err)
	}

	data, err := json.MarshalIndent(tree.Root, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data document for workspace %s: %w", ws.ID, err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	logger.Debug("Wrote %d data entries for workspace %s to %s", tree.Entries, ws.ID, out)
	return nil
}

// LoadDocument reads a previously persisted data artifact.
func LoadDocument(path string) (models.DataNode, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data document %s: %w", path, err)
	}
	doc := models.DataNode{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode data document %s: %w", path, err)
	}
	return doc, nil
}
