package models

import (
	"fmt"
	"path/filepath"
)

const (
	StagedSourceDir = "src"
	WidgetSourceDir = "widget"
	DataArtifact    = "data.json"
)

// BuildContext carries the root directories every stage works against.
// All paths are absolute.
type BuildContext struct {
	ProjectRoot string
	AppsDir     string
	ModulesDir  string
	BuildDir    string
}

func NewBuildContext(projectRoot, appsDir, modulesDir, buildDir string) (BuildContext, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return BuildContext{}, fmt.Errorf("failed to resolve project root %s: %w", projectRoot, err)
	}
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(root, p)
	}
	return BuildContext{
		ProjectRoot: root,
		AppsDir:     resolve(appsDir),
		ModulesDir:  resolve(modulesDir),
		BuildDir:    resolve(buildDir),
	}, nil
}

// Workspace is one app under the apps dir.
type Workspace struct {
	ID   string
	Root string
}

func (bc BuildContext) Workspace(id string) Workspace {
	return Workspace{ID: id, Root: filepath.Join(bc.AppsDir, id)}
}

func (bc BuildContext) WidgetDir(ws Workspace) string {
	return filepath.Join(ws.Root, WidgetSourceDir)
}

func (bc BuildContext) OutputDir(ws Workspace) string {
	return filepath.Join(bc.BuildDir, ws.ID)
}

func (bc BuildContext) StagingRoot(ws Workspace) string {
	return filepath.Join(bc.OutputDir(ws), StagedSourceDir)
}

func (bc BuildContext) DataPath(ws Workspace) string {
	return filepath.Join(bc.OutputDir(ws), DataArtifact)
}
