package models

import "strings"

// StagedFile is a copy of a widget source file owned by the staging tree,
// addressed by its path segments relative to the widget dir. Binary files are
// copied but never transformed.
type StagedFile struct {
	RelPath []string
	AbsPath string
	Skipped bool
	Binary  bool
}

func (f StagedFile) Key() string {
	return strings.Join(f.RelPath, "/")
}

// StagedTree is the result of staging one workspace.
type StagedTree struct {
	Workspace string
	Root      string
	Files     []StagedFile
}

// Transformed counts files whose content was rewritten.
func (t *StagedTree) Transformed() int {
	n := 0
	for _, f := range t.Files {
		if !f.Skipped && !f.Binary {
			n++
		}
	}
	return n
}
