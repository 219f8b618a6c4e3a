package template_engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/models"
)

var ErrWorkspaceExists = errors.New("workspace already exists")

// WorkspaceData is the template input for a new workspace.
type WorkspaceData struct {
	Name      string
	Account   string
	Timestamp time.Time
}

// ScaffoldWorkspace creates <apps>/<name> from the workspace templates. An
// existing dir is replaced only when force is set.
func ScaffoldWorkspace(bc models.BuildContext, name, account string, force bool) ([]string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid workspace name %q", name)
	}

	ws := bc.Workspace(name)
	if _, err := os.Stat(ws.Root); err == nil {
		if !force {
			return nil, fmt.Errorf("%w: %s (use --force to overwrite)", ErrWorkspaceExists, ws.Root)
		}
		logger.Debug("Workspace %s already exists. Overwriting.", ws.Root)
		if err := os.RemoveAll(ws.Root); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", ws.Root, err)
		}
	}

	engine := NewTemplateEngine()
	if err := engine.ValidateTemplate(TEMPLATES.WORKSPACE); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(ws.Root, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", ws.Root, err)
	}

	data := WorkspaceData{Name: name, Account: account, Timestamp: time.Now()}
	written, err := engine.GenerateFolder(TEMPLATES.WORKSPACE, ws.Root, data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate workspace %s: %w", name, err)
	}
	return written, nil
}
