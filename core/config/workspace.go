package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/models"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound = errors.New("workspace config not found")
	ErrInvalidConfig  = errors.New("invalid workspace config")
)

// WorkspaceConfigFiles are tried in order; the first that exists wins.
var WorkspaceConfigFiles = []string{
	"widget.config.yaml",
	"widget.config.yml",
	"widget.config.json",
}

// WorkspaceConfig is the identity and alias table of one workspace.
type WorkspaceConfig struct {
	CreatorAccount string            `yaml:"creatorAccount"`
	Aliases        map[string]string `yaml:"aliases"`
}

func (c *WorkspaceConfig) HasAccount() bool {
	return c.CreatorAccount != ""
}

// WorkspaceConfigError names the workspace and file a config failure belongs to.
type WorkspaceConfigError struct {
	Workspace string
	Path      string
	Err       error
}

func (e *WorkspaceConfigError) Error() string {
	return fmt.Sprintf("workspace %s: config %s: %v", e.Workspace, e.Path, e.Err)
}

func (e *WorkspaceConfigError) Unwrap() error {
	return e.Err
}

// LoadWorkspace reads and validates the config document of ws.
func LoadWorkspace(ws models.Workspace) (*WorkspaceConfig, error) {
	var filePath string
	for _, name := range WorkspaceConfigFiles {
		p := filepath.Join(ws.Root, name)
		if _, err := os.Stat(p); err == nil {
			filePath = p
			break
		}
	}

	if filePath == "" {
		return nil, &WorkspaceConfigError{
			Workspace: ws.ID,
			Path:      filepath.Join(ws.Root, WorkspaceConfigFiles[0]),
			Err:       ErrConfigNotFound,
		}
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &WorkspaceConfigError{Workspace: ws.ID, Path: filePath, Err: err}
	}

	cfg, err := ParseWorkspace(data)
	if err != nil {
		return nil, &WorkspaceConfigError{Workspace: ws.ID, Path: filePath, Err: err}
	}

	if !cfg.HasAccount() {
		logger.Warn("Workspace %s has no creatorAccount in %s; dev bundle and deploy are disabled for it", ws.ID, filePath)
	}
	logger.Debug("Loaded config for workspace %s from %s (%d aliases)", ws.ID, filePath, len(cfg.Aliases))

	return cfg, nil
}

// ParseWorkspace decodes a YAML or JSON config document. Unknown keys are
// rejected.
func ParseWorkspace(data []byte) (*WorkspaceConfig, error) {
	cfg := &WorkspaceConfig{}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidConfig)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg.CreatorAccount = strings.TrimSpace(cfg.CreatorAccount)
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	for name := range cfg.Aliases {
		if name == "" || strings.ContainsAny(name, " \t\r\n") {
			return nil, fmt.Errorf("%w: alias name %q must be non-empty and contain no whitespace", ErrInvalidConfig, name)
		}
	}

	return cfg, nil
}
