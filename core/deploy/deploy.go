// Package deploy hands built workspaces to an external upload command.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/tristendillon/widgetforge/core/builder"
	"github.com/tristendillon/widgetforge/core/config"
	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/models"
)

var (
	ErrNoCreatorAccount = errors.New("no creatorAccount configured")
	ErrNoCommand        = errors.New("deploy.command is not configured")
)

// Runner executes one external command.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) error
}

type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

type Deployer struct {
	bc     models.BuildContext
	argv   []string
	runner Runner
}

// NewDeployer parses command once. Placeholders {account}, {dir} and
// {workspace} are expanded per argument at deploy time, so substituted
// values never split into extra arguments.
func NewDeployer(bc models.BuildContext, command string, runner Runner) (*Deployer, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrNoCommand
	}
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse deploy.command: %w", err)
	}
	if len(argv) == 0 {
		return nil, ErrNoCommand
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Deployer{bc: bc, argv: argv, runner: runner}, nil
}

// Args returns the expanded argv for ws.
func (d *Deployer) Args(ws models.Workspace, cfg *config.WorkspaceConfig) ([]string, error) {
	if cfg == nil || !cfg.HasAccount() {
		return nil, fmt.Errorf("workspace %s: %w", ws.ID, ErrNoCreatorAccount)
	}
	r := strings.NewReplacer(
		"{account}", cfg.CreatorAccount,
		"{dir}", d.bc.StagingRoot(ws),
		"{workspace}", ws.ID,
	)
	args := make([]string, len(d.argv))
	for i, arg := range d.argv {
		args[i] = r.Replace(arg)
	}
	return args, nil
}

func (d *Deployer) Deploy(ctx context.Context, ws models.Workspace, cfg *config.WorkspaceConfig) error {
	args, err := d.Args(ws, cfg)
	if err != nil {
		return err
	}
	logger.Info("Deploying %s as %s", ws.ID, cfg.CreatorAccount)
	logger.Debug("Running %q", args)
	if err := d.runner.Run(ctx, d.bc.OutputDir(ws), args[0], args[1:]...); err != nil {
		return fmt.Errorf("workspace %s: deploy command failed: %w", ws.ID, err)
	}
	return nil
}

// DeployAll deploys each build result in order. A workspace that fails is
// logged and skipped; the failures are returned joined.
func (d *Deployer) DeployAll(ctx context.Context, results []*builder.Result) error {
	var failed []error
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.Deploy(ctx, res.Workspace, res.Config); err != nil {
			logger.Error("Skipping %s: %v", res.Workspace.ID, err)
			failed = append(failed, err)
		}
	}
	return errors.Join(failed...)
}
