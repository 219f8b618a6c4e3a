package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/tristendillon/widgetforge/core/builder"
	"github.com/tristendillon/widgetforge/core/deploy"
	"github.com/tristendillon/widgetforge/core/logger"
)

var deployCommand string

var deployCmd = &cobra.Command{
	Use:   "deploy [workspace...]",
	Short: "Build workspaces and run the deploy command for each",
	Long: `Builds the given workspaces (all when none are named) and runs deploy.command
once per workspace. {account}, {dir} and {workspace} in the command are
replaced with the creator account, the staged source dir and the workspace ID.
Workspaces without a creatorAccount are skipped and reported as failures.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		command := cfg.Deploy.Command
		if deployCommand != "" {
			command = deployCommand
		}
		d, err := deploy.NewDeployer(bc, command, deploy.ExecRunner{
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}

		results, buildErr := builder.NewBuilder(bc).BuildAll(cmd.Context(), args)
		if buildErr != nil && builder.IsFatal(buildErr) {
			return buildErr
		}

		deployErr := d.DeployAll(cmd.Context(), results)
		if err := errors.Join(buildErr, deployErr); err != nil {
			return err
		}
		logger.Info("Deployed %d workspaces", len(results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringVar(&deployCommand, "command", "", "Deploy command (overrides deploy.command)")
}
